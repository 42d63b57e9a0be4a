// Package core defines the shared language of the leapmodel system.
//
// This package contains:
//   - Model entities (Entity, Op, Prop, Attribute, CopySource)
//   - The Generator capability interface and the processing Context handed to it
//   - The scoped generator stack (Scope)
//   - Sentinel errors and typed error wrappers
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
