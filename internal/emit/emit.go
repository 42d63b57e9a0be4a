// Package emit renders a resolved entity graph into output files.
//
// Emitters are looked up by type in a Registry. Run renders every target
// concurrently into memory and only writes files once all of them succeeded,
// so a failing emitter never leaves partial output behind.
package emit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// ErrUnknownType is returned for a target whose type has no emitter.
var ErrUnknownType = errors.New("unknown output type")

// Target is one configured output.
type Target struct {
	// Type selects the emitter (typescript, firestore, json)
	Type string
	// Path is the file written
	Path string
	// Header is an optional file whose content is inserted after the
	// generated banner
	Header string
	// Options are emitter specific settings
	Options map[string]string
}

// Input is what an emitter renders.
type Input struct {
	// Entities sorted by name. Emitters must not modify them.
	Entities []*core.Entity
	// Header is the content of Target.Header, if any.
	Header []byte
}

// Emitter renders entities to w.
type Emitter interface {
	Emit(ctx context.Context, w io.Writer, in Input) error
}

// Factory creates an emitter from target options.
type Factory func(options map[string]string) (Emitter, error)

// Registry maps output types to emitter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default returns a registry with the built-in emitters.
func Default() *Registry {
	r := NewRegistry()
	r.MustRegister(TypeTypeScript, newTypeScript)
	r.MustRegister(TypeFirestore, newFirestore)
	r.MustRegister(TypeJSON, newJSON)
	return r
}

// Register adds an emitter factory.
func (r *Registry) Register(typ string, f Factory) error {
	if typ == "" || f == nil {
		return errors.New("output type and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[typ]; exists {
		return fmt.Errorf("output type %q already registered", typ)
	}
	r.factories[typ] = f
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(typ string, f Factory) {
	if err := r.Register(typ, f); err != nil {
		panic(err)
	}
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[typ]
	return ok
}

// Types returns the registered output types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for typ := range r.factories {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// New creates the emitter for t.
func (r *Registry) New(t Target) (Emitter, error) {
	r.mu.RLock()
	f, ok := r.factories[t.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t.Type)
	}
	return f(t.Options)
}

// Written describes a file produced by Run.
type Written struct {
	Target Target
	Bytes  int
}

// Run renders every target and writes the files. Nothing is written when
// any target fails.
func Run(ctx context.Context, reg *Registry, targets []Target, entities []*core.Entity, logger *slog.Logger) ([]Written, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	emitters := make([]Emitter, len(targets))
	for i, t := range targets {
		em, err := reg.New(t)
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", t.Path, err)
		}
		emitters[i] = em
	}

	bufs := make([]bytes.Buffer, len(targets))
	eg, egctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		em := emitters[i]
		eg.Go(func() error {
			in := Input{Entities: entities}
			if t.Header != "" {
				header, err := os.ReadFile(t.Header) //nolint:gosec // G304: header path comes from config
				if err != nil {
					return fmt.Errorf("output %s: failed to read header: %w", t.Path, err)
				}
				in.Header = header
			}
			if err := em.Emit(egctx, &bufs[i], in); err != nil {
				return fmt.Errorf("output %s (%s): %w", t.Path, t.Type, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	written := make([]Written, 0, len(targets))
	for i, t := range targets {
		if err := writeFile(t.Path, bufs[i].Bytes()); err != nil {
			return written, err
		}
		logger.Info("output written", slog.String("type", t.Type), slog.String("path", t.Path), slog.Int("bytes", bufs[i].Len()))
		written = append(written, Written{Target: t, Bytes: bufs[i].Len()})
	}
	return written, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
