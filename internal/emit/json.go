package emit

import (
	"context"
	"encoding/json"
	"io"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// TypeJSON emits a manifest of the resolved graph.
const TypeJSON = "json"

// OptionCompact disables indentation of the JSON manifest.
const OptionCompact = "compact"

// ManifestVersion is bumped on incompatible manifest changes.
const ManifestVersion = 1

// Manifest is the JSON document written by the json emitter.
type Manifest struct {
	Version  int            `json:"version"`
	Entities []*core.Entity `json:"entities"`
}

type jsonEmitter struct {
	compact bool
}

func newJSON(options map[string]string) (Emitter, error) {
	return &jsonEmitter{compact: options[OptionCompact] == "true"}, nil
}

func (j *jsonEmitter) Emit(ctx context.Context, w io.Writer, in Input) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	if !j.compact {
		enc.SetIndent("", "  ")
	}
	entities := in.Entities
	if entities == nil {
		entities = []*core.Entity{}
	}
	return enc.Encode(Manifest{Version: ManifestVersion, Entities: entities})
}
