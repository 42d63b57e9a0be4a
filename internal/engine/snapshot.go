package engine

import (
	"encoding/json"
	"time"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// Snapshot is the serializable view of a run, written on failure for
// postmortem and by the json emitter on success.
type Snapshot struct {
	CreatedAt time.Time        `json:"createdAt"`
	Pass      int              `json:"pass"`
	Error     string           `json:"error,omitempty"`
	Entities  []EntitySnapshot `json:"entities"`
}

// EntitySnapshot extends an entity with its pending directives.
type EntitySnapshot struct {
	*core.Entity
	OpDirectives []OpSnapshot  `json:"opDirectives,omitempty"`
	Pending      []PropPending `json:"pending,omitempty"`
}

// OpSnapshot lists the directives of one entity-level op.
type OpSnapshot struct {
	Line       int                  `json:"line,omitempty"`
	Boundary   core.Boundary        `json:"boundary,omitempty"`
	Directives []core.GeneratorInfo `json:"directives"`
}

// PropPending lists the directives of one property.
type PropPending struct {
	Prop       string               `json:"prop"`
	Directives []core.GeneratorInfo `json:"directives"`
}

// NewSnapshot captures entities as they are now. err may be nil.
func NewSnapshot(entities []*core.Entity, pass int, err error) *Snapshot {
	snap := &Snapshot{CreatedAt: time.Now().UTC(), Pass: pass, Entities: make([]EntitySnapshot, 0, len(entities))}
	if err != nil {
		snap.Error = err.Error()
	}
	for _, ent := range entities {
		es := EntitySnapshot{Entity: ent}
		for _, op := range ent.Ops {
			if op.IsProp() {
				continue
			}
			es.OpDirectives = append(es.OpDirectives, OpSnapshot{
				Line:       op.Line,
				Boundary:   op.Boundary,
				Directives: core.DescribeGenerators(op.Generators),
			})
		}
		for _, p := range ent.Props {
			if len(p.Generators) == 0 {
				continue
			}
			es.Pending = append(es.Pending, PropPending{Prop: p.Name, Directives: core.DescribeGenerators(p.Generators)})
		}
		snap.Entities = append(snap.Entities, es)
	}
	return snap
}

// JSON encodes the snapshot with indentation.
func (s *Snapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
