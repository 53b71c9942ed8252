// Package cell implements the cell codec: the conversion between
// serialized values and the CRDT-backed live cells of the document core.
//
// There is no Go CRDT library in the reference corpus this module was
// built against (see DESIGN.md), so the collaborative cell types here are
// a small, dependency-free stand-in behind the Cell interface: each
// mutation is applied as a minimal diff against the previous value and
// bumps a per-cell logical clock, the same shape a real CRDT
// apply-update/encode-state pair would need to support. Swapping in a real
// CRDT engine later means reimplementing this package; nothing above it
// (internal/table, internal/document) needs to change.
package cell

import "github.com/epicenter-sh/epicenter/internal/schema"

// Cell is a single (row, column) value. Scalar columns hold a plain value;
// collaborative columns (tags, ytext, yxmlfragment) hold a value that is
// mutated in place via diff-based apply so history survives updates.
type Cell interface {
	schema.LiveValue
	// Clock returns the cell's logical mutation counter, bumped every
	// time Apply changes the stored value.
	Clock() int64
}

// Scalar is a non-collaborative cell: integer, real, boolean, select,
// text, date, or json. Updates simply replace the stored value.
type Scalar struct {
	value any
	clock int64
}

// NewScalar creates a scalar cell holding the given initial value.
func NewScalar(initial any) *Scalar {
	return &Scalar{value: initial}
}

func (s *Scalar) Plain() any   { return s.value }
func (s *Scalar) Clock() int64 { return s.clock }

// Apply replaces the scalar's value if it differs from the current one.
func (s *Scalar) Apply(v any) {
	if equalPlain(s.value, v) {
		return
	}
	s.value = v
	s.clock++
}

func equalPlain(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
