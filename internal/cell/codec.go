package cell

import (
	"fmt"

	"dario.cat/mergo"

	"github.com/epicenter-sh/epicenter/internal/schema"
)

// New creates a live cell for the given column from a serialized initial
// value (which may be nil for nullable columns).
func New(col schema.Column, initial any) (Cell, error) {
	switch col.Type {
	case schema.TypeYText, schema.TypeYXMLFragment:
		s, err := asNullableString(initial)
		if err != nil {
			return nil, err
		}
		return NewText(s), nil
	case schema.TypeTags:
		tags, err := asStringSlice(initial)
		if err != nil {
			return nil, err
		}
		return NewTags(tags), nil
	default:
		return NewScalar(initial), nil
	}
}

// Apply applies a new serialized value to an existing live cell, using a
// diff-based merge for collaborative columns and a direct replace for
// scalars. This is the operation both upsert and update route through, so
// neither ever discards a collaborative cell's history.
func Apply(c Cell, col schema.Column, value any) error {
	switch typed := c.(type) {
	case *Text:
		s, err := asNullableString(value)
		if err != nil {
			return err
		}
		typed.Apply(s)
	case *Tags:
		tags, err := asStringSlice(value)
		if err != nil {
			return err
		}
		typed.Apply(tags)
	case *Scalar:
		typed.Apply(value)
	default:
		return fmt.Errorf("epicenter/cell: unknown cell implementation for column %q", col.Name)
	}
	return nil
}

func asNullableString(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("epicenter/cell: expected string, got %T", v)
	}
	return &s, nil
}

func asStringSlice(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	switch arr := v.(type) {
	case []string:
		return arr, nil
	case []any:
		out := make([]string, 0, len(arr))
		for _, e := range arr {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("epicenter/cell: expected array of strings")
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("epicenter/cell: expected array of strings, got %T", v)
}

// MergePartial merges a partial serialized row onto a full snapshot
// (column name -> plain value) without overwriting fields the partial row
// omitted, using dario.cat/mergo. The table layer's Update does not call
// it; it applies only the supplied columns to the live cells directly.
func MergePartial(base map[string]any, partial map[string]any) (map[string]any, error) {
	merged := make(map[string]any, len(base))
	for k, v := range base {
		merged[k] = v
	}
	if err := mergo.Merge(&merged, partial, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("epicenter/cell: merge partial row: %w", err)
	}
	return merged, nil
}
