package schema

import (
	"fmt"
	"time"
)

// ValidationStatus is the outcome discriminator for a validated row.
type ValidationStatus string

const (
	StatusValid            ValidationStatus = "valid"
	StatusSchemaMismatch    ValidationStatus = "schema-mismatch"
	StatusInvalidStructure  ValidationStatus = "invalid-structure"
)

// Reason enumerates the structured validation failure reasons.
type Reason string

const (
	ReasonMissingRequiredField Reason = "missing-required-field"
	ReasonTypeMismatch         Reason = "type-mismatch"
	ReasonInvalidOption        Reason = "invalid-option"
	ReasonNotAnObject          Reason = "not-an-object"
	ReasonInvalidCellValue     Reason = "invalid-cell-value"
)

// Row is a plain, JSON-shaped view of a row: keys are column names, values
// are scalars, []string (tags), or a nested map (json columns).
type Row map[string]any

// LiveValue is implemented by collaborative cell objects so the live-row
// validator can inspect their current plain projection without this
// package depending on the cell package.
type LiveValue interface {
	// Plain returns the value's current serialized-equivalent projection
	// for validation purposes (e.g. a ytext cell returns its string).
	Plain() any
}

// ValidationResult is the outcome of validating one row.
type ValidationResult struct {
	Status ValidationStatus
	Row    Row
	Reason Reason
	Field  string
	Detail string
}

func invalidStructure(reason Reason, detail string) ValidationResult {
	return ValidationResult{Status: StatusInvalidStructure, Reason: reason, Detail: detail}
}

func schemaMismatch(field string, reason Reason, detail string) ValidationResult {
	return ValidationResult{Status: StatusSchemaMismatch, Field: field, Reason: reason, Detail: detail}
}

// ValidationMode controls which columns are required.
type ValidationMode int

const (
	// ModeFull requires every non-nullable column without a default to be
	// present.
	ModeFull ValidationMode = iota
	// ModePartial requires only the id column; all others are optional.
	ModePartial
)

// ValidateSerializedRow validates a plain JSON-shaped row against the
// schema, in either full or partial mode.
func (s *Schema) ValidateSerializedRow(row Row, mode ValidationMode) ValidationResult {
	return s.validateRow(row, mode, false)
}

// ValidateLiveRow validates a row whose collaborative columns may hold
// LiveValue objects instead of plain values.
func (s *Schema) ValidateLiveRow(row Row, mode ValidationMode) ValidationResult {
	return s.validateRow(row, mode, true)
}

func (s *Schema) validateRow(row Row, mode ValidationMode, live bool) ValidationResult {
	if row == nil {
		return invalidStructure(ReasonNotAnObject, "row is nil")
	}

	idCol := s.IDColumn()
	idVal, hasID := row[idCol.Name]
	if !hasID {
		return schemaMismatch(idCol.Name, ReasonMissingRequiredField, "id column is required")
	}
	idStr, ok := idVal.(string)
	if !ok || idStr == "" {
		return schemaMismatch(idCol.Name, ReasonTypeMismatch, "id must be a non-empty string")
	}

	for _, col := range s.OrderedColumns() {
		if col.Type == TypeID {
			continue
		}
		raw, present := row[col.Name]
		if !present {
			if mode == ModeFull && !col.Nullable && col.Default == nil {
				return schemaMismatch(col.Name, ReasonMissingRequiredField, "column is required and has no default")
			}
			continue
		}

		value := raw
		if live {
			if lv, isLive := raw.(LiveValue); isLive {
				value = lv.Plain()
			}
		}

		if value == nil {
			if !col.Nullable {
				return schemaMismatch(col.Name, ReasonTypeMismatch, "column is not nullable")
			}
			continue
		}

		if res := validateCellValue(col, value); res.Status != StatusValid {
			res.Field = col.Name
			return res
		}
	}

	return ValidationResult{Status: StatusValid, Row: row}
}

func validateCellValue(col Column, value any) ValidationResult {
	switch col.Type {
	case TypeText, TypeYText, TypeYXMLFragment:
		if _, ok := value.(string); !ok {
			return schemaMismatch(col.Name, ReasonTypeMismatch, "expected string")
		}
	case TypeInteger:
		f, ok := asFloat(value)
		if !ok {
			return schemaMismatch(col.Name, ReasonTypeMismatch, "expected number")
		}
		if f != float64(int64(f)) {
			return schemaMismatch(col.Name, ReasonTypeMismatch, "expected integral value")
		}
	case TypeReal:
		if _, ok := asFloat(value); !ok {
			return schemaMismatch(col.Name, ReasonTypeMismatch, "expected number")
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return schemaMismatch(col.Name, ReasonTypeMismatch, "expected boolean")
		}
	case TypeSelect:
		str, ok := value.(string)
		if !ok {
			return schemaMismatch(col.Name, ReasonTypeMismatch, "expected string")
		}
		if !contains(col.Options, str) {
			return schemaMismatch(col.Name, ReasonInvalidOption, fmt.Sprintf("%q is not a declared option", str))
		}
	case TypeTags:
		tags, ok := asStringSlice(value)
		if !ok {
			return schemaMismatch(col.Name, ReasonTypeMismatch, "expected array of strings")
		}
		for _, t := range tags {
			if !contains(col.Options, t) {
				return schemaMismatch(col.Name, ReasonInvalidOption, fmt.Sprintf("%q is not a declared option", t))
			}
		}
	case TypeDate:
		str, ok := value.(string)
		if !ok {
			return schemaMismatch(col.Name, ReasonTypeMismatch, "expected RFC-3339 string")
		}
		if _, err := time.Parse(time.RFC3339, str); err != nil {
			return schemaMismatch(col.Name, ReasonInvalidCellValue, "not a valid RFC-3339 timestamp")
		}
	case TypeJSON:
		// any JSON value is acceptable, including nested maps/slices.
	default:
		return schemaMismatch(col.Name, ReasonTypeMismatch, fmt.Sprintf("unknown column type %q", col.Type))
	}
	return ValidationResult{Status: StatusValid}
}

func asFloat(v any) (float64, bool) {
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

func asStringSlice(v any) ([]string, bool) {
	switch arr := v.(type) {
	case []string:
		return arr, true
	case []any:
		out := make([]string, 0, len(arr))
		for _, e := range arr {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

// RowsEnvelope is the `{rows: [...]}` array form shared by the bulk
// mutation operations.
type RowsEnvelope struct {
	Rows []Row `json:"rows"`
}

// ValidateRowsEnvelope validates every row in the envelope and returns one
// result per row, in envelope order; it does not stop at the first failure.
func (s *Schema) ValidateRowsEnvelope(env RowsEnvelope, mode ValidationMode) []ValidationResult {
	results := make([]ValidationResult, 0, len(env.Rows))
	for _, row := range env.Rows {
		results = append(results, s.ValidateSerializedRow(row, mode))
	}
	return results
}
