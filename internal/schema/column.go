// Package schema describes table shapes: columns, cell types, and the
// validators derived from them.
package schema

import "fmt"

// Type is the closed set of cell types a column may declare.
type Type string

const (
	TypeID           Type = "id"
	TypeText         Type = "text"
	TypeInteger      Type = "integer"
	TypeReal         Type = "real"
	TypeBoolean      Type = "boolean"
	TypeSelect       Type = "select"
	TypeTags         Type = "tags"
	TypeYText        Type = "ytext"
	TypeYXMLFragment Type = "yxmlfragment"
	TypeDate         Type = "date"
	TypeJSON         Type = "json"
)

// Column is an immutable column declaration.
type Column struct {
	Name        string
	Type        Type
	Nullable    bool
	Default     any
	Description string
	Options     []string // select, tags
}

func defaultNullable(t Type) bool {
	switch t {
	case TypeID, TypeText:
		return false
	default:
		return true
	}
}

func newColumn(name string, t Type, opts ...ColumnOption) Column {
	c := Column{
		Name:     name,
		Type:     t,
		Nullable: defaultNullable(t),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ColumnOption customizes a column at construction time.
type ColumnOption func(*Column)

// Nullable overrides the type's default nullability.
func Nullable(v bool) ColumnOption { return func(c *Column) { c.Nullable = v } }

// Default sets the column's default value.
func Default(v any) ColumnOption { return func(c *Column) { c.Default = v } }

// Description attaches a human-readable description to the column.
func Description(s string) ColumnOption { return func(c *Column) { c.Description = s } }

// ID declares the table's mandatory primary key column. Non-nullable.
func ID(name string) Column {
	c := newColumn(name, TypeID)
	c.Nullable = false
	return c
}

// Text declares a scalar text column. Non-nullable unless Nullable(true)
// is given.
func Text(name string, opts ...ColumnOption) Column { return newColumn(name, TypeText, opts...) }

// Integer declares a scalar integer column.
func Integer(name string, opts ...ColumnOption) Column { return newColumn(name, TypeInteger, opts...) }

// Real declares a scalar floating point column.
func Real(name string, opts ...ColumnOption) Column { return newColumn(name, TypeReal, opts...) }

// Boolean declares a scalar boolean column.
func Boolean(name string, opts ...ColumnOption) Column { return newColumn(name, TypeBoolean, opts...) }

// Select declares a single-choice column whose option set is fixed at
// schema time.
func Select(name string, options []string, opts ...ColumnOption) Column {
	c := newColumn(name, TypeSelect, opts...)
	c.Options = options
	return c
}

// Tags declares a multi-select column backed by a collaborative ordered
// sequence.
func Tags(name string, options []string, opts ...ColumnOption) Column {
	c := newColumn(name, TypeTags, opts...)
	c.Options = options
	return c
}

// YText declares a collaborative text column.
func YText(name string, opts ...ColumnOption) Column { return newColumn(name, TypeYText, opts...) }

// YXMLFragment declares a collaborative rich-text column.
func YXMLFragment(name string, opts ...ColumnOption) Column {
	return newColumn(name, TypeYXMLFragment, opts...)
}

// Date declares a zone-preserving RFC-3339 date column.
func Date(name string, opts ...ColumnOption) Column { return newColumn(name, TypeDate, opts...) }

// JSONColumn declares an opaque JSON-value column.
func JSONColumn(name string, opts ...ColumnOption) Column { return newColumn(name, TypeJSON, opts...) }

func (c Column) String() string {
	return fmt.Sprintf("%s:%s", c.Name, c.Type)
}
