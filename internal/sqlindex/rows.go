package sqlindex

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/epicenter-sh/epicenter/internal/schema"
)

// Upsert writes one row into the table mirroring s, replacing any row
// with the same id.
func (e *Engine) Upsert(s *schema.Schema, row schema.Row) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cols := s.OrderedColumns()
	names := make([]string, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	updates := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))

	for _, c := range cols {
		names = append(names, quoteIdent(c.Name))
		placeholders = append(placeholders, "?")
		if c.Type != schema.TypeID {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", quoteIdent(c.Name), quoteIdent(c.Name)))
		}
		args = append(args, encodeValue(c, row[c.Name]))
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
		quoteIdent(s.TableName),
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
		quoteIdent(s.IDColumn().Name),
		strings.Join(updates, ", "),
	)
	if _, err := e.db.Exec(stmt, args...); err != nil {
		return fmt.Errorf("epicenter/sqlindex: upsert into %q: %w", s.TableName, err)
	}
	e.queryCache.Purge()
	return nil
}

// Delete removes the row with the given id from the table mirroring s.
func (e *Engine) Delete(s *schema.Schema, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quoteIdent(s.TableName), quoteIdent(s.IDColumn().Name))
	if _, err := e.db.Exec(stmt, id); err != nil {
		return fmt.Errorf("epicenter/sqlindex: delete from %q: %w", s.TableName, err)
	}
	e.queryCache.Purge()
	return nil
}

// Clear removes every row from the table mirroring s.
func (e *Engine) Clear(s *schema.Schema) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.db.Exec(fmt.Sprintf("DELETE FROM %s", quoteIdent(s.TableName))); err != nil {
		return fmt.Errorf("epicenter/sqlindex: clear %q: %w", s.TableName, err)
	}
	e.queryCache.Purge()
	return nil
}

// Query runs an arbitrary read-only SQL query against the index database,
// returning rows decoded as generic maps keyed by column name. Results are
// cached by statement+args until the next write (Upsert/Delete/Clear),
// since dashboards and reports tend to repeat the same query between
// mutations.
func (e *Engine) Query(query string, args ...any) ([]map[string]any, error) {
	key := queryCacheKey(query, args)
	if cached, ok := e.queryCache.Get(key); ok {
		return cached, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	rows, err := e.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("epicenter/sqlindex: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("epicenter/sqlindex: columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		scanTargets := make([]any, len(cols))
		scanValues := make([]sql.RawBytes, len(cols))
		for i := range scanTargets {
			scanTargets[i] = &scanValues[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("epicenter/sqlindex: scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, name := range cols {
			row[name] = string(scanValues[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	e.queryCache.Add(key, out)
	return out, nil
}

func queryCacheKey(query string, args []any) string {
	return fmt.Sprintf("%s|%v", query, args)
}

func encodeValue(c schema.Column, value any) any {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case schema.LiveValue:
		return encodeValue(c, v.Plain())
	case bool:
		if v {
			return 1
		}
		return 0
	}
	switch c.Type {
	case schema.TypeTags, schema.TypeJSON:
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(b)
	default:
		return value
	}
}
