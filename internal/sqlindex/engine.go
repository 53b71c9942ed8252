// Package sqlindex is an illustrative read-only SQL index provider: it
// mirrors a workspace's tables into SQLite, upserted on the same observer
// events the markdown provider reacts to, so the tables can be queried
// with plain SQL (dashboards, ad hoc reporting) without touching the
// in-memory document.
package sqlindex

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"github.com/epicenter-sh/epicenter/internal/schema"
)

// queryCacheSize bounds the number of distinct ad hoc queries Engine.Query
// keeps a cached result set for.
const queryCacheSize = 128

// Engine owns one SQLite connection for a workspace's index database.
type Engine struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex

	// queryCache holds Query results keyed by statement+args, purged on
	// every Upsert/Delete/Clear so repeated ad hoc dashboard queries
	// between writes don't re-hit SQLite.
	queryCache *lru.Cache[string, []map[string]any]
}

// NewEngine opens (creating if absent) the SQLite database at dbPath with
// the same WAL/busy-timeout pragmas the teacher's engine used.
func NewEngine(dbPath string) (*Engine, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("epicenter/sqlindex: open %q: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("epicenter/sqlindex: ping %q: %w", dbPath, err)
	}
	cache, err := lru.New[string, []map[string]any](queryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("epicenter/sqlindex: build query cache: %w", err)
	}
	return &Engine{db: db, dbPath: dbPath, queryCache: cache}, nil
}

// DB returns the underlying connection for direct queries.
func (e *Engine) DB() *sql.DB { return e.db }

// Path returns the database file path.
func (e *Engine) Path() string { return e.dbPath }

// Close closes the underlying connection.
func (e *Engine) Close() error { return e.db.Close() }

// EnsureTable creates the SQL mirror table for s if it does not already
// exist, generating one column per schema column plus a TEXT primary key
// on the id column.
func (e *Engine) EnsureTable(s *schema.Schema) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var cols []string
	for _, c := range s.OrderedColumns() {
		cols = append(cols, fmt.Sprintf("%s %s", quoteIdent(c.Name), sqlType(c)))
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(s.TableName), strings.Join(cols, ", "))
	if _, err := e.db.Exec(stmt); err != nil {
		return fmt.Errorf("epicenter/sqlindex: create table %q: %w", s.TableName, err)
	}
	return nil
}

func sqlType(c schema.Column) string {
	base := func() string {
		switch c.Type {
		case schema.TypeID:
			return "TEXT PRIMARY KEY"
		case schema.TypeInteger:
			return "INTEGER"
		case schema.TypeReal:
			return "REAL"
		case schema.TypeBoolean:
			return "INTEGER"
		default:
			return "TEXT"
		}
	}()
	return base
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
