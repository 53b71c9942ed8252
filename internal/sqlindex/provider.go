package sqlindex

import (
	"fmt"
	"path/filepath"

	"github.com/epicenter-sh/epicenter/internal/document"
	"github.com/epicenter-sh/epicenter/internal/schema"
	"github.com/epicenter-sh/epicenter/internal/table"
	"github.com/epicenter-sh/epicenter/internal/workspace"
)

// Config configures the SQL index provider for one workspace (§10.2).
type Config struct {
	// Path is the SQLite file path, relative to the project root unless
	// absolute. Empty defaults to ".epicenter/providers/sqlindex/<workspaceId>.db".
	Path string
}

// Provider mirrors a workspace's tables into a SQLite database, kept in
// sync with the document via the same observer mechanism the markdown
// provider uses.
type Provider struct {
	cfg    Config
	engine *Engine
	unsubs []func()
}

var _ workspace.Provider = (*Provider)(nil)
var _ workspace.Destroyer = (*Provider)(nil)

// New constructs an unbound SQL index provider.
func New(cfg Config) *Provider {
	return &Provider{cfg: cfg}
}

// Init opens the index database, creates one mirror table per workspace
// schema, backfills it from the current document state, and wires
// observers to keep it current.
func (p *Provider) Init(ctx workspace.ProviderContext) (any, error) {
	path := p.cfg.Path
	if path == "" {
		path = filepath.Join(ctx.Paths.Provider("sqlindex"), ctx.WorkspaceID+".db")
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(ctx.Paths.ProjectRoot, path)
	}

	engine, err := NewEngine(path)
	if err != nil {
		return nil, fmt.Errorf("epicenter/sqlindex: init: %w", err)
	}
	p.engine = engine

	for name, s := range ctx.Schemas {
		if err := engine.EnsureTable(s); err != nil {
			return nil, err
		}
		if err := p.backfill(s, ctx.Tables[name]); err != nil {
			return nil, err
		}
		p.unsubs = append(p.unsubs, p.observeTable(s, ctx.Tables[name]))
	}

	return Exports{Engine: engine}, nil
}

// Destroy closes the underlying SQLite connection after unsubscribing
// observers.
func (p *Provider) Destroy() error {
	for _, unsub := range p.unsubs {
		unsub()
	}
	if p.engine != nil {
		return p.engine.Close()
	}
	return nil
}

// backfill seeds the mirror table from whatever valid rows already exist
// in the document at provider init time.
func (p *Provider) backfill(s *schema.Schema, tbl *table.Table) error {
	if tbl == nil {
		return nil
	}
	if err := p.engine.Clear(s); err != nil {
		return err
	}
	for _, res := range tbl.GetAllValid() {
		if err := p.engine.Upsert(s, res.Row); err != nil {
			return err
		}
	}
	return nil
}

// observeTable wires document change events for one table into SQL
// upserts/deletes, mirroring the markdown provider's observeTable shape.
func (p *Provider) observeTable(s *schema.Schema, tbl *table.Table) (unsubscribe func()) {
	if tbl == nil {
		return func() {}
	}
	return tbl.Observe(document.Observer{
		OnAdd:    func(res schema.ValidationResult) { p.reflect(s, res) },
		OnUpdate: func(res schema.ValidationResult) { p.reflect(s, res) },
		OnDelete: func(id string) { _ = p.engine.Delete(s, id) },
	})
}

func (p *Provider) reflect(s *schema.Schema, res schema.ValidationResult) {
	if res.Status != schema.StatusValid {
		return
	}
	_ = p.engine.Upsert(s, res.Row)
}

// Exports is what the SQL index provider surfaces to a workspace's
// actions factory.
type Exports struct {
	Engine *Engine
}
