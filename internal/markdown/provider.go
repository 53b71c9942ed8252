package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/epicenter-sh/epicenter/internal/diagnostics"
	"github.com/epicenter-sh/epicenter/internal/schema"
	"github.com/epicenter-sh/epicenter/internal/table"
	"github.com/epicenter-sh/epicenter/internal/workspace"
)

// Serializer turns a live row into a markdown File plus its filename.
type Serializer func(s *schema.Schema, row schema.Row) (File, string)

// Deserializer turns a parsed markdown File back into a serialized row.
type Deserializer func(s *schema.Schema, f File, filename string) (schema.Row, error)

// TableConfig overrides the default serialize/deserialize/directory
// behavior for one table (§4.6.1).
type TableConfig struct {
	Directory   string
	Serialize   Serializer
	Deserialize Deserializer
}

// Config configures the markdown provider for one workspace (§4.6.1).
type Config struct {
	// Directory is the workspace-level root for .md files, relative to
	// the project root. Empty means use the workspace's own directory
	// (ctx.Paths.Workspace).
	Directory string
	Tables    map[string]TableConfig
}

// Provider is the markdown mirror provider (§4.6). One instance is
// mounted per workspace via workspace.ProviderConfig.
type Provider struct {
	cfg Config

	mu               sync.Mutex
	isProcessingYJS  bool
	isProcessingFile bool

	workspaceID string
	root        string
	projectRoot string

	schemas   map[string]*schema.Schema
	tables    map[string]*table.Table
	tableDirs map[string]string // table name -> absolute directory

	filenames map[string]map[string]string // table -> id -> last-known filename

	watcher *fsnotify.Watcher
	unsubs  []func()

	logger *log.Logger
}

var _ workspace.Provider = (*Provider)(nil)
var _ workspace.Destroyer = (*Provider)(nil)

// New constructs an unbound markdown provider from its configuration.
func New(cfg Config) *Provider {
	return &Provider{cfg: cfg, filenames: make(map[string]map[string]string)}
}

// Init wires the provider to its workspace's document and tables, starts
// the observer subscriptions (document -> disk) and the filesystem
// watcher (disk -> document), and returns the bulk-sync exports (§4.6.7).
func (p *Provider) Init(ctx workspace.ProviderContext) (any, error) {
	p.workspaceID = ctx.WorkspaceID
	p.projectRoot = ctx.Paths.ProjectRoot
	p.schemas = ctx.Schemas
	p.tables = ctx.Tables
	p.logger = diagnostics.NewLogger("markdown", ctx.WorkspaceID)

	p.root = ctx.Paths.Workspace
	if p.cfg.Directory != "" {
		if filepath.IsAbs(p.cfg.Directory) {
			p.root = p.cfg.Directory
		} else {
			p.root = filepath.Join(p.projectRoot, p.cfg.Directory)
		}
	}

	p.tableDirs = make(map[string]string, len(ctx.Tables))
	for name := range ctx.Tables {
		dir := name
		if tc, ok := p.cfg.Tables[name]; ok && tc.Directory != "" {
			dir = tc.Directory
		}
		p.tableDirs[name] = filepath.Join(p.root, dir)
		if err := os.MkdirAll(p.tableDirs[name], 0o755); err != nil {
			return nil, fmt.Errorf("epicenter/markdown: create table directory %q: %w", name, err)
		}
		p.filenames[name] = make(map[string]string)
	}

	for name, tbl := range ctx.Tables {
		p.unsubs = append(p.unsubs, p.observeTable(name, tbl))
	}

	if err := p.startWatcher(); err != nil {
		return nil, fmt.Errorf("epicenter/markdown: start watcher: %w", err)
	}

	return p.exports(), nil
}

// Destroy stops the filesystem watcher before unsubscribing observers,
// so shutdown never produces spurious document mutations from in-flight
// filesystem events (§4.6.8 "Watcher teardown happens before observer
// unsubscription").
func (p *Provider) Destroy() error {
	var watchErr error
	if p.watcher != nil {
		watchErr = p.watcher.Close()
	}
	for _, unsub := range p.unsubs {
		unsub()
	}
	return watchErr
}

func (p *Provider) serializerFor(name string) Serializer {
	if tc, ok := p.cfg.Tables[name]; ok && tc.Serialize != nil {
		return tc.Serialize
	}
	return DefaultSerialize
}

func (p *Provider) deserializerFor(name string) Deserializer {
	if tc, ok := p.cfg.Tables[name]; ok && tc.Deserialize != nil {
		return tc.Deserialize
	}
	return DefaultDeserialize
}

// tableForPath resolves the event path against the set of table
// directories, picking the table whose directory is a proper prefix of
// the path (§4.6.6 step 3).
func (p *Provider) tableForPath(path string) (string, bool) {
	for name, dir := range p.tableDirs {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			continue
		}
		if rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		return name, true
	}
	return "", false
}

func (p *Provider) logProviderError(tableName, id, detail string) {
	p.logger.Error("provider error", "table", tableName, "id", id, "detail", detail)
}
