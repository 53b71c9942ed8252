// Package workspace implements the assembly pipeline (§4.5): topological
// initialization of a flat set of workspaces with peer-style dependencies,
// per-workspace document/table/provider/action construction, and orderly
// concurrent teardown.
package workspace

import (
	"path/filepath"

	"github.com/epicenter-sh/epicenter/internal/action"
	"github.com/epicenter-sh/epicenter/internal/document"
	"github.com/epicenter-sh/epicenter/internal/schema"
	"github.com/epicenter-sh/epicenter/internal/table"
)

// Paths resolves the filesystem locations a workspace's providers and
// actions factory may need, rooted at the project directory (§6).
type Paths struct {
	ProjectRoot string
	// Workspace is <projectRoot>/<workspaceDirectory>, owned exclusively
	// by this workspace's filesystem-backed providers.
	Workspace string
}

// Provider scratch directory for a given provider id: engine-private,
// shared across workspaces that happen to register the same provider id
// (§6 — the layout names it by provider id alone).
func (p Paths) Provider(providerID string) string {
	return filepath.Join(p.ProjectRoot, ".epicenter", "providers", providerID)
}

// Diagnostics file path for a workspace's bulk-sync diagnostics (§6).
func (p Paths) Diagnostics(workspaceID string) string {
	return filepath.Join(p.ProjectRoot, ".epicenter", workspaceID+"-diagnostics.json")
}

// ProviderContext is what a provider factory receives at init time.
type ProviderContext struct {
	WorkspaceID string
	ProviderID  string
	Document    *document.Document
	Schemas     map[string]*schema.Schema
	Tables      map[string]*table.Table
	Paths       Paths
}

// Provider is the contract every provider implements: Init runs during
// assembly and may return an exports value surfaced to the actions
// factory; Destroy is optional teardown, awaited before the document is
// torn down (§4.5 step 5).
type Provider interface {
	Init(ctx ProviderContext) (exports any, err error)
}

// Destroyer is implemented by providers that need explicit teardown.
type Destroyer interface {
	Destroy() error
}

// ProviderConfig names one provider instance to mount into a workspace.
type ProviderConfig struct {
	ID       string
	Provider Provider
}

// ActionsInput is what a workspace's actions factory receives (§4.5 step
// 4): its own tables/schemas, the providers' exports keyed by provider id,
// already-assembled dependency clients keyed by workspace id, and paths.
type ActionsInput struct {
	WorkspaceID string
	Tables      map[string]*table.Table
	Schemas     map[string]*schema.Schema
	Providers   map[string]any
	Workspaces  map[string]*Client
	Paths       Paths
}

// ActionsFactory builds a workspace's action tree once its document,
// tables, and providers are ready.
type ActionsFactory func(in ActionsInput) action.Namespace

// Config declares one workspace before assembly.
type Config struct {
	ID           string
	Dependencies []string
	Directory    string // defaults to ID if empty
	Schemas      []*schema.Schema
	Providers    []ProviderConfig
	Actions      ActionsFactory
}

// Client is the assembled, callable handle for one workspace (§4.5 step
// 6). Assembly.Teardown tears down its providers concurrently, then its
// document.
type Client struct {
	ID        string
	Document  *document.Document
	Tables    map[string]*table.Table
	Schemas   map[string]*schema.Schema
	Providers map[string]any
	Actions   action.Namespace

	destroyers []Destroyer
}
