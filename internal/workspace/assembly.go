package workspace

import (
	"fmt"
	"sync"

	"github.com/epicenter-sh/epicenter/internal/document"
	"github.com/epicenter-sh/epicenter/internal/schema"
	"github.com/epicenter-sh/epicenter/internal/table"
)

// Assembly is the live result of assembling a set of workspace
// configurations: every client, in topological (init) order.
type Assembly struct {
	ProjectRoot string
	clients     map[string]*Client
	order       []string // topological order; teardown runs the reverse
}

// Assemble runs the four-phase pipeline in §4.5 end to end.
func Assemble(projectRoot string, configs []Config) (*Assembly, error) {
	byID, _, err := register(configs)
	if err != nil {
		return nil, err
	}
	if err := verifyDependencies(byID); err != nil {
		return nil, err
	}
	order, err := topoSort(byID)
	if err != nil {
		return nil, err
	}

	asm := &Assembly{
		ProjectRoot: projectRoot,
		clients:     make(map[string]*Client, len(byID)),
		order:       make([]string, 0, len(byID)),
	}

	for _, id := range order {
		cfg := byID[id]
		client, err := initWorkspace(projectRoot, cfg, asm.clients)
		if err != nil {
			// Fail fast: tear down everything already initialized before
			// propagating, so a mid-assembly failure never leaks documents
			// or provider resources.
			_ = asm.Teardown()
			return nil, fmt.Errorf("epicenter/workspace: initializing %q: %w", id, err)
		}
		asm.clients[id] = client
		asm.order = append(asm.order, id)
	}

	return asm, nil
}

// initWorkspace runs phase 4 steps 1-4 for one workspace.
func initWorkspace(projectRoot string, cfg Config, ready map[string]*Client) (*Client, error) {
	dir := cfg.Directory
	if dir == "" {
		dir = cfg.ID
	}
	paths := Paths{ProjectRoot: projectRoot, Workspace: projectRoot + "/" + dir}

	// Step 1-2: the document and its table layer.
	doc := document.New()
	schemas := make(map[string]*schema.Schema, len(cfg.Schemas))
	tables := make(map[string]*table.Table, len(cfg.Schemas))
	for _, s := range cfg.Schemas {
		schemas[s.TableName] = s
		tables[s.TableName] = table.New(doc, s)
	}

	depClients := make(map[string]*Client, len(cfg.Dependencies))
	for _, dep := range cfg.Dependencies {
		depClients[dep] = ready[dep]
	}

	// Step 3: initialize providers in parallel; each owns an independent
	// resource and interacts with the document only through the Table
	// Helper API, so concurrent init cannot race on shared state.
	exports, destroyers, err := initProviders(cfg, doc, schemas, tables, paths)
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:         cfg.ID,
		Document:   doc,
		Tables:     tables,
		Schemas:    schemas,
		Providers:  exports,
		destroyers: destroyers,
	}

	// Step 4: build the actions tree.
	if cfg.Actions != nil {
		client.Actions = cfg.Actions(ActionsInput{
			WorkspaceID: cfg.ID,
			Tables:      tables,
			Schemas:     schemas,
			Providers:   exports,
			Workspaces:  depClients,
			Paths:       paths,
		})
	}

	return client, nil
}

type providerInit struct {
	id      string
	exports any
	err     error
}

func initProviders(
	cfg Config,
	doc *document.Document,
	schemas map[string]*schema.Schema,
	tables map[string]*table.Table,
	paths Paths,
) (map[string]any, []Destroyer, error) {
	results := make([]providerInit, len(cfg.Providers))

	var wg sync.WaitGroup
	for i, pc := range cfg.Providers {
		wg.Add(1)
		go func(i int, pc ProviderConfig) {
			defer wg.Done()
			exports, err := pc.Provider.Init(ProviderContext{
				WorkspaceID: cfg.ID,
				ProviderID:  pc.ID,
				Document:    doc,
				Schemas:     schemas,
				Tables:      tables,
				Paths:       paths,
			})
			results[i] = providerInit{id: pc.ID, exports: exports, err: err}
		}(i, pc)
	}
	wg.Wait()

	exports := make(map[string]any, len(cfg.Providers))
	destroyers := make([]Destroyer, 0, len(cfg.Providers))
	var firstErr error
	for i, r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("provider %q: %w", r.id, r.err)
			}
			continue
		}
		exports[r.id] = r.exports
		if d, ok := cfg.Providers[i].Provider.(Destroyer); ok {
			destroyers = append(destroyers, d)
		}
	}
	if firstErr != nil {
		return nil, nil, firstErr
	}
	return exports, destroyers, nil
}

// Client returns the assembled client for a workspace id, or nil if not
// present.
func (a *Assembly) Client(id string) *Client {
	return a.clients[id]
}

// Clients returns every assembled client in topological (init) order.
func (a *Assembly) Clients() []*Client {
	out := make([]*Client, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.clients[id])
	}
	return out
}

// Teardown destroys every client's providers concurrently, then its
// document, walking workspaces in reverse topological order so a
// workspace is never torn down before its dependents. Errors are
// collected and returned together, never swallowed silently (§4.5
// "Teardown", §7).
func (a *Assembly) Teardown() error {
	var errs []error
	for i := len(a.order) - 1; i >= 0; i-- {
		client := a.clients[a.order[i]]
		if client == nil {
			continue
		}
		if err := client.destroy(); err != nil {
			errs = append(errs, fmt.Errorf("workspace %q: %w", client.ID, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("epicenter/workspace: teardown errors: %v", errs)
}

func (c *Client) destroy() error {
	var mu sync.Mutex
	var errs []error

	var wg sync.WaitGroup
	for _, d := range c.destroyers {
		wg.Add(1)
		go func(d Destroyer) {
			defer wg.Done()
			if err := d.Destroy(); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(d)
	}
	wg.Wait()

	if err := c.Document.ClearAll(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%v", errs)
}
