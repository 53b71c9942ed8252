package markdown

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"

	"github.com/epicenter-sh/epicenter/internal/diagnostics"
)

// Diagnostic is one entry in a bulk-sync diagnostics report (§4.6.7,
// testable property 11).
type Diagnostic struct {
	FilePath string `json:"filePath"`
	Table    string `json:"table,omitempty"`
	Message  string `json:"message"`
}

// PullResult is the outcome of PullToMarkdown.
type PullResult struct {
	FilesWritten int
	Diagnostics  []Diagnostic
}

// PushResult is the outcome of PushFromMarkdown.
type PushResult struct {
	RowsImported int
	Diagnostics  []Diagnostic
}

// Exports is what the markdown provider surfaces to the workspace's
// actions factory (§4.6.7).
type Exports struct {
	PullToMarkdown   func() PullResult
	PushFromMarkdown func() PushResult
}

func (p *Provider) exports() Exports {
	return Exports{
		PullToMarkdown:   p.pullToMarkdown,
		PushFromMarkdown: p.pushFromMarkdown,
	}
}

// syncLockPath guards concurrent bulk-sync invocations across processes
// sharing the same workspace directory (distinct from the in-process
// isProcessing flags, which guard the observer/watcher race).
func (p *Provider) syncLockPath() string {
	return filepath.Join(p.root, ".epicenter-sync.lock")
}

// pullToMarkdown removes every .md file under each table directory, tracked
// or not, then writes a fresh file
// for every valid row of every table (§4.6.7).
func (p *Provider) pullToMarkdown() PullResult {
	lock := flock.New(p.syncLockPath())
	_ = lock.Lock()
	defer lock.Unlock()

	p.mu.Lock()
	p.isProcessingYJS = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.isProcessingYJS = false
		p.mu.Unlock()
	}()

	result := PullResult{}

	for name, dir := range p.tableDirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if strings.HasSuffix(path, ".md") {
				_ = os.Remove(path)
			}
			return nil
		})
		p.filenames[name] = make(map[string]string)
	}

	for name, tbl := range p.tables {
		sch := p.schemas[name]
		dir := p.tableDirs[name]
		for _, res := range tbl.GetAllValid() {
			file, filename := p.serializerFor(name)(sch, res.Row)
			if err := p.writeFile(dir, filename, file); err != nil {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{
					FilePath: filepath.Join(dir, filename),
					Table:    name,
					Message:  err.Error(),
				})
				continue
			}
			p.filenames[name][res.ID] = filename
			result.FilesWritten++
		}
	}

	p.logger.Info("pull to markdown complete",
		"filesWritten", result.FilesWritten,
		"diagnostics", len(result.Diagnostics))
	return result
}

// pushFromMarkdown clears every table, then walks the workspace directory
// importing every .md file (§4.6.7). Each table is cleared in its own
// transaction; the clears of different tables are not one atomic step.
func (p *Provider) pushFromMarkdown() PushResult {
	lock := flock.New(p.syncLockPath())
	_ = lock.Lock()
	defer lock.Unlock()

	p.mu.Lock()
	p.isProcessingFile = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.isProcessingFile = false
		p.mu.Unlock()
	}()

	for _, tbl := range p.tables {
		_ = tbl.Clear()
	}
	for name := range p.filenames {
		p.filenames[name] = make(map[string]string)
	}

	result := PushResult{}

	for name, dir := range p.tableDirs {
		sch := p.schemas[name]
		tbl := p.tables[name]
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
				return nil
			}
			raw, rerr := os.ReadFile(path)
			if rerr != nil {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{FilePath: path, Table: name, Message: rerr.Error()})
				return nil
			}
			file, perr := Parse(raw)
			if perr != nil {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{FilePath: path, Table: name, Message: perr.Error()})
				return nil
			}
			row, derr := p.deserializerFor(name)(sch, file, filepath.Base(path))
			if derr != nil {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{FilePath: path, Table: name, Message: derr.Error()})
				return nil
			}
			if err := tbl.Upsert(row); err != nil {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{FilePath: path, Table: name, Message: err.Error()})
				return nil
			}
			id, _ := row[sch.IDColumn().Name].(string)
			p.filenames[name][id] = filepath.Base(path)
			result.RowsImported++
			return nil
		})
	}

	if err := p.writeDiagnostics(result.Diagnostics); err != nil {
		p.logger.Error("failed writing diagnostics file", "err", err)
	}

	p.logger.Info("push from markdown complete",
		"rowsImported", result.RowsImported,
		"diagnostics", humanize.Comma(int64(len(result.Diagnostics))))
	return result
}

func (p *Provider) writeDiagnostics(entries []Diagnostic) error {
	path := filepath.Join(p.projectRoot, ".epicenter", p.workspaceID+"-diagnostics.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	converted := make([]diagnostics.Entry, len(entries))
	for i, d := range entries {
		converted[i] = diagnostics.Entry{FilePath: d.FilePath, Table: d.Table, Message: d.Message}
	}
	return diagnostics.WriteReport(path, p.workspaceID, converted)
}
