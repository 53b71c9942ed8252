package markdown

import (
	"os"
	"path/filepath"

	"github.com/epicenter-sh/epicenter/internal/document"
	"github.com/epicenter-sh/epicenter/internal/schema"
	"github.com/epicenter-sh/epicenter/internal/table"
)

// observeTable wires the document -> disk path for one table (§4.6.5).
func (p *Provider) observeTable(name string, tbl *table.Table) (unsubscribe func()) {
	return tbl.Observe(document.Observer{
		OnAdd:    func(res schema.ValidationResult) { p.reflectRow(name, res) },
		OnUpdate: func(res schema.ValidationResult) { p.reflectRow(name, res) },
		OnDelete: func(id string) { p.reflectDelete(name, id) },
	})
}

// reflectRow writes (or rewrites) the file for one valid row. Invalid
// rows are not mirrored; they produce a structured log record instead
// (§4.6.5).
func (p *Provider) reflectRow(tableName string, res schema.ValidationResult) {
	p.mu.Lock()
	if p.isProcessingFile {
		p.mu.Unlock()
		return
	}
	p.isProcessingYJS = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.isProcessingYJS = false
		p.mu.Unlock()
	}()

	if res.Status != schema.StatusValid {
		p.logProviderError(tableName, res.Field, string(res.Reason)+": "+res.Detail)
		return
	}

	sch := p.schemas[tableName]
	id, _ := res.Row[sch.IDColumn().Name].(string)

	file, filename := p.serializerFor(tableName)(sch, res.Row)
	dir := p.tableDirs[tableName]

	if prev, ok := p.filenames[tableName][id]; ok && prev != filename {
		_ = os.Remove(filepath.Join(dir, prev))
	}

	if err := p.writeFile(dir, filename, file); err != nil {
		p.logProviderError(tableName, id, "write failed: "+err.Error())
		return
	}
	p.filenames[tableName][id] = filename
}

// reflectDelete removes the file for a deleted row, looked up through
// the filename-tracking map (§4.6.5 step 2).
func (p *Provider) reflectDelete(tableName, id string) {
	p.mu.Lock()
	if p.isProcessingFile {
		p.mu.Unlock()
		return
	}
	p.isProcessingYJS = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.isProcessingYJS = false
		p.mu.Unlock()
	}()

	filename, ok := p.filenames[tableName][id]
	if !ok {
		return
	}
	_ = os.Remove(filepath.Join(p.tableDirs[tableName], filename))
	delete(p.filenames[tableName], id)
}

// writeFile renders the file and writes it via a temporary file + rename
// to avoid exposing half-written frontmatter to the watcher (§4.6.5).
func (p *Provider) writeFile(dir, filename string, file File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	raw, err := Render(file)
	if err != nil {
		return err
	}
	final := filepath.Join(dir, filename)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}
