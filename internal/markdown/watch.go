package markdown

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// startWatcher registers a single recursive watcher on the workspace
// directory (§4.6.6). fsnotify does not watch subtrees natively, so every
// existing directory is added explicitly and newly created directories
// are picked up as they are observed.
func (p *Provider) startWatcher() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	p.watcher = w

	err = filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	go p.watchLoop()
	return nil
}

func (p *Provider) watchLoop() {
	for {
		select {
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			p.handleEvent(ev)
		case _, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// handleEvent implements the disk -> document path (§4.6.6).
func (p *Provider) handleEvent(ev fsnotify.Event) {
	p.mu.Lock()
	if p.isProcessingYJS {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		_ = p.watcher.Add(ev.Name)
		return
	}

	if !strings.HasSuffix(ev.Name, ".md") {
		return
	}

	tableName, ok := p.tableForPath(ev.Name)
	if !ok {
		return
	}

	if _, err := os.Stat(ev.Name); os.IsNotExist(err) {
		p.handleDeletion(tableName, ev.Name)
		return
	}
	p.handleModification(tableName, ev.Name)
}

func (p *Provider) handleModification(tableName, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		p.logProviderError(tableName, "", "read failed: "+err.Error())
		return
	}
	file, err := Parse(raw)
	if err != nil {
		p.logProviderError(tableName, "", "parse failed: "+err.Error())
		return
	}

	filename := filepath.Base(path)
	sch := p.schemas[tableName]
	row, err := p.deserializerFor(tableName)(sch, file, filename)
	if err != nil {
		p.logProviderError(tableName, "", "deserialize failed: "+err.Error())
		return
	}

	p.mu.Lock()
	p.isProcessingFile = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.isProcessingFile = false
		p.mu.Unlock()
	}()

	id, _ := row[sch.IDColumn().Name].(string)
	tbl := p.tables[tableName]

	if tbl.Has(id) {
		if err := tbl.Update(row); err != nil {
			p.logProviderError(tableName, id, "update failed: "+err.Error())
			return
		}
	} else {
		if err := tbl.Upsert(row); err != nil {
			p.logProviderError(tableName, id, "upsert failed: "+err.Error())
			return
		}
	}
	p.filenames[tableName][id] = filename
}

func (p *Provider) handleDeletion(tableName, path string) {
	filename := filepath.Base(path)
	id := ""
	for rowID, fn := range p.filenames[tableName] {
		if fn == filename {
			id = rowID
			break
		}
	}
	if id == "" {
		p.logProviderError(tableName, "", "deleted file has no tracked row: "+filename)
		return
	}

	p.mu.Lock()
	p.isProcessingFile = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.isProcessingFile = false
		p.mu.Unlock()
	}()

	tbl := p.tables[tableName]
	if err := tbl.Delete(id); err != nil {
		p.logProviderError(tableName, id, "delete failed: "+err.Error())
		return
	}
	delete(p.filenames[tableName], id)
}
