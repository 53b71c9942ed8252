package markdown

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/epicenter-sh/epicenter/internal/document"
	"github.com/epicenter-sh/epicenter/internal/schema"
	"github.com/epicenter-sh/epicenter/internal/table"
	"github.com/epicenter-sh/epicenter/internal/workspace"
)

// mustProvider wires up a real Provider against a tempdir workspace root: a
// real document/table pair and a real fsnotify watcher, matching how
// workspace.Assemble drives a provider in production.
func mustProvider(t *testing.T) (*Provider, *table.Table, string) {
	t.Helper()
	s := mustSchema(t)
	doc := document.New()
	tbl := table.New(doc, s)

	root := t.TempDir()
	p := New(Config{})
	_, err := p.Init(workspace.ProviderContext{
		WorkspaceID: "w1",
		Schemas:     map[string]*schema.Schema{"posts": s},
		Tables:      map[string]*table.Table{"posts": tbl},
		Paths:       workspace.Paths{ProjectRoot: root, Workspace: root},
	})
	require.NoError(t, err)
	t.Cleanup(func() { p.Destroy() })
	return p, tbl, filepath.Join(root, "posts")
}

// waitFor polls cond until it returns true or the deadline passes, giving
// the asynchronous fsnotify watcher time to deliver and process an event.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition not met before deadline")
	}
}

// TestObserverWriteDoesNotLoopBackThroughWatcher covers testable property 7:
// a document write reflected to disk must not be re-imported by the
// watcher as a second, redundant update.
func TestObserverWriteDoesNotLoopBackThroughWatcher(t *testing.T) {
	_, tbl, dir := mustProvider(t)

	require.NoError(t, tbl.Upsert(schema.Row{"id": "a", "title": "Hi", "tags": []string{"x"}}))

	path := filepath.Join(dir, "a.md")
	waitFor(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	})

	var updates int
	unsub := tbl.Observe(document.Observer{
		OnUpdate: func(res schema.ValidationResult) { updates++ },
	})
	defer unsub()

	// Give the watcher a window in which a loop, if one existed, would have
	// fired: reflectRow already wrote the file under isProcessingYJS, so a
	// watcher event for that same write must be suppressed rather than
	// turning into a spurious onUpdate.
	time.Sleep(200 * time.Millisecond)

	require.Equal(t, 0, updates, "document write triggered a redundant re-import via the watcher")
}

// TestExternalEditDoesNotRewriteFile covers testable property 7's other
// direction: a filesystem-driven update must not be reflected back to disk
// (scenario S2).
func TestExternalEditDoesNotRewriteFile(t *testing.T) {
	_, tbl, dir := mustProvider(t)

	require.NoError(t, tbl.Upsert(schema.Row{"id": "a", "title": "Hello", "tags": []string{"x"}}))
	path := filepath.Join(dir, "a.md")
	waitFor(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	})

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	file, err := Parse(raw)
	require.NoError(t, err)
	file.Frontmatter["title"] = "Hi"
	out, err := Render(file)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, out, 0o644))

	waitFor(t, func() bool {
		res := tbl.Get("a")
		return res.Status == table.StatusValid && res.Row["title"] == "Hi"
	})

	// Give the provider a window in which a loop, if one existed, would
	// have rewritten the file in response to its own onUpdate.
	time.Sleep(200 * time.Millisecond)

	raw2, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, out, raw2, "provider rewrote the externally-edited file instead of suppressing the loop")
}

// TestAtomicRenameWriteIsTreatedAsModification covers testable property 8:
// an unlink+rename onto the same path must be recognized as a modification,
// not a delete followed by a recreate, since the file exists again by the
// time the watcher's handler checks.
func TestAtomicRenameWriteIsTreatedAsModification(t *testing.T) {
	_, tbl, dir := mustProvider(t)

	require.NoError(t, tbl.Upsert(schema.Row{"id": "a", "title": "Hello", "tags": []string{"x"}}))
	path := filepath.Join(dir, "a.md")
	waitFor(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	})

	var deletes int
	unsub := tbl.Observe(document.Observer{
		OnDelete: func(id string) { deletes++ },
	})
	defer unsub()

	file, _ := DefaultSerialize(mustSchema(t), schema.Row{"id": "a", "title": "Hi", "tags": []string{"x"}})
	out, err := Render(file)
	require.NoError(t, err)

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, out, 0o644))
	require.NoError(t, os.Rename(tmp, path))

	waitFor(t, func() bool {
		res := tbl.Get("a")
		return res.Status == table.StatusValid && res.Row["title"] == "Hi"
	})

	require.Equal(t, 0, deletes, "atomic-rename write was treated as a delete instead of a modification")
	require.True(t, tbl.Has("a"), "row must remain after an atomic-rename write")
}

// TestFilesystemDeleteRemovesRow covers scenario S3: deleting the tracked
// file on disk deletes the row via the filename-tracking map.
func TestFilesystemDeleteRemovesRow(t *testing.T) {
	_, tbl, dir := mustProvider(t)

	require.NoError(t, tbl.Upsert(schema.Row{"id": "a", "title": "Hello", "tags": []string{"x"}}))
	path := filepath.Join(dir, "a.md")
	waitFor(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	})

	require.NoError(t, os.Remove(path))

	waitFor(t, func() bool { return !tbl.Has("a") })
}

