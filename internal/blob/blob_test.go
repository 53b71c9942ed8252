package blob

import (
	"path/filepath"
	"testing"
)

func TestValidateFilenameAcceptsOrdinaryName(t *testing.T) {
	if err := ValidateFilename("photo.png"); err != nil {
		t.Fatalf("expected valid filename, got %v", err)
	}
}

func TestValidateFilenameRejectsTraversal(t *testing.T) {
	if err := ValidateFilename("../escape.txt"); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}

func TestValidateFilenameRejectsMissingExtension(t *testing.T) {
	if err := ValidateFilename("no-ext"); err == nil {
		t.Fatal("expected missing extension to be rejected")
	}
}

func TestValidateFilenameRejectsLeadingDot(t *testing.T) {
	if err := ValidateFilename(".hidden"); err == nil {
		t.Fatal("expected leading-dot filename to be rejected")
	}
}

func TestValidateFilenameRejectsPathSeparator(t *testing.T) {
	if err := ValidateFilename("a/b.png"); err == nil {
		t.Fatal("expected embedded path separator to be rejected")
	}
}

func TestMIMEForFilenameKnownAndUnknownExtensions(t *testing.T) {
	if got := MIMEForFilename("photo.PNG"); got != "image/png" {
		t.Fatalf("MIMEForFilename(photo.PNG) = %q, want image/png", got)
	}
	if got := MIMEForFilename("data.bin"); got != "application/octet-stream" {
		t.Fatalf("MIMEForFilename(data.bin) = %q, want application/octet-stream", got)
	}
}

func TestFileStorePutGetDeleteExists(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := store.Put("note.txt", []byte("hello")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ok, err := store.Exists("note.txt")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v, want true, nil", ok, err)
	}

	data, found, err := store.Get("note.txt")
	if err != nil || !found || string(data) != "hello" {
		t.Fatalf("Get = %q, %v, %v, want hello, true, nil", data, found, err)
	}

	if err := store.Delete("note.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_, found, err = store.Get("note.txt")
	if err != nil || found {
		t.Fatalf("Get after delete = found %v, err %v, want false, nil", found, err)
	}
}

func TestFileStoreGetMissingReturnsNotFoundNotError(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	_, found, err := store.Get("missing.txt")
	if err != nil || found {
		t.Fatalf("Get(missing) = found %v, err %v, want false, nil", found, err)
	}
}

func TestFileStorePutRejectsInvalidFilename(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := store.Put("../escape.txt", []byte("x")); err == nil {
		t.Fatal("expected Put to reject a traversal filename")
	}
}

func TestFileStoreList(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	for _, name := range []string{"a.png", "b.png", "c.txt"} {
		if err := store.Put(name, []byte("x")); err != nil {
			t.Fatalf("Put(%s) failed: %v", name, err)
		}
	}
	matches, err := store.List("*.png")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("List returned %d matches, want 2: %v", len(matches), matches)
	}
}

func TestFileStorePathStaysWithinRoot(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	got := store.path("a.png")
	want := filepath.Join(dir, "a.png")
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}
