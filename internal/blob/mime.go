package blob

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// extensionTable is the explicit extension -> MIME mapping (§4.7),
// including aliases for known browser/OS quirks.
var extensionTable = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"pdf":  "application/pdf",
	"txt":  "text/plain",
	"md":   "text/markdown",
	"json": "application/json",
	"csv":  "text/csv",
	"mp4":  "video/mp4",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"wave": "audio/wav", // browser quirk: audio/wave -> wav
	"zip":  "application/zip",
}

// MIMEForFilename infers a MIME type from a filename's extension.
// Unknown extensions map to application/octet-stream (§4.7).
func MIMEForFilename(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if mt, ok := extensionTable[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// MIMEForContent falls back to content sniffing via mimetype when the
// filename extension is absent or not in the explicit table, useful for
// blobs uploaded without a reliable client-supplied extension.
func MIMEForContent(data []byte) string {
	return mimetype.Detect(data).String()
}
