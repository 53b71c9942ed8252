// Package diagnostics provides the ambient logging and structured
// diagnostics-file conventions shared by every provider: one prefixed
// charmbracelet/log logger per workspace/provider pair, and one JSON
// diagnostics file format (§4.6.7).
package diagnostics

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// NewLogger builds a structured logger prefixed with "<provider>[<workspaceId>]",
// matching the prefix convention every provider uses for its own log lines.
func NewLogger(provider, workspaceID string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: fmt.Sprintf("%s[%s]", provider, workspaceID),
	})
}

// Entry is one structured diagnostic record: a failed row, an unparsable
// file, a dropped write. Providers populate FilePath/Table as relevant.
type Entry struct {
	FilePath string `json:"filePath,omitempty"`
	Table    string `json:"table,omitempty"`
	Message  string `json:"message"`
}

// Report is the on-disk shape of a bulk-operation diagnostics file.
type Report struct {
	WorkspaceID string    `json:"workspaceId"`
	Timestamp   time.Time `json:"timestamp"`
	Entries     []Entry   `json:"entries"`
}

// WriteReport writes entries to path as an indented JSON report, creating
// or overwriting the file (§4.6.7 "written ... with a timestamp").
func WriteReport(path, workspaceID string, entries []Entry) error {
	report := Report{WorkspaceID: workspaceID, Timestamp: time.Now(), Entries: entries}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("epicenter/diagnostics: marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("epicenter/diagnostics: write report %q: %w", path, err)
	}
	return nil
}
