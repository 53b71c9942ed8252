package shell

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"

	"github.com/epicenter-sh/epicenter/internal/action"
	"github.com/epicenter-sh/epicenter/internal/markdown"
	"github.com/epicenter-sh/epicenter/internal/workspace"
)

// HistoryEntry records one invocation for the /history command.
type HistoryEntry struct {
	At     time.Time
	Raw    string
	Result string
	Err    error
}

// Console is the interactive action console: a readline loop over an
// assembled set of workspaces, repurposing the teacher's chat loop for
// action invocation and provider diagnostics instead of LLM conversation.
type Console struct {
	assembly *workspace.Assembly
	actions  []action.LeafAction

	rl *readline.Instance

	mu      sync.Mutex
	history []HistoryEntry
}

// New builds a console bound to an already-assembled set of workspaces.
func New(assembly *workspace.Assembly, historyPath string) (*Console, error) {
	if historyPath == "" {
		historyPath = filepath.Join(assembly.ProjectRoot, ".epicenter", "shell_history")
	}
	if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
		return nil, fmt.Errorf("epicenter/shell: create history dir: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36mepicenter>\033[0m ",
		HistoryFile:     historyPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "/exit",
	})
	if err != nil {
		return nil, fmt.Errorf("epicenter/shell: readline: %w", err)
	}

	return &Console{
		assembly: assembly,
		actions:  workspace.AllActions(assembly.Clients()),
		rl:       rl,
	}, nil
}

// Run starts the console's read-eval-print loop until /exit, EOF, or a
// terminating signal.
func (c *Console) Run() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			c.rl.Close()
		case <-done:
		}
	}()
	defer close(done)

	fmt.Fprintln(c.rl.Stdout(), "epicenter shell — /help for commands, /exit to quit")

	for {
		line, err := c.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("epicenter/shell: readline: %w", err)
		}

		intent := Parse(line)
		if intent == nil {
			continue
		}
		if c.dispatch(intent) {
			return nil
		}
	}
}

// dispatch handles one parsed intent, returning true when the console
// should exit.
func (c *Console) dispatch(intent *Intent) bool {
	out := c.rl.Stdout()
	switch intent.Command {
	case CommandExit:
		return true
	case CommandHelp:
		c.printHelp(out)
	case CommandActions:
		c.printActions(out)
	case CommandHistory:
		c.printHistory(out)
	case CommandDiagnostics:
		c.printDiagnostics(out, intent.Args)
	case CommandPull:
		c.runPull(out, intent.Args)
	case CommandPush:
		c.runPush(out, intent.Args)
	case CommandInvoke:
		c.runInvoke(out, intent)
	default:
		fmt.Fprintf(out, "unknown command: %s (try /help)\n", intent.Raw)
	}
	return false
}

func (c *Console) printHelp(out io.Writer) {
	fmt.Fprint(out, `commands:
  /actions                list every action in assembly order
  /invoke <ws.path>       invoke one action by dotted path, with no input
  /history                show past invocations this session
  /diagnostics <workspace> show the last bulk-sync diagnostics file
  /pull <workspace>       rebuild a workspace's markdown tree from the document
  /push <workspace>       rebuild a workspace's document from its markdown tree
  /help                   show this message
  /exit                   leave the console
`)
}

func (c *Console) printActions(out io.Writer) {
	for _, a := range c.actions {
		fmt.Fprintf(out, "  %s.%s  (%s) %s\n", a.WorkspaceID, strings.Join(a.ActionPath, "."), a.Action.Kind, a.Action.Description)
	}
}

func (c *Console) printHistory(out io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range c.history {
		status := "ok"
		if h.Err != nil {
			status = "error: " + h.Err.Error()
		}
		fmt.Fprintf(out, "  [%s] %s -> %s\n", h.At.Format(time.RFC3339), h.Raw, status)
	}
}

func (c *Console) record(raw, result string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, HistoryEntry{At: time.Now(), Raw: raw, Result: result, Err: err})
}

func (c *Console) runPull(out io.Writer, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(out, "usage: /pull <workspace>")
		return
	}
	exports, ok := c.markdownExports(args[0])
	if !ok {
		fmt.Fprintf(out, "workspace %q has no markdown provider\n", args[0])
		return
	}
	res := exports.PullToMarkdown()
	fmt.Fprintf(out, "pulled %s files, %d diagnostics\n", humanize.Comma(int64(res.FilesWritten)), len(res.Diagnostics))
	c.record("/pull "+args[0], fmt.Sprintf("%d files", res.FilesWritten), nil)
}

func (c *Console) runPush(out io.Writer, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(out, "usage: /push <workspace>")
		return
	}
	exports, ok := c.markdownExports(args[0])
	if !ok {
		fmt.Fprintf(out, "workspace %q has no markdown provider\n", args[0])
		return
	}
	res := exports.PushFromMarkdown()
	fmt.Fprintf(out, "imported %s rows, %d diagnostics\n", humanize.Comma(int64(res.RowsImported)), len(res.Diagnostics))
	c.record("/push "+args[0], fmt.Sprintf("%d rows", res.RowsImported), nil)
}

func (c *Console) markdownExports(workspaceID string) (markdown.Exports, bool) {
	client := c.assembly.Client(workspaceID)
	if client == nil {
		return markdown.Exports{}, false
	}
	for _, exp := range client.Providers {
		if me, ok := exp.(markdown.Exports); ok {
			return me, true
		}
	}
	return markdown.Exports{}, false
}

func (c *Console) printDiagnostics(out io.Writer, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(out, "usage: /diagnostics <workspace>")
		return
	}
	path := workspace.Paths{ProjectRoot: c.assembly.ProjectRoot}.Diagnostics(args[0])
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "no diagnostics file at %s: %v\n", path, err)
		return
	}
	fmt.Fprintln(out, string(data))
}

func (c *Console) runInvoke(out io.Writer, intent *Intent) {
	if len(intent.Args) == 0 {
		fmt.Fprintln(out, "usage: <workspace>.<action.path>")
		return
	}
	path := intent.Args[0]
	for _, a := range c.actions {
		full := a.WorkspaceID + "." + strings.Join(a.ActionPath, ".")
		if full != path {
			continue
		}
		result := a.Action.Invoke(nil)
		if data, ok := result.Data(); ok {
			fmt.Fprintf(out, "%v\n", data)
			c.record(intent.Raw, fmt.Sprintf("%v", data), nil)
		} else {
			fmt.Fprintf(out, "error: %s\n", result.Error().Error())
			c.record(intent.Raw, "", result.Error())
		}
		return
	}
	fmt.Fprintf(out, "no such action: %s\n", path)
}
