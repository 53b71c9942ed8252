// Package shell provides the interactive action console: a readline loop
// that parses slash commands and invokes workspace actions or provider
// diagnostics, in place of the teacher's LLM chat loop.
package shell

import "strings"

// Command is the closed set of slash commands the console recognizes.
type Command string

const (
	CommandActions     Command = "actions"
	CommandHistory     Command = "history"
	CommandDiagnostics Command = "diagnostics"
	CommandPull        Command = "pull"
	CommandPush        Command = "push"
	CommandHelp        Command = "help"
	CommandExit        Command = "exit"
	CommandInvoke      Command = "invoke"
	CommandUnknown     Command = ""
)

// Intent is a parsed console line.
type Intent struct {
	Command Command
	Args    []string
	Raw     string
}

// Parse splits one line of console input into an Intent. Non-slash input
// is treated as a shorthand invoke of a dotted action path.
func Parse(line string) *Intent {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if strings.HasPrefix(line, "/") {
		fields := strings.Fields(line)
		name := strings.TrimPrefix(fields[0], "/")
		return &Intent{Command: commandFor(name), Args: fields[1:], Raw: line}
	}

	return &Intent{Command: CommandInvoke, Args: strings.Fields(line), Raw: line}
}

func commandFor(name string) Command {
	switch Command(name) {
	case CommandActions, CommandInvoke, CommandHistory, CommandDiagnostics, CommandPull, CommandPush, CommandHelp, CommandExit:
		return Command(name)
	case "quit":
		return CommandExit
	default:
		return CommandUnknown
	}
}
