// Epicenter - collaborative workspace engine
// A CLI host for assembling workspaces, running the interactive action
// console, and driving markdown bulk sync.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/epicenter-sh/epicenter/internal/gitsync"
	"github.com/epicenter-sh/epicenter/internal/markdown"
	"github.com/epicenter-sh/epicenter/internal/shell"
	"github.com/epicenter-sh/epicenter/internal/workspace"
)

const version = "0.1.0"

func main() {
	var projectRoot string

	root := &cobra.Command{
		Use:     "epicenter",
		Short:   "Collaborative workspace engine",
		Version: version,
	}
	root.PersistentFlags().StringVar(&projectRoot, "project", ".", "project root directory")

	root.AddCommand(serveCmd(&projectRoot))
	root.AddCommand(shellCmd(&projectRoot))
	root.AddCommand(pullCmd(&projectRoot))
	root.AddCommand(pushCmd(&projectRoot))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd(projectRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Assemble the configured workspaces and block until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, err := workspace.Assemble(*projectRoot, defaultConfigs())
			if err != nil {
				return err
			}
			defer asm.Teardown()

			fmt.Fprintf(cmd.OutOrStdout(), "epicenter: assembled %d workspace(s), serving\n", len(asm.Clients()))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			return nil
		},
	}
}

func shellCmd(projectRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive action console",
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, err := workspace.Assemble(*projectRoot, defaultConfigs())
			if err != nil {
				return err
			}
			defer asm.Teardown()

			console, err := shell.New(asm, "")
			if err != nil {
				return err
			}
			return console.Run()
		},
	}
}

func pullCmd(projectRoot *string) *cobra.Command {
	var commit bool
	cmd := &cobra.Command{
		Use:   "pull <workspace>",
		Short: "Rebuild a workspace's markdown tree from its document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, err := workspace.Assemble(*projectRoot, defaultConfigs())
			if err != nil {
				return err
			}
			defer asm.Teardown()

			exports, ok := markdownExports(asm, args[0])
			if !ok {
				return fmt.Errorf("workspace %q has no markdown provider", args[0])
			}
			res := exports.PullToMarkdown()
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d file(s), %d diagnostic(s)\n", res.FilesWritten, len(res.Diagnostics))

			if commit && res.FilesWritten > 0 {
				git := gitsync.NewManager(*projectRoot)
				hash, err := git.AutoCommit(args[0], []string{args[0]}, fmt.Sprintf("epicenter: pull %s", args[0]))
				if err != nil {
					return fmt.Errorf("auto-commit: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "committed %s\n", hash)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&commit, "commit", false, "auto-commit the changed markdown files after pull")
	return cmd
}

func pushCmd(projectRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "push <workspace>",
		Short: "Rebuild a workspace's document from its markdown tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, err := workspace.Assemble(*projectRoot, defaultConfigs())
			if err != nil {
				return err
			}
			defer asm.Teardown()

			exports, ok := markdownExports(asm, args[0])
			if !ok {
				return fmt.Errorf("workspace %q has no markdown provider", args[0])
			}
			res := exports.PushFromMarkdown()
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d row(s), %d diagnostic(s)\n", res.RowsImported, len(res.Diagnostics))
			return nil
		},
	}
}

func markdownExports(asm *workspace.Assembly, workspaceID string) (markdown.Exports, bool) {
	client := asm.Client(workspaceID)
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
