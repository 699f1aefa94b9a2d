package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/openvault/vaultsync/internal/client"
	"github.com/openvault/vaultsync/internal/client/sync"
	"github.com/spf13/cobra"
)

var (
	red    = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
	cyan   = color.New(color.FgHiCyan).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Run one reconciliation pass and print the change set",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			c, err := oneShotClient()
			if err != nil {
				return err
			}
			defer c.Unlock()

			m := c.Sync()
			if err := m.Open(); err != nil {
				return err
			}
			defer m.Stop()

			m.Refresh(cmd.Context(), &sync.RefreshRequest{FetchRemote: true, Reason: "status"})
			return printStatus(cmd, m.Status())
		},
	}
}

// oneShotClient builds a client for single-pass commands and takes the
// vault lock.
func oneShotClient() (*client.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}
	c, err := client.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Lock(); err != nil {
		return nil, err
	}
	return c, nil
}

func printStatus(cmd *cobra.Command, status *sync.Status) error {
	out := cmd.OutOrStdout()

	if status.Config == nil {
		fmt.Fprintln(out, yellow("no configuration"), "- create", cyan(".vaultsync.json"), "in the vault root")
		return nil
	}

	fmt.Fprintf(out, "repo %s branch %s\n", cyan(status.Config.Repo), cyan(status.Config.Branch))
	if status.RemoteErr != nil {
		fmt.Fprintln(out, red("remote unreachable:"), status.RemoteErr)
	}
	if status.Changes == nil {
		return nil
	}

	printBatch(cmd, green("push"), toOps(status.Changes.Push))
	printBatch(cmd, cyan("pull"), toOps(status.Changes.Pull))
	printBatch(cmd, red("conflict"), toOps(status.Changes.Conflicts))
	fmt.Fprintf(out, "%d unchanged\n", len(status.Changes.Unchanged))
	return nil
}

func toOps(batch map[string]*sync.SyncOperation) []*sync.SyncOperation {
	ops := make([]*sync.SyncOperation, 0, len(batch))
	for _, op := range batch {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].RepoPath < ops[j].RepoPath })
	return ops
}

func printBatch(cmd *cobra.Command, label string, ops []*sync.SyncOperation) {
	out := cmd.OutOrStdout()
	for _, op := range ops {
		if op.Kind != "" {
			fmt.Fprintf(out, "%s  %s (%s)\n", label, op.RepoPath, op.Kind)
		} else {
			fmt.Fprintf(out, "%s  %s\n", label, op.RepoPath)
		}
	}
}
