package main

import (
	"fmt"

	"github.com/openvault/vaultsync/internal/client/sync"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newPushCmd())
	rootCmd.AddCommand(newPullCmd())
	rootCmd.AddCommand(newResolveCmd())
}

func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload locally changed files to the remote branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runTransfer(cmd, func(m *sync.SyncManager) error {
				return m.Push(cmd.Context())
			})
		},
	}
}

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Apply remotely changed files to the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runTransfer(cmd, func(m *sync.SyncManager) error {
				return m.Pull(cmd.Context())
			})
		},
	}
}

func newResolveCmd() *cobra.Command {
	var side string

	cmd := &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Resolve conflicted paths by keeping the local or remote copy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if side != string(sync.SideLocal) && side != string(sync.SideRemote) {
				return fmt.Errorf("invalid side %q, want local or remote", side)
			}

			return runTransfer(cmd, func(m *sync.SyncManager) error {
				// each resolution executes on its own, so resolving one
				// path never waits on the others
				for _, repoPath := range args {
					if err := m.ApplyResolution(cmd.Context(), repoPath, sync.Side(side)); err != nil {
						return err
					}
				}
				m.Refresh(cmd.Context(), &sync.RefreshRequest{FetchRemote: true, Reason: "post-resolve"})
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&side, "side", "s", "", "winning side: local or remote")
	cmd.MarkFlagRequired("side")
	return cmd
}

// runTransfer runs a fresh reconciliation pass, then hands the manager to
// the command body.
func runTransfer(cmd *cobra.Command, fn func(m *sync.SyncManager) error) error {
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

	m.Refresh(cmd.Context(), &sync.RefreshRequest{FetchRemote: true, Reason: cmd.Name()})
	if err := fn(m); err != nil {
		return err
	}
	return printStatus(cmd, m.Status())
}
