package main

import (
	"fmt"

	"github.com/openvault/vaultsync/internal/client/vault"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(newInitCmd())
}

func newInitCmd() *cobra.Command {
	var (
		repo       string
		branch     string
		path       string
		imagesPath string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a repo config file into the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			vaultDir := viper.GetString("vault_dir")
			v, err := vault.New(vaultDir)
			if err != nil {
				return err
			}

			cfg := &vault.RepoConfig{
				Repo:       repo,
				Branch:     branch,
				Path:       path,
				ImagesPath: imagesPath,
			}
			if err := vault.SaveRepoConfig(v.Root, cfg); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), green("wrote"), cyan(vault.RepoConfigFile), "in", v.Root)
			return nil
		},
	}

	cmd.Flags().StringVarP(&repo, "repo", "r", "", "GitHub repository as owner/name")
	cmd.Flags().StringVarP(&branch, "branch", "b", "main", "branch to sync against")
	cmd.Flags().StringVarP(&path, "path", "p", "", "content path prefix inside the repo")
	cmd.Flags().StringVarP(&imagesPath, "images-path", "i", "images", "attachment path prefix inside the repo")
	cmd.MarkFlagRequired("repo")
	return cmd
}
