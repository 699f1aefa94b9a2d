package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openvault/vaultsync/internal/client/config"
	"github.com/openvault/vaultsync/internal/client/sync"
	"github.com/openvault/vaultsync/internal/client/vault"
	"github.com/openvault/vaultsync/internal/githubapi"
	"golang.org/x/sync/errgroup"
)

// Client ties one vault to the GitHub remote and runs the sync manager.
type Client struct {
	config *config.Config
	vault  *vault.Vault
	github *githubapi.Client
	sync   *sync.SyncManager
}

func New(cfg *config.Config) (*Client, error) {
	v, err := vault.New(cfg.VaultDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}

	github := githubapi.New(cfg.GithubToken)

	manager := sync.NewSyncManager(v, github.Repo)
	manager.SetDefaultBranch(cfg.LastBranch)
	manager.OnBranchPushed(func(branch string) {
		cfg.LastBranch = branch
		if cfg.Path == "" {
			return
		}
		if err := cfg.Save(cfg.Path); err != nil {
			slog.Error("failed to persist last branch", "error", err)
		}
	})

	return &Client{
		config: cfg,
		vault:  v,
		github: github,
		sync:   manager,
	}, nil
}

// Sync exposes the sync manager for one-shot commands.
func (c *Client) Sync() *sync.SyncManager {
	return c.sync
}

// Lock takes the vault lock. Callers must Unlock.
func (c *Client) Lock() error {
	return c.vault.Lock()
}

func (c *Client) Unlock() error {
	return c.vault.Unlock()
}

// Start runs the daemon until the context is cancelled.
func (c *Client) Start(ctx context.Context) error {
	slog.Info("vaultsync client start", "vault", c.config.VaultDir)

	if err := c.vault.Lock(); err != nil {
		return err
	}
	defer c.vault.Unlock()

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := c.sync.Start(egCtx); err != nil {
			return fmt.Errorf("failed to start sync manager: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("received interrupt signal, stopping client")

		stopCh := make(chan error, 1)
		go func() { stopCh <- c.sync.Stop() }()
		select {
		case err := <-stopCh:
			return err
		case <-time.After(10 * time.Second):
			return errors.New("timed out stopping sync manager")
		}
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("client failure", "error", err)
		return err
	}

	slog.Info("vaultsync client stop")
	return nil
}
