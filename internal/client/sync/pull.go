package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/openvault/vaultsync/internal/client/vault"
	"github.com/openvault/vaultsync/internal/utils"
)

// PullExecutor applies a pull set against local storage, mirroring the
// push executor's sequential, fail-fast, partially-durable semantics.
type PullExecutor struct {
	api     RemoteAPI
	journal *SyncJournal
	vault   *vault.Vault
}

func NewPullExecutor(api RemoteAPI, journal *SyncJournal, v *vault.Vault) *PullExecutor {
	return &PullExecutor{
		api:     api,
		journal: journal,
		vault:   v,
	}
}

// Execute downloads the pull set, creating destination folders on demand
// and recording each fetched hash in the journal as it lands.
func (e *PullExecutor) Execute(ctx context.Context, cfg *vault.RepoConfig, batch BatchPull) error {
	for _, op := range sortedOps(batch) {
		if err := ctx.Err(); err != nil {
			return err
		}

		if op.Kind == KindDeletedRemote {
			if err := e.pullDelete(cfg, op); err != nil {
				return err
			}
			continue
		}

		if err := e.pullWrite(ctx, cfg, op); err != nil {
			return err
		}
	}
	return nil
}

func (e *PullExecutor) pullDelete(cfg *vault.RepoConfig, op *SyncOperation) error {
	absPath := e.vault.AbsPath(trimRepoPath(cfg.Path, op.RepoPath))
	if err := os.Remove(absPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("pull delete %s: %w", op.RepoPath, err)
	}

	if err := e.journal.Delete(op.RepoPath); err != nil {
		slog.Warn("pull: journal delete failed", "path", op.RepoPath, "error", err)
	}
	slog.Info("pull", "op", OpPull, "kind", op.Kind, "path", op.RepoPath)
	return nil
}

func (e *PullExecutor) pullWrite(ctx context.Context, cfg *vault.RepoConfig, op *SyncOperation) error {
	data, err := e.api.GetFileContent(ctx, cfg.Owner(), cfg.Name(), op.RepoPath, cfg.Branch)
	if err != nil {
		return fmt.Errorf("pull fetch %s: %w", op.RepoPath, err)
	}

	absPath := e.vault.AbsPath(trimRepoPath(cfg.Path, op.RepoPath))
	if err := utils.EnsureParent(absPath); err != nil {
		return fmt.Errorf("pull mkdir for %s: %w", op.RepoPath, err)
	}
	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return fmt.Errorf("pull write %s: %w", op.RepoPath, err)
	}

	if err := e.journal.Set(op.RepoPath, op.Remote.Hash); err != nil {
		return err
	}
	slog.Info("pull", "op", OpPull, "kind", op.Kind, "path", op.RepoPath, "size", humanize.Bytes(uint64(len(data))))
	return nil
}
