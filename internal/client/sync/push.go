package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/openvault/vaultsync/internal/client/vault"
	"github.com/openvault/vaultsync/internal/githubapi"
)

// PushExecutor applies a push set against the remote store. Items run
// strictly sequentially in repo-path order and the batch fails fast: the
// first error aborts the remaining items, while journal updates for items
// already applied are kept. Each write carries the previously observed
// remote hash as a precondition so mid-flight remote changes are detected.
type PushExecutor struct {
	api     RemoteAPI
	journal *SyncJournal
}

func NewPushExecutor(api RemoteAPI, journal *SyncJournal) *PushExecutor {
	return &PushExecutor{
		api:     api,
		journal: journal,
	}
}

// Execute uploads the push set. local is the scan the set was classified
// from (used to resolve embedded attachments); snapshot is the in-memory
// remote state and is updated in place as items succeed.
func (e *PushExecutor) Execute(ctx context.Context, cfg *vault.RepoConfig, batch BatchPush, local, snapshot map[string]*FileMetadata) error {
	for _, op := range sortedOps(batch) {
		if err := ctx.Err(); err != nil {
			return err
		}

		if op.Kind == KindDeleted {
			if err := e.pushDelete(ctx, cfg, op, snapshot); err != nil {
				return err
			}
			continue
		}

		data, err := e.pushWrite(ctx, cfg, op, snapshot)
		if err != nil {
			return err
		}

		if strings.HasSuffix(op.RepoPath, ".md") {
			if err := e.pushAttachments(ctx, cfg, op.RepoPath, string(data), local, snapshot); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *PushExecutor) pushDelete(ctx context.Context, cfg *vault.RepoConfig, op *SyncOperation, snapshot map[string]*FileMetadata) error {
	if op.Remote == nil {
		// nothing left to delete remotely; just drop the stale journal entry
		if err := e.journal.Delete(op.RepoPath); err != nil {
			slog.Warn("push: journal delete failed", "path", op.RepoPath, "error", err)
		}
		return nil
	}

	err := e.api.DeleteFile(ctx, cfg.Owner(), cfg.Name(), op.RepoPath, &githubapi.DeleteContentsParams{
		Message: "vaultsync: delete " + op.RepoPath,
		SHA:     op.Remote.Hash,
		Branch:  cfg.Branch,
	})
	if err != nil {
		return fmt.Errorf("push delete %s: %w", op.RepoPath, err)
	}

	if err := e.journal.Delete(op.RepoPath); err != nil {
		slog.Warn("push: journal delete failed", "path", op.RepoPath, "error", err)
	}
	delete(snapshot, op.RepoPath)
	slog.Info("push", "op", OpPush, "kind", op.Kind, "path", op.RepoPath)
	return nil
}

func (e *PushExecutor) pushWrite(ctx context.Context, cfg *vault.RepoConfig, op *SyncOperation, snapshot map[string]*FileMetadata) ([]byte, error) {
	// read current bytes, not the scan-time ones
	data, err := os.ReadFile(op.Local.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("push read %s: %w", op.RepoPath, err)
	}

	params := &githubapi.PutContentsParams{
		Message: "vaultsync: update " + op.RepoPath,
		Content: githubapi.EncodeContent(data),
		Branch:  cfg.Branch,
	}
	if op.Remote != nil {
		params.SHA = op.Remote.Hash
	}

	newHash, err := e.api.CreateOrUpdateFile(ctx, cfg.Owner(), cfg.Name(), op.RepoPath, params)
	if err != nil {
		return nil, fmt.Errorf("push write %s: %w", op.RepoPath, err)
	}

	if err := e.journal.Set(op.RepoPath, newHash); err != nil {
		return nil, err
	}
	snapshot[op.RepoPath] = &FileMetadata{
		Path: op.RepoPath,
		Hash: newHash,
		Size: int64(len(data)),
	}

	slog.Info("push", "op", OpPush, "kind", op.Kind, "path", op.RepoPath, "size", humanize.Bytes(uint64(len(data))))
	return data, nil
}

// pushAttachments uploads the embedded images a document references, under
// the configured images prefix. Each attachment is hash-compared against
// the remote snapshot and skipped when identical; uploads get their own
// journal entries. The document's referenced set is authoritative here, so
// the attachment's own classification is not consulted.
func (e *PushExecutor) pushAttachments(ctx context.Context, cfg *vault.RepoConfig, docPath, text string, local, snapshot map[string]*FileMetadata) error {
	for _, target := range ExtractEmbeds(text) {
		meta := resolveEmbed(target, cfg.Path, local)
		if meta == nil {
			slog.Debug("push: embed not found in vault", "doc", docPath, "target", target)
			continue
		}

		attachPath := joinRepoPath(cfg.ImagesPath, path.Base(meta.Path))
		if existing, ok := snapshot[attachPath]; ok && existing.Hash == meta.Hash {
			continue
		}

		data, err := os.ReadFile(meta.AbsPath)
		if err != nil {
			return fmt.Errorf("push read attachment %s: %w", attachPath, err)
		}

		params := &githubapi.PutContentsParams{
			Message: "vaultsync: update " + attachPath,
			Content: githubapi.EncodeContent(data),
			Branch:  cfg.Branch,
		}
		if existing, ok := snapshot[attachPath]; ok {
			params.SHA = existing.Hash
		}

		newHash, err := e.api.CreateOrUpdateFile(ctx, cfg.Owner(), cfg.Name(), attachPath, params)
		if err != nil {
			return fmt.Errorf("push attachment %s: %w", attachPath, err)
		}

		if err := e.journal.Set(attachPath, newHash); err != nil {
			return err
		}
		snapshot[attachPath] = &FileMetadata{
			Path: attachPath,
			Hash: newHash,
			Size: int64(len(data)),
		}
		slog.Info("push", "op", OpPush, "kind", "attachment", "doc", docPath, "path", attachPath, "size", humanize.Bytes(uint64(len(data))))
	}
	return nil
}
