package sync

import (
	"context"
	"fmt"

	"github.com/openvault/vaultsync/internal/client/vault"
	"github.com/openvault/vaultsync/internal/githubapi"
)

// RemoteAPI is the transport surface the sync core needs from the remote
// store. *githubapi.RepoAPI satisfies it; tests use a fake.
type RemoteAPI interface {
	GetBranchTip(ctx context.Context, owner, repo, branch string) (string, error)
	GetTree(ctx context.Context, owner, repo, commitSHA string) ([]githubapi.TreeEntry, error)
	GetFileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
	CreateOrUpdateFile(ctx context.Context, owner, repo, path string, params *githubapi.PutContentsParams) (string, error)
	DeleteFile(ctx context.Context, owner, repo, path string, params *githubapi.DeleteContentsParams) error
}

// RemoteState fetches point-in-time snapshots of a branch tip as a flat
// repoPath -> metadata map. A snapshot is only valid for the reconcile pass
// that requested it.
type RemoteState struct {
	api RemoteAPI
}

func NewRemoteState(api RemoteAPI) *RemoteState {
	return &RemoteState{api: api}
}

// Fetch resolves the branch tip and lists every blob reachable from it,
// keeping only paths under the configured content or images prefix.
func (r *RemoteState) Fetch(ctx context.Context, cfg *vault.RepoConfig) (map[string]*FileMetadata, error) {
	tip, err := r.api.GetBranchTip(ctx, cfg.Owner(), cfg.Name(), cfg.Branch)
	if err != nil {
		return nil, fmt.Errorf("get branch tip: %w", err)
	}

	entries, err := r.api.GetTree(ctx, cfg.Owner(), cfg.Name(), tip)
	if err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}

	snapshot := make(map[string]*FileMetadata)
	for _, entry := range entries {
		if entry.Type != "blob" {
			continue
		}
		if !underPrefix(entry.Path, cfg.Path) && !underPrefix(entry.Path, cfg.ImagesPath) {
			continue
		}
		snapshot[entry.Path] = &FileMetadata{
			Path: entry.Path,
			Hash: entry.SHA,
			Size: entry.Size,
		}
	}

	return snapshot, nil
}

func underPrefix(repoPath, prefix string) bool {
	_, ok := hasPathPrefix(repoPath, prefix)
	return ok
}
