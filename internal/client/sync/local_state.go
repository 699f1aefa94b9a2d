package sync

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/openvault/vaultsync/internal/client/vault"
	"github.com/openvault/vaultsync/internal/utils"
)

// LocalState scans the vault into a repoPath -> metadata map. It keeps the
// previous scan around so unchanged files (same size and mtime) skip
// re-hashing; correctness still rests on hashes alone.
type LocalState struct {
	rootDir   string
	ignore    *IgnoreList
	lastState map[string]*FileMetadata // keyed by absolute path
}

func NewLocalState(rootDir string, ignore *IgnoreList) *LocalState {
	return &LocalState{
		rootDir:   rootDir,
		ignore:    ignore,
		lastState: make(map[string]*FileMetadata),
	}
}

// Scan walks the vault and returns entries keyed by repo path, i.e. the
// vault-relative path with the configured content prefix prepended. The
// vault config file and ignored paths are excluded. A single unreadable
// file is logged and skipped; it does not abort the scan.
func (s *LocalState) Scan(contentPrefix string) (map[string]*FileMetadata, error) {
	newState := make(map[string]*FileMetadata)
	cache := make(map[string]*FileMetadata)

	err := filepath.WalkDir(s.rootDir, func(absPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if absPath == s.rootDir {
				return fmt.Errorf("walk error: %w", walkErr)
			}
			slog.Warn("scan: skipping unreadable entry", "path", absPath, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(s.rootDir, absPath)
		if err != nil {
			return fmt.Errorf("walk rel path: %w", err)
		}
		relPath = utils.NormPath(relPath)

		// the vault config never syncs itself
		if relPath == vault.RepoConfigFile {
			return nil
		}
		if s.ignore.ShouldIgnore(relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			slog.Warn("scan: failed to stat file", "path", absPath, "error", err)
			return nil
		}

		var hash string
		prevMeta, exists := s.lastState[absPath]
		if exists && prevMeta.Size == info.Size() && prevMeta.ModTime.Equal(info.ModTime()) {
			hash = prevMeta.Hash
		} else {
			hash, err = HashFile(absPath)
			if err != nil {
				slog.Warn("scan: failed to hash file", "path", absPath, "error", err)
				return nil
			}
		}

		metadata := &FileMetadata{
			Path:    joinRepoPath(contentPrefix, relPath),
			Hash:    hash,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			AbsPath: absPath,
		}

		newState[metadata.Path] = metadata
		cache[absPath] = metadata
		return nil
	})

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("local scan: vault root missing: %w", err)
		}
		return nil, fmt.Errorf("local scan failed: %w", err)
	}

	s.lastState = cache
	return newState, nil
}

// joinRepoPath prepends the content prefix to a vault-relative path.
func joinRepoPath(prefix, relPath string) string {
	if prefix == "" {
		return relPath
	}
	return path.Join(prefix, relPath)
}

// trimRepoPath strips the content prefix off a repo path, recovering the
// vault-relative path.
func trimRepoPath(prefix, repoPath string) string {
	if prefix == "" {
		return repoPath
	}
	if rel, ok := hasPathPrefix(repoPath, prefix); ok {
		return rel
	}
	return repoPath
}

// hasPathPrefix reports whether repoPath sits under prefix, and returns the
// remainder. Exact segment boundaries only; "notes2/a" is not under "notes".
func hasPathPrefix(repoPath, prefix string) (string, bool) {
	if prefix == "" {
		return repoPath, true
	}
	if repoPath == prefix {
		return "", true
	}
	if len(repoPath) > len(prefix) && repoPath[:len(prefix)] == prefix && repoPath[len(prefix)] == '/' {
		return repoPath[len(prefix)+1:], true
	}
	return "", false
}
