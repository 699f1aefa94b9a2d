package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/openvault/vaultsync/internal/utils"
)

const (
	metadataDir = ".vaultsync"
	lockFile    = "vaultsync.lock"
	journalFile = "journal.db"
	ignoreFile  = ".vaultsyncignore"
)

var (
	ErrVaultLocked = errors.New("vault locked by another process")
)

// Vault is the local root being synchronized.
type Vault struct {
	Root        string
	MetadataDir string
	JournalPath string
	IgnorePath  string

	flock *flock.Flock
}

func New(rootDir string) (*Vault, error) {
	root, err := utils.ResolvePath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", rootDir, err)
	}

	metaDir := filepath.Join(root, metadataDir)
	lockFilePath := filepath.Join(metaDir, lockFile)

	return &Vault{
		Root:        root,
		MetadataDir: metaDir,
		JournalPath: filepath.Join(metaDir, journalFile),
		IgnorePath:  filepath.Join(root, ignoreFile),
		flock:       flock.New(lockFilePath),
	}, nil
}

// Lock takes the vault-wide file lock so two daemons cannot mutate the
// same journal.
func (v *Vault) Lock() error {
	if err := utils.EnsureDir(v.MetadataDir); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", v.MetadataDir, err)
	}

	locked, err := v.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock vault: %w", err)
	}
	if !locked {
		return ErrVaultLocked
	}

	return nil
}

func (v *Vault) Unlock() error {
	// if this process hasn't locked the vault, don't delete the lock file
	if !v.flock.Locked() {
		return nil
	}

	if err := v.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock vault: %w", err)
	}

	return os.Remove(v.flock.Path())
}

// AbsPath converts a vault-relative path to an absolute one.
func (v *Vault) AbsPath(relPath string) string {
	return filepath.Join(v.Root, filepath.FromSlash(relPath))
}

// RelPath converts an absolute path inside the vault to a normalized
// vault-relative path.
func (v *Vault) RelPath(absPath string) (string, error) {
	rel, err := filepath.Rel(v.Root, absPath)
	if err != nil {
		return "", err
	}
	return utils.NormPath(rel), nil
}
