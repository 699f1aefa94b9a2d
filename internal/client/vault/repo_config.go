package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openvault/vaultsync/internal/utils"
)

// RepoConfigFile is the per-vault configuration file. It is read-only to the
// sync core and excluded from scanning so it never syncs itself.
const RepoConfigFile = ".vaultsync.json"

var (
	ErrNoRepoConfig = errors.New("vault: no repo configuration")
)

// RepoConfig binds a vault to one branch of one GitHub repository.
type RepoConfig struct {
	Repo       string `json:"repo"`       // "owner/name"
	Branch     string `json:"branch"`     // defaults to the last pushed branch
	Path       string `json:"path"`       // content path prefix inside the repo
	ImagesPath string `json:"imagesPath"` // attachment path prefix inside the repo
}

func (c *RepoConfig) Validate() error {
	owner, name, ok := strings.Cut(c.Repo, "/")
	if !ok || owner == "" || name == "" {
		return fmt.Errorf("vault: invalid repo %q, want \"owner/name\"", c.Repo)
	}
	return nil
}

// Owner returns the repository owner part of Repo.
func (c *RepoConfig) Owner() string {
	owner, _, _ := strings.Cut(c.Repo, "/")
	return owner
}

// Name returns the repository name part of Repo.
func (c *RepoConfig) Name() string {
	_, name, _ := strings.Cut(c.Repo, "/")
	return name
}

// LoadRepoConfig reads the vault's repo config file. A missing file yields
// ErrNoRepoConfig; an unparsable one is treated the same after logging by
// the caller, so no remote calls happen against a half-read config.
func LoadRepoConfig(vaultRoot string) (*RepoConfig, error) {
	path := filepath.Join(vaultRoot, RepoConfigFile)
	if !utils.FileExists(path) {
		return nil, ErrNoRepoConfig
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vault: read repo config: %w", err)
	}

	var cfg RepoConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("vault: parse repo config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Path = utils.NormPath(cfg.Path)
	cfg.ImagesPath = utils.NormPath(cfg.ImagesPath)
	return &cfg, nil
}

// SaveRepoConfig writes a repo config file, used by `vaultsync init`.
func SaveRepoConfig(vaultRoot string, cfg *RepoConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(vaultRoot, RepoConfigFile), data, 0o644)
}
