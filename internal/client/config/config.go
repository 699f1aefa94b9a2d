package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/openvault/vaultsync/internal/utils"
)

var (
	home, _            = os.UserHomeDir()
	DefaultConfigPath  = filepath.Join(home, ".vaultsync", "config.json")
	DefaultLogFilePath = filepath.Join(home, ".vaultsync", "logs", "vaultsync.log")
)

// Config is the daemon-level configuration. LastBranch is the persisted
// default branch, rewritten after every completed push.
type Config struct {
	VaultDir    string `json:"vault_dir"`
	GithubToken string `json:"github_token"`
	LastBranch  string `json:"last_branch"`
	Path        string `json:"-"`
}

func (c *Config) Validate() error {
	if c.VaultDir == "" {
		return errors.New("config: vault dir is required")
	}
	return nil
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Path = path
	return &cfg, nil
}
