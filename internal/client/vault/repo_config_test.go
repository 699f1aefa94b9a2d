package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoConfig_Validate(t *testing.T) {
	cases := []struct {
		repo string
		ok   bool
	}{
		{"octo/vault", true},
		{"octo", false},
		{"octo/", false},
		{"/vault", false},
		{"", false},
	}
	for _, tt := range cases {
		cfg := &RepoConfig{Repo: tt.repo}
		err := cfg.Validate()
		if tt.ok {
			assert.NoError(t, err, "repo %q", tt.repo)
		} else {
			assert.Error(t, err, "repo %q", tt.repo)
		}
	}
}

func TestRepoConfig_OwnerName(t *testing.T) {
	cfg := &RepoConfig{Repo: "octo/vault"}
	assert.Equal(t, "octo", cfg.Owner())
	assert.Equal(t, "vault", cfg.Name())
}

func TestLoadRepoConfig(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRepoConfig(t.TempDir())
		assert.ErrorIs(t, err, ErrNoRepoConfig)
	})

	t.Run("round trip normalizes prefixes", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, SaveRepoConfig(root, &RepoConfig{
			Repo:       "octo/vault",
			Branch:     "main",
			Path:       "/notes/",
			ImagesPath: "images/",
		}))

		cfg, err := LoadRepoConfig(root)
		require.NoError(t, err)
		assert.Equal(t, "octo/vault", cfg.Repo)
		assert.Equal(t, "main", cfg.Branch)
		assert.Equal(t, "notes", cfg.Path)
		assert.Equal(t, "images", cfg.ImagesPath)
	})

	t.Run("unparsable json", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, RepoConfigFile), []byte("{nope"), 0o644))

		_, err := LoadRepoConfig(root)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoRepoConfig)
	})

	t.Run("invalid repo", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, RepoConfigFile), []byte(`{"repo":"nope"}`), 0o644))

		_, err := LoadRepoConfig(root)
		assert.Error(t, err)
	})
}

func TestSaveRepoConfig_RejectsInvalid(t *testing.T) {
	err := SaveRepoConfig(t.TempDir(), &RepoConfig{Repo: "bad"})
	assert.Error(t, err)
}
