package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	t.Run("empty path errors", func(t *testing.T) {
		_, err := ResolvePath("")
		assert.Error(t, err)
	})

	t.Run("tilde expands to home", func(t *testing.T) {
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := ResolvePath("~/vault")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "vault"), got)
	})

	t.Run("relative path becomes absolute", func(t *testing.T) {
		got, err := ResolvePath("./some/../dir")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
		assert.Equal(t, "dir", filepath.Base(got))
	})

	t.Run("absolute path is cleaned", func(t *testing.T) {
		got, err := ResolvePath("/a/b/../c/")
		require.NoError(t, err)
		assert.Equal(t, "/a/c", got)
	})
}

func TestNormPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"a/b/c", "a/b/c"},
		{"/a/b/", "a/b"},
		{"", ""},
		{"/", ""},
		{"a", "a"},
	}
	for _, tt := range cases {
		assert.Equal(t, tt.want, NormPath(tt.in), "NormPath(%q)", tt.in)
	}
}

func TestEnsureDirAndParent(t *testing.T) {
	root := t.TempDir()

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, EnsureDir(nested))
	assert.True(t, DirExists(nested))

	// idempotent
	require.NoError(t, EnsureDir(nested))

	file := filepath.Join(root, "x", "y", "f.txt")
	require.NoError(t, EnsureParent(file))
	assert.True(t, DirExists(filepath.Dir(file)))
	assert.False(t, FileExists(file))
}

func TestFileExists(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "f.txt")

	assert.False(t, FileExists(path))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.True(t, FileExists(path))

	// directories are not files
	assert.False(t, FileExists(root))
	assert.True(t, DirExists(root))
}
