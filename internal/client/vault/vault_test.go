package vault

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVault_Paths(t *testing.T) {
	root := t.TempDir()
	v, err := New(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ".vaultsync"), v.MetadataDir)
	assert.Equal(t, filepath.Join(root, ".vaultsync", "journal.db"), v.JournalPath)
	assert.Equal(t, filepath.Join(root, ".vaultsyncignore"), v.IgnorePath)
}

func TestVault_AbsRelPath(t *testing.T) {
	v, err := New(t.TempDir())
	require.NoError(t, err)

	abs := v.AbsPath("sub/a.md")
	assert.Equal(t, filepath.Join(v.Root, "sub", "a.md"), abs)

	rel, err := v.RelPath(abs)
	require.NoError(t, err)
	assert.Equal(t, "sub/a.md", rel)
}

func TestVault_Lock(t *testing.T) {
	root := t.TempDir()

	v1, err := New(root)
	require.NoError(t, err)
	require.NoError(t, v1.Lock())
	defer v1.Unlock()

	// a second process on the same vault is refused
	v2, err := New(root)
	require.NoError(t, err)
	assert.ErrorIs(t, v2.Lock(), ErrVaultLocked)

	// unlocking releases the vault for the next taker
	require.NoError(t, v1.Unlock())
	require.NoError(t, v2.Lock())
	require.NoError(t, v2.Unlock())
}

func TestVault_UnlockWithoutLockIsNoop(t *testing.T) {
	v, err := New(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, v.Unlock())
}
