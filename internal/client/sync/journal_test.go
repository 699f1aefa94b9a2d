package sync

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *SyncJournal {
	t.Helper()
	j := NewSyncJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, j.Open())
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSyncJournal_SetGet(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Set("notes/a.md", "h1"))

	hash, err := j.Get("notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "h1", hash)

	// unknown paths read as empty, not as an error
	hash, err = j.Get("notes/missing.md")
	require.NoError(t, err)
	assert.Equal(t, "", hash)
}

func TestSyncJournal_SetOverwrites(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Set("notes/a.md", "h1"))
	require.NoError(t, j.Set("notes/a.md", "h2"))

	hash, err := j.Get("notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "h2", hash)

	count, err := j.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSyncJournal_SetValidation(t *testing.T) {
	j := openTestJournal(t)

	assert.Error(t, j.Set("", "h1"))
	assert.Error(t, j.Set("notes/a.md", ""))
}

func TestSyncJournal_GetState(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Set("notes/a.md", "h1"))
	require.NoError(t, j.Set("notes/b.md", "h2"))

	state, err := j.GetState()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"notes/a.md": "h1",
		"notes/b.md": "h2",
	}, state)
}

func TestSyncJournal_Delete(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Set("notes/a.md", "h1"))
	require.NoError(t, j.Delete("notes/a.md"))

	hash, err := j.Get("notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "", hash)

	// deleting an absent path is a no-op
	assert.NoError(t, j.Delete("notes/a.md"))
}

func TestSyncJournal_ReopenPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	j := NewSyncJournal(dbPath)
	require.NoError(t, j.Open())
	require.NoError(t, j.Set("notes/a.md", "h1"))
	require.NoError(t, j.Close())

	j2 := NewSyncJournal(dbPath)
	require.NoError(t, j2.Open())
	defer j2.Close()

	hash, err := j2.Get("notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "h1", hash)
}

func TestSyncJournal_OpenTwiceFails(t *testing.T) {
	j := openTestJournal(t)
	assert.Error(t, j.Open())
}
