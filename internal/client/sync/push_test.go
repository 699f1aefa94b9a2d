package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvault/vaultsync/internal/client/vault"
	"github.com/openvault/vaultsync/internal/githubapi"
)

func testRepoConfig() *vault.RepoConfig {
	return &vault.RepoConfig{
		Repo:       "octo/vault",
		Branch:     "main",
		Path:       "notes",
		ImagesPath: "images",
	}
}

type pushFixture struct {
	root    string
	cfg     *vault.RepoConfig
	remote  *fakeRemote
	journal *SyncJournal
	exec    *PushExecutor
}

func newPushFixture(t *testing.T) *pushFixture {
	t.Helper()
	remote := newFakeRemote()
	journal := openTestJournal(t)
	return &pushFixture{
		root:    t.TempDir(),
		cfg:     testRepoConfig(),
		remote:  remote,
		journal: journal,
		exec:    NewPushExecutor(remote, journal),
	}
}

// reconcile runs a scan, fetch and classification over the fixture state.
func (f *pushFixture) reconcile(t *testing.T) (*ChangeSet, map[string]*FileMetadata, map[string]*FileMetadata) {
	t.Helper()
	local, err := newTestLocalState(t, f.root).Scan(f.cfg.Path)
	require.NoError(t, err)

	snapshot, err := NewRemoteState(f.remote).Fetch(context.Background(), f.cfg)
	require.NoError(t, err)

	state, err := f.journal.GetState()
	require.NoError(t, err)

	return Classify(local, snapshot, state, f.cfg.Path), local, snapshot
}

func TestPushExecutor_NewFile(t *testing.T) {
	f := newPushFixture(t)
	writeVaultFile(t, f.root, "a.md", "alpha\n")

	changes, local, snapshot := f.reconcile(t)
	require.Contains(t, changes.Push, "notes/a.md")

	err := f.exec.Execute(context.Background(), f.cfg, changes.Push, local, snapshot)
	require.NoError(t, err)

	wantHash := HashContent([]byte("alpha\n"))
	assert.Equal(t, wantHash, f.remote.hashOf("notes/a.md"))

	// new files carry no precondition
	assert.Equal(t, "", f.remote.putSHAs["notes/a.md"])

	got, err := f.journal.Get("notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, wantHash, got)

	// the in-memory snapshot tracks the write
	require.Contains(t, snapshot, "notes/a.md")
	assert.Equal(t, wantHash, snapshot["notes/a.md"].Hash)
}

func TestPushExecutor_ModifiedFileCarriesPrecondition(t *testing.T) {
	f := newPushFixture(t)
	f.remote.seed("notes/a.md", "old\n")
	oldHash := f.remote.hashOf("notes/a.md")
	require.NoError(t, f.journal.Set("notes/a.md", oldHash))
	writeVaultFile(t, f.root, "a.md", "new\n")

	changes, local, snapshot := f.reconcile(t)
	require.Contains(t, changes.Push, "notes/a.md")
	assert.Equal(t, KindModified, changes.Push["notes/a.md"].Kind)

	err := f.exec.Execute(context.Background(), f.cfg, changes.Push, local, snapshot)
	require.NoError(t, err)

	assert.Equal(t, oldHash, f.remote.putSHAs["notes/a.md"])
	assert.Equal(t, HashContent([]byte("new\n")), f.remote.hashOf("notes/a.md"))
}

func TestPushExecutor_StalePreconditionFails(t *testing.T) {
	f := newPushFixture(t)
	f.remote.seed("notes/a.md", "old\n")
	staleHash := f.remote.hashOf("notes/a.md")
	require.NoError(t, f.journal.Set("notes/a.md", staleHash))
	writeVaultFile(t, f.root, "a.md", "mine\n")

	changes, local, snapshot := f.reconcile(t)
	require.Contains(t, changes.Push, "notes/a.md")

	// remote moves between classification and execution
	f.remote.seed("notes/a.md", "theirs\n")

	err := f.exec.Execute(context.Background(), f.cfg, changes.Push, local, snapshot)
	require.Error(t, err)
	assert.ErrorIs(t, err, githubapi.ErrPreconditionFailed)

	// the remote copy is untouched and the journal still holds the old hash
	assert.Equal(t, HashContent([]byte("theirs\n")), f.remote.hashOf("notes/a.md"))
	got, err := f.journal.Get("notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, staleHash, got)
}

func TestPushExecutor_FailFastKeepsEarlierItems(t *testing.T) {
	f := newPushFixture(t)
	writeVaultFile(t, f.root, "a.md", "alpha\n")
	writeVaultFile(t, f.root, "b.md", "beta\n")
	writeVaultFile(t, f.root, "c.md", "gamma\n")

	f.remote.failPut["notes/b.md"] = githubapi.ErrRemoteUnreachable

	changes, local, snapshot := f.reconcile(t)
	require.Len(t, changes.Push, 3)

	err := f.exec.Execute(context.Background(), f.cfg, changes.Push, local, snapshot)
	require.Error(t, err)
	assert.ErrorIs(t, err, githubapi.ErrRemoteUnreachable)

	// a.md landed and its journal entry survives the batch failure
	assert.Equal(t, HashContent([]byte("alpha\n")), f.remote.hashOf("notes/a.md"))
	got, err := f.journal.Get("notes/a.md")
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	// c.md was never attempted
	assert.Equal(t, "", f.remote.hashOf("notes/c.md"))
	assert.Equal(t, []string{"notes/a.md", "notes/b.md"}, f.remote.putOrder)
}

func TestPushExecutor_Delete(t *testing.T) {
	f := newPushFixture(t)
	f.remote.seed("notes/a.md", "gone\n")
	remoteHash := f.remote.hashOf("notes/a.md")
	require.NoError(t, f.journal.Set("notes/a.md", "h-stale"))

	snapshot, err := NewRemoteState(f.remote).Fetch(context.Background(), f.cfg)
	require.NoError(t, err)

	batch := BatchPush{
		"notes/a.md": {
			Type:     OpPush,
			Kind:     KindDeleted,
			RepoPath: "notes/a.md",
			Remote:   snapshot["notes/a.md"],
			Forced:   true,
		},
	}

	err = f.exec.Execute(context.Background(), f.cfg, batch, nil, snapshot)
	require.NoError(t, err)

	assert.Equal(t, "", f.remote.hashOf("notes/a.md"))
	assert.Equal(t, remoteHash, f.remote.deleteSHAs["notes/a.md"])
	assert.NotContains(t, snapshot, "notes/a.md")

	got, err := f.journal.Get("notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestPushExecutor_CancelledContextStopsBatch(t *testing.T) {
	f := newPushFixture(t)
	writeVaultFile(t, f.root, "a.md", "alpha\n")

	changes, local, snapshot := f.reconcile(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.exec.Execute(ctx, f.cfg, changes.Push, local, snapshot)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.remote.putOrder)
}

func TestPushExecutor_UploadsEmbeddedAttachments(t *testing.T) {
	f := newPushFixture(t)
	writeVaultFile(t, f.root, "doc.md", "text\n![[pic.png]]\n")
	writeVaultFile(t, f.root, "attachments/pic.png", "png-bytes")

	changes, local, snapshot := f.reconcile(t)
	require.Contains(t, changes.Push, "notes/doc.md")
	batch := BatchPush{"notes/doc.md": changes.Push["notes/doc.md"]}

	err := f.exec.Execute(context.Background(), f.cfg, batch, local, snapshot)
	require.NoError(t, err)

	// the attachment lands under the images prefix with its own journal entry
	picHash := HashContent([]byte("png-bytes"))
	assert.Equal(t, picHash, f.remote.hashOf("images/pic.png"))

	got, err := f.journal.Get("images/pic.png")
	require.NoError(t, err)
	assert.Equal(t, picHash, got)

	require.Contains(t, snapshot, "images/pic.png")
	assert.Equal(t, picHash, snapshot["images/pic.png"].Hash)
}

func TestPushExecutor_SkipsUnchangedAttachment(t *testing.T) {
	f := newPushFixture(t)
	writeVaultFile(t, f.root, "doc.md", "![[pic.png]]\n")
	writeVaultFile(t, f.root, "pic.png", "png-bytes")
	f.remote.seed("images/pic.png", "png-bytes")

	changes, local, snapshot := f.reconcile(t)
	require.Contains(t, changes.Push, "notes/doc.md")
	batch := BatchPush{"notes/doc.md": changes.Push["notes/doc.md"]}

	err := f.exec.Execute(context.Background(), f.cfg, batch, local, snapshot)
	require.NoError(t, err)

	// only the document itself was written
	assert.Equal(t, []string{"notes/doc.md"}, f.remote.putOrder)
}

func TestPushExecutor_MissingEmbedIsNotFatal(t *testing.T) {
	f := newPushFixture(t)
	writeVaultFile(t, f.root, "doc.md", "![[nowhere.png]]\n")

	changes, local, snapshot := f.reconcile(t)
	batch := BatchPush{"notes/doc.md": changes.Push["notes/doc.md"]}

	err := f.exec.Execute(context.Background(), f.cfg, batch, local, snapshot)
	require.NoError(t, err)
	assert.NotEqual(t, "", f.remote.hashOf("notes/doc.md"))
}

func TestPushExecutor_AttachmentUploadFailureAborts(t *testing.T) {
	f := newPushFixture(t)
	writeVaultFile(t, f.root, "doc.md", "![[pic.png]]\n")
	writeVaultFile(t, f.root, "pic.png", "png-bytes")
	f.remote.failPut["images/pic.png"] = errors.New("boom")

	changes, local, snapshot := f.reconcile(t)
	batch := BatchPush{"notes/doc.md": changes.Push["notes/doc.md"]}

	err := f.exec.Execute(context.Background(), f.cfg, batch, local, snapshot)
	require.Error(t, err)

	// the document made it, the attachment did not
	assert.NotEqual(t, "", f.remote.hashOf("notes/doc.md"))
	assert.Equal(t, "", f.remote.hashOf("images/pic.png"))
}
