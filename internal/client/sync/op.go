package sync

import "sort"

type OpType string

const (
	OpPush     OpType = "Push"
	OpPull     OpType = "Pull"
	OpConflict OpType = "Conflict"
)

// ChangeKind is the subtype of a push or pull operation.
type ChangeKind string

const (
	// push subtypes
	KindNew      ChangeKind = "new"
	KindModified ChangeKind = "modified"
	KindDeleted  ChangeKind = "deleted" // only reachable via conflict resolution

	// pull subtypes
	KindNewRemote      ChangeKind = "new-remote"
	KindModifiedRemote ChangeKind = "modified-remote"
	KindDeletedRemote  ChangeKind = "deleted-remotely"
)

// SyncOperation is one classified path. Local/Remote may be nil when the
// file is absent on that side; LastSynced is the journal hash or "".
type SyncOperation struct {
	Type       OpType
	Kind       ChangeKind
	RepoPath   string
	Local      *FileMetadata
	Remote     *FileMetadata
	LastSynced string

	// Forced marks an operation produced by conflict resolution, so the
	// executors apply it even though re-classification would call it a
	// conflict. Forced state lives only until the next reconcile pass.
	Forced bool
}

// BatchPush holds operations that upload local content to the remote.
type BatchPush map[string]*SyncOperation

// BatchPull holds operations that apply remote content locally.
type BatchPull map[string]*SyncOperation

// BatchConflict holds paths where both sides diverged since last agreement.
type BatchConflict map[string]*SyncOperation

// BatchUnchanged is the set of paths found identical on both sides.
type BatchUnchanged map[string]struct{}

// ChangeSet aggregates one reconcile pass. Heals and Cleanups are journal
// repairs detected during classification: Heals records paths already
// identical on both sides but missing from the journal; Cleanups lists
// journal entries whose path is gone on both sides.
type ChangeSet struct {
	Push      BatchPush
	Pull      BatchPull
	Conflicts BatchConflict
	Unchanged BatchUnchanged
	Heals     map[string]string
	Cleanups  map[string]struct{}
}

func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		Push:      make(BatchPush),
		Pull:      make(BatchPull),
		Conflicts: make(BatchConflict),
		Unchanged: make(BatchUnchanged),
		Heals:     make(map[string]string),
		Cleanups:  make(map[string]struct{}),
	}
}

// HasChanges reports whether any push, pull or conflict remains.
func (c *ChangeSet) HasChanges() bool {
	return len(c.Push) > 0 ||
		len(c.Pull) > 0 ||
		len(c.Conflicts) > 0
}

// HasConflicts reports whether any unresolved conflict remains.
func (c *ChangeSet) HasConflicts() bool {
	return len(c.Conflicts) > 0
}

// sortedOps returns a batch as a slice ordered by repo path, so executor
// runs are deterministic and a partial failure stops at a well-defined item.
func sortedOps[B ~map[string]*SyncOperation](batch B) []*SyncOperation {
	paths := make([]string, 0, len(batch))
	for path := range batch {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	ops := make([]*SyncOperation, 0, len(paths))
	for _, path := range paths {
		ops = append(ops, batch[path])
	}
	return ops
}
