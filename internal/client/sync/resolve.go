package sync

import "fmt"

// Side selects which copy wins when resolving a conflict.
type Side string

const (
	SideLocal  Side = "local"
	SideRemote Side = "remote"
)

// Resolve converts a conflict into a forced push or pull. Choosing local
// pushes the local copy (a delete-push when local is absent); choosing
// remote pulls the remote copy (a delete-pull when remote is absent).
// Resolutions are advisory: the next full reconcile pass recomputes
// classifications from scratch, only the executed effects persist.
func Resolve(op *SyncOperation, side Side) (*SyncOperation, error) {
	if op.Type != OpConflict {
		return nil, fmt.Errorf("resolve: %s is not a conflict", op.RepoPath)
	}

	resolved := &SyncOperation{
		RepoPath:   op.RepoPath,
		Local:      op.Local,
		Remote:     op.Remote,
		LastSynced: op.LastSynced,
		Forced:     true,
	}

	switch side {
	case SideLocal:
		resolved.Type = OpPush
		switch {
		case op.Local == nil:
			resolved.Kind = KindDeleted
		case op.Remote == nil:
			resolved.Kind = KindNew
		default:
			resolved.Kind = KindModified
		}
	case SideRemote:
		resolved.Type = OpPull
		switch {
		case op.Remote == nil:
			resolved.Kind = KindDeletedRemote
		case op.Local == nil:
			resolved.Kind = KindNewRemote
		default:
			resolved.Kind = KindModifiedRemote
		}
	default:
		return nil, fmt.Errorf("resolve: unknown side %q", side)
	}

	return resolved, nil
}

// ResolveConflict resolves a conflicted path in place, moving it from the
// conflict bucket into the push or pull set.
func (c *ChangeSet) ResolveConflict(repoPath string, side Side) error {
	op, ok := c.Conflicts[repoPath]
	if !ok {
		return fmt.Errorf("resolve: no conflict for %s", repoPath)
	}

	resolved, err := Resolve(op, side)
	if err != nil {
		return err
	}

	delete(c.Conflicts, repoPath)
	switch resolved.Type {
	case OpPush:
		c.Push[repoPath] = resolved
	case OpPull:
		c.Pull[repoPath] = resolved
	}
	return nil
}
