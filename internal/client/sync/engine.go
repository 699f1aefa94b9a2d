package sync

// Classify runs the three-way classification over the union of local,
// remote and journal path sets, restricted to the content prefix. Every
// path lands in exactly one bucket; the function is pure and deterministic,
// so re-running it on the same inputs yields the same ChangeSet.
//
// The journal hash identifies the side that has not changed since the last
// agreement: whichever side still matches it is old, so the other side's
// change propagates. When neither side matches, both diverged and the path
// is a conflict.
func Classify(local, remote map[string]*FileMetadata, journal map[string]string, contentPrefix string) *ChangeSet {
	result := NewChangeSet()

	allPaths := make(map[string]struct{})
	for path := range local {
		allPaths[path] = struct{}{}
	}
	for path := range remote {
		if underPrefix(path, contentPrefix) {
			allPaths[path] = struct{}{}
		}
	}
	for path := range journal {
		if underPrefix(path, contentPrefix) {
			allPaths[path] = struct{}{}
		}
	}

	for path := range allPaths {
		l, localExists := local[path]
		r, remoteExists := remote[path]
		s, journalExists := journal[path]

		op := &SyncOperation{
			RepoPath:   path,
			Local:      l,
			Remote:     r,
			LastSynced: s,
		}

		switch {
		case localExists && remoteExists && l.Hash == r.Hash:
			// identical on both sides; repair a missing or stale journal entry
			result.Unchanged[path] = struct{}{}
			if s != l.Hash {
				result.Heals[path] = l.Hash
			}

		case !localExists && !remoteExists:
			// both gone, journal entry is stale
			result.Unchanged[path] = struct{}{}
			result.Cleanups[path] = struct{}{}

		case localExists && !remoteExists && !journalExists:
			op.Type = OpPush
			op.Kind = KindNew
			result.Push[path] = op

		case localExists && !remoteExists && journalExists:
			// the journal proves the remote copy once existed, so this is a
			// remote deletion to propagate locally
			op.Type = OpPull
			op.Kind = KindDeletedRemote
			result.Pull[path] = op

		case !localExists && remoteExists:
			if journalExists && s != r.Hash {
				// remote changed after a local deletion
				op.Type = OpConflict
				result.Conflicts[path] = op
			} else {
				op.Type = OpPull
				op.Kind = KindNewRemote
				result.Pull[path] = op
			}

		case s == l.Hash:
			// local is the known-old side, remote changed
			op.Type = OpPull
			op.Kind = KindModifiedRemote
			result.Pull[path] = op

		case s == r.Hash:
			// remote is the known-old side, local changed
			op.Type = OpPush
			op.Kind = KindModified
			result.Push[path] = op

		default:
			// neither side matches the last agreement
			op.Type = OpConflict
			result.Conflicts[path] = op
		}
	}

	return result
}

// SeedJournal returns the paths whose hashes already agree on both sides,
// used to rebuild an empty journal before the first classification.
func SeedJournal(local, remote map[string]*FileMetadata) map[string]string {
	seed := make(map[string]string)
	for path, l := range local {
		if r, ok := remote[path]; ok && l.Hash == r.Hash {
			seed[path] = l.Hash
		}
	}
	return seed
}
