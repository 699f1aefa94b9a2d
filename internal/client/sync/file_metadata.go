package sync

import (
	"time"
)

// FileMetadata describes one file on either side of the sync.
// Hash is the git blob hash and is the sole change-detection signal;
// Size and ModTime only feed the scanner's re-hash cache.
type FileMetadata struct {
	Path    string // repo-relative path (content prefix applied)
	Hash    string
	Size    int64
	ModTime time.Time
	AbsPath string // local files only; empty for remote entries
}
