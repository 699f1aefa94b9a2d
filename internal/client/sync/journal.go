package sync

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/openvault/vaultsync/internal/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_journal (
    path TEXT PRIMARY KEY,
    hash TEXT NOT NULL,
    updated_at TEXT NOT NULL -- RFC3339
);

CREATE INDEX IF NOT EXISTS idx_journal_hash ON sync_journal(hash);
`

type dbJournalEntry struct {
	Path      string `db:"path"`
	Hash      string `db:"hash"`
	UpdatedAt string `db:"updated_at"`
}

// SyncJournal persists the hash last confirmed identical on both sides, per
// path. An entry proves the path was bit-identical locally and remotely at
// some past instant; a missing entry means "never confirmed synced".
type SyncJournal struct {
	db     *sqlx.DB
	dbPath string
}

// NewSyncJournal creates a SyncJournal backed by an SQLite database at dbPath.
func NewSyncJournal(dbPath string) *SyncJournal {
	return &SyncJournal{
		dbPath: dbPath,
	}
}

// Open the journal and the underlying database.
func (s *SyncJournal) Open() error {
	if s.db != nil {
		return fmt.Errorf("sync journal already open")
	}

	database, err := db.NewSqliteDB(db.WithPath(s.dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return fmt.Errorf("failed to open sync journal: %w", err)
	}

	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	s.db = database
	return nil
}

// Close closes the underlying database connection.
func (s *SyncJournal) Close() error {
	if s.db == nil {
		return fmt.Errorf("sync journal not open")
	}
	if err := s.db.Close(); err != nil {
		slog.Error("failed to close sync journal database", "error", err)
		return err
	}
	s.db = nil
	slog.Debug("sync journal closed")
	return nil
}

// Get retrieves the last agreed hash for a path, or "" when unknown.
func (s *SyncJournal) Get(path string) (string, error) {
	var hash string
	err := s.db.Get(&hash, "SELECT hash FROM sync_journal WHERE path = ?", path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to query path %s: %w", path, err)
	}
	return hash, nil
}

// Set inserts or updates the agreed hash for a path.
func (s *SyncJournal) Set(path, hash string) error {
	if path == "" || hash == "" {
		return fmt.Errorf("cannot set empty path or hash")
	}

	entry := dbJournalEntry{
		Path:      path,
		Hash:      hash,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	query := `INSERT OR REPLACE INTO sync_journal (path, hash, updated_at)
	          VALUES (:path, :hash, :updated_at)`
	if _, err := s.db.NamedExec(query, entry); err != nil {
		return fmt.Errorf("failed to set state for path %s: %w", path, err)
	}
	slog.Debug("sync journal set", "path", path, "hash", hash)
	return nil
}

// GetState retrieves the entire path -> hash map from the journal.
func (s *SyncJournal) GetState() (map[string]string, error) {
	var entries []dbJournalEntry
	err := s.db.Select(&entries, "SELECT path, hash, updated_at FROM sync_journal")
	if err != nil {
		return nil, fmt.Errorf("failed to query full state: %w", err)
	}

	state := make(map[string]string, len(entries))
	for _, entry := range entries {
		state[entry.Path] = entry.Hash
	}
	return state, nil
}

// Count returns the number of entries in the journal.
func (s *SyncJournal) Count() (int, error) {
	var count int
	err := s.db.Get(&count, "SELECT COUNT(*) FROM sync_journal")
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// Delete removes an entry from the journal.
func (s *SyncJournal) Delete(path string) error {
	_, err := s.db.Exec("DELETE FROM sync_journal WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("failed to delete path %s: %w", path, err)
	}
	return nil
}
