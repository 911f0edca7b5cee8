package feed

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// StateDB tracks how far each transcript file has been sent, so files are
// delivered once and an interrupted file resumes after its last sent line.
type StateDB struct {
	db *sql.DB
}

// Progress is the recorded delivery state of one transcript file.
type Progress struct {
	Size     int64
	Hash     string
	Lines    int
	Complete bool
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS sent_files (
		path     TEXT PRIMARY KEY,
		size     INTEGER NOT NULL,
		hash     TEXT NOT NULL,
		lines    INTEGER NOT NULL DEFAULT 0,
		complete INTEGER NOT NULL DEFAULT 0,
		sent_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// Lookup returns the recorded progress for relPath, or nil if it was never seen.
func (s *StateDB) Lookup(relPath string) (*Progress, error) {
	var p Progress
	err := s.db.QueryRow(
		`SELECT size, hash, lines, complete FROM sent_files WHERE path = ?`, relPath,
	).Scan(&p.Size, &p.Hash, &p.Lines, &p.Complete)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Record stores the delivery state of relPath.
func (s *StateDB) Record(relPath string, p Progress) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO sent_files (path, size, hash, lines, complete) VALUES (?, ?, ?, ?, ?)`,
		relPath, p.Size, p.Hash, p.Lines, p.Complete,
	)
	return err
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
