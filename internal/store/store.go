// Package store persists analysis results to a local SQLite database so
// previous runs can be listed and re-exported without calling the model again.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/analysis"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/home"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Record states mirror the traffic-light labels shown in listings.
const (
	StatusValid      = "valido"
	StatusWarnings   = "con_advertencias"
	StatusIncomplete = "incompleto"
)

// Record is one stored analysis run.
type Record struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	Filename   string             `json:"filename"`
	SourceType string             `json:"source_type"`
	PageCount  int                `json:"page_count"`
	WordCount  int                `json:"word_count"`
	ChunkCount int                `json:"chunk_count"`
	Model      string             `json:"model"`
	Status     string             `json:"status"`
	Confidence float64            `json:"confidence"`
	Analysis   *analysis.Analysis `json:"analysis"`
}

// StatusFor derives the record status from the analysis contents. Warning
// notes downgrade a run to con_advertencias; a mostly-empty result is
// incompleto.
func StatusFor(a *analysis.Analysis) string {
	if a == nil || !a.IsComplete() {
		return StatusIncomplete
	}
	for _, note := range a.Notas {
		if strings.HasPrefix(note, "⚠") {
			return StatusWarnings
		}
	}
	return StatusValid
}

// Store is a SQLite-backed history of analysis runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the history database at dataDir. If dataDir is
// empty, it defaults to ~/.lexdoc.
func Open(dataDir string) (*Store, error) {
	dir, err := home.New(dataDir)
	if err != nil {
		return nil, err
	}
	if err := dir.EnsureExists(); err != nil {
		return nil, err
	}
	dbPath := dir.HistoryPath()

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			filename TEXT NOT NULL,
			source_type TEXT NOT NULL,
			page_count INTEGER NOT NULL DEFAULT 0,
			word_count INTEGER NOT NULL DEFAULT 0,
			chunk_count INTEGER NOT NULL DEFAULT 1,
			model TEXT NOT NULL,
			status TEXT NOT NULL,
			confidence REAL NOT NULL,
			analysis TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating analyses table: %w", err)
	}
	return nil
}

// Save stores a record. A missing ID, timestamp, or status is filled in.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec.Analysis == nil {
		return errors.New("record has no analysis")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = StatusFor(rec.Analysis)
	}

	analysisJSON, err := json.Marshal(rec.Analysis)
	if err != nil {
		return fmt.Errorf("marshalling analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses
			(id, created_at, filename, source_type, page_count, word_count, chunk_count, model, status, confidence, analysis)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			source_type = excluded.source_type,
			page_count = excluded.page_count,
			word_count = excluded.word_count,
			chunk_count = excluded.chunk_count,
			model = excluded.model,
			status = excluded.status,
			confidence = excluded.confidence,
			analysis = excluded.analysis
	`, rec.ID, rec.CreatedAt, rec.Filename, rec.SourceType, rec.PageCount,
		rec.WordCount, rec.ChunkCount, rec.Model, rec.Status, rec.Confidence,
		string(analysisJSON))
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, filename, source_type, page_count, word_count, chunk_count, model, status, confidence, analysis
		FROM analyses WHERE id = ?
	`, id)

	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List returns the most recent records, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT id, created_at, filename, source_type, page_count, word_count, chunk_count, model, status, confidence, analysis
		FROM analyses ORDER BY created_at DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// Delete removes a record by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes all records.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM analyses"); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}
	return nil
}

func scanRecord(scan func(dest ...any) error) (*Record, error) {
	var rec Record
	var analysisJSON string
	if err := scan(&rec.ID, &rec.CreatedAt, &rec.Filename, &rec.SourceType,
		&rec.PageCount, &rec.WordCount, &rec.ChunkCount, &rec.Model,
		&rec.Status, &rec.Confidence, &analysisJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}
	if err := json.Unmarshal([]byte(analysisJSON), &rec.Analysis); err != nil {
		return nil, fmt.Errorf("unmarshalling analysis: %w", err)
	}
	return &rec, nil
}
