// Package store persists extracted documents and extraction runs in an
// embedded Badger database via badgerhold.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/tracedoc/tracedoc/internal/extract"
	"github.com/tracedoc/tracedoc/internal/pdfx"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// DocumentRecord is a persisted extracted document.
type DocumentRecord struct {
	ID            string `badgerhold:"key"`
	Filename      string
	TotalPages    int
	FormattedText string
	IDMap         map[string]pdfx.BBox
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ExtractionRun is one completed batched key extraction over a document set.
type ExtractionRun struct {
	ID          string `badgerhold:"key"`
	DocumentIDs []string
	Language    string
	Results     map[string]*extract.KeyResult
	CreatedAt   time.Time
}

// Store wraps a badgerhold store.
type Store struct {
	db     *badgerhold.Store
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil
	// JSON instead of gob: extraction runs hold nil *KeyResult entries,
	// which gob refuses to encode.
	options.Encoder = json.Marshal
	options.Decoder = json.Unmarshal

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}

	logger.Debug("opened store", "path", path)

	return &Store{db: db, logger: logger.With("component", "store")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveDocument persists an extracted document.
func (s *Store) SaveDocument(doc *pdfx.Document) (*DocumentRecord, error) {
	if doc.ID == "" {
		return nil, errors.New("document ID is required")
	}

	now := time.Now().UTC()
	rec := &DocumentRecord{
		ID:            doc.ID,
		Filename:      doc.Filename,
		TotalPages:    doc.TotalPages,
		FormattedText: doc.FormattedText,
		IDMap:         doc.IDMap,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var existing DocumentRecord
	if err := s.db.Get(doc.ID, &existing); err == nil {
		rec.CreatedAt = existing.CreatedAt
	}

	if err := s.db.Upsert(rec.ID, rec); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	s.logger.Debug("saved document", "id", rec.ID, "filename", rec.Filename, "pages", rec.TotalPages)
	return rec, nil
}

// GetDocument fetches one document by ID.
func (s *Store) GetDocument(id string) (*DocumentRecord, error) {
	var rec DocumentRecord
	if err := s.db.Get(id, &rec); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &rec, nil
}

// ListDocuments returns all stored documents, newest first.
func (s *Store) ListDocuments() ([]*DocumentRecord, error) {
	var recs []DocumentRecord
	if err := s.db.Find(&recs, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	out := make([]*DocumentRecord, len(recs))
	for i := range recs {
		out[i] = &recs[i]
	}
	return out, nil
}

// DeleteDocument removes a document. Deleting a missing document is not an
// error.
func (s *Store) DeleteDocument(id string) error {
	if err := s.db.Delete(id, &DocumentRecord{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Document rebuilds a pdfx.Document view of a stored record.
func (r *DocumentRecord) Document() *pdfx.Document {
	return &pdfx.Document{
		ID:            r.ID,
		Filename:      r.Filename,
		TotalPages:    r.TotalPages,
		FormattedText: r.FormattedText,
		IDMap:         r.IDMap,
	}
}

// SaveRun persists a completed extraction run.
func (s *Store) SaveRun(run *ExtractionRun) error {
	if run.ID == "" {
		return errors.New("run ID is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to save extraction run: %w", err)
	}
	s.logger.Debug("saved extraction run", "id", run.ID, "keys", len(run.Results))
	return nil
}

// GetRun fetches one extraction run by ID.
func (s *Store) GetRun(id string) (*ExtractionRun, error) {
	var run ExtractionRun
	if err := s.db.Get(id, &run); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get extraction run: %w", err)
	}
	return &run, nil
}

// ListRuns returns all extraction runs, newest first.
func (s *Store) ListRuns() ([]*ExtractionRun, error) {
	var runs []ExtractionRun
	if err := s.db.Find(&runs, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to list extraction runs: %w", err)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	out := make([]*ExtractionRun, len(runs))
	for i := range runs {
		out[i] = &runs[i]
	}
	return out, nil
}
