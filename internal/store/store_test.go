package store

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/tracedoc/tracedoc/internal/extract"
	"github.com/tracedoc/tracedoc/internal/pdfx"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "db"), logger)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleDoc(id string) *pdfx.Document {
	return &pdfx.Document{
		ID:            id,
		Filename:      "spec.pdf",
		TotalPages:    2,
		FormattedText: "[line_id: 1_0] Voltage: 20kV\n",
		IDMap: map[string]pdfx.BBox{
			"1_0": {X0: 10, Top: 50, X1: 200, Bottom: 60},
		},
	}
}

func TestSaveAndGetDocument(t *testing.T) {
	s := openTestStore(t)

	rec, err := s.SaveDocument(sampleDoc("doc-1"))
	if err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	got, err := s.GetDocument("doc-1")
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.Filename != "spec.pdf" || got.TotalPages != 2 {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.IDMap["1_0"].X1 != 200 {
		t.Errorf("IDMap not round-tripped: %+v", got.IDMap)
	}

	// The rebuilt document view matches the saved fields.
	doc := got.Document()
	if doc.ID != "doc-1" || doc.FormattedText == "" {
		t.Errorf("Document() view incomplete: %+v", doc)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetDocument("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveDocumentRequiresID(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.SaveDocument(&pdfx.Document{}); err == nil {
		t.Error("expected error for empty document ID")
	}
}

func TestUpsertKeepsCreatedAt(t *testing.T) {
	s := openTestStore(t)

	first, err := s.SaveDocument(sampleDoc("doc-1"))
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	second, err := s.SaveDocument(sampleDoc("doc-1"))
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed on upsert: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
}

func TestListAndDeleteDocuments(t *testing.T) {
	s := openTestStore(t)

	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.SaveDocument(sampleDoc(id)); err != nil {
			t.Fatalf("save %s failed: %v", id, err)
		}
	}

	recs, err := s.ListDocuments()
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(recs))
	}

	if err := s.DeleteDocument("b"); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}
	if _, err := s.GetDocument("b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted document still readable: %v", err)
	}

	// Deleting again is not an error.
	if err := s.DeleteDocument("b"); err != nil {
		t.Errorf("second delete errored: %v", err)
	}
}

func TestExtractionRunRoundTrip(t *testing.T) {
	s := openTestStore(t)

	value := "50 Hz"
	run := &ExtractionRun{
		ID:          "run-1",
		DocumentIDs: []string{"doc-1"},
		Language:    "de",
		Results: map[string]*extract.KeyResult{
			"Nennfrequenz": {
				KeyValue:       &value,
				Description:    "found in main data table",
				MatchedLineIDs: []string{"2_t0_r1_c1"},
			},
			"Windlast": nil,
		},
	}
	if err := s.SaveRun(run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Language != "de" || len(got.Results) != 2 {
		t.Errorf("unexpected run: %+v", got)
	}
	if got.Results["Nennfrequenz"] == nil || *got.Results["Nennfrequenz"].KeyValue != "50 Hz" {
		t.Errorf("found key not round-tripped: %+v", got.Results["Nennfrequenz"])
	}
	if r, ok := got.Results["Windlast"]; !ok || r != nil {
		t.Errorf("nil key result not preserved: ok=%v r=%v", ok, r)
	}

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetRun("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
