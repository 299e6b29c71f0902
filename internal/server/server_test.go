package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tracedoc/tracedoc/internal/extract"
	"github.com/tracedoc/tracedoc/internal/pdfx"
	"github.com/tracedoc/tracedoc/internal/providers"
	"github.com/tracedoc/tracedoc/internal/store"
	"github.com/tracedoc/tracedoc/internal/workers"
)

type testServer struct {
	*httptest.Server
	store *store.Store
	mock  *providers.MockClient
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(filepath.Join(t.TempDir(), "db"), logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	mock := providers.NewMockClient()

	pool := workers.NewPool(workers.Config{Workers: 1, Logger: logger})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	pool.Start(ctx)

	srv, err := New(Config{
		Store:     st,
		Extractor: extract.New(extract.Config{Client: mock, Logger: logger}),
		Pool:      pool,
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, store: st, mock: mock}
}

func (ts *testServer) seedDocument(t *testing.T, id string) {
	t.Helper()
	_, err := ts.store.SaveDocument(&pdfx.Document{
		ID:            id,
		Filename:      "spec.pdf",
		TotalPages:    1,
		FormattedText: "[line_id: 1_0] Voltage: 20kV\n",
		IDMap: map[string]pdfx.BBox{
			"1_0": {X0: 10, Top: 50, X1: 200, Bottom: 60},
		},
	})
	if err != nil {
		t.Fatalf("failed to seed document: %v", err)
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestUploadRejectsInvalidPDF(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "junk.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte("this is not a pdf"))
	_ = mw.Close()

	resp, err := http.Post(ts.URL+"/documents", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST /documents failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.seedDocument(t, "doc-1")

	// List
	resp, err := http.Get(ts.URL + "/documents")
	if err != nil {
		t.Fatalf("GET /documents failed: %v", err)
	}
	var list []DocumentSummary
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	resp.Body.Close()
	if len(list) != 1 || list[0].ID != "doc-1" {
		t.Errorf("unexpected list: %+v", list)
	}

	// Get full record
	resp, err = http.Get(ts.URL + "/documents/doc-1")
	if err != nil {
		t.Fatalf("GET /documents/doc-1 failed: %v", err)
	}
	var rec store.DocumentRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	resp.Body.Close()
	if rec.FormattedText == "" {
		t.Error("full record missing formatted text")
	}

	// ID map only
	resp, err = http.Get(ts.URL + "/documents/doc-1/idmap")
	if err != nil {
		t.Fatalf("GET idmap failed: %v", err)
	}
	var idMap map[string]pdfx.BBox
	if err := json.NewDecoder(resp.Body).Decode(&idMap); err != nil {
		t.Fatalf("decode idmap: %v", err)
	}
	resp.Body.Close()
	if idMap["1_0"].X1 != 200 {
		t.Errorf("idmap entry wrong: %+v", idMap)
	}

	// Delete
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/documents/doc-1", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/documents/doc-1")
	if err != nil {
		t.Fatalf("GET after delete failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", resp.StatusCode)
	}
}

func TestExtractEndpointAndReport(t *testing.T) {
	ts := newTestServer(t)
	ts.seedDocument(t, "doc-1")

	ts.mock.ResponseJSON = json.RawMessage(`{
		"items": [{
			"key_name": "Kunde",
			"result": {
				"key_value": "ACME Energy",
				"source_locations": [{"pdf_filename": "spec.pdf", "page_numbers": [1]}],
				"description": "project header",
				"matched_line_ids": ["1_0"]
			}
		}]
	}`)

	resp := postJSON(t, ts.URL+"/extract", ExtractRequest{
		DocumentIDs: []string{"doc-1"},
		KeyNames:    []string{"Kunde"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST /extract = %d: %s", resp.StatusCode, body)
	}

	var out ExtractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode extract response: %v", err)
	}
	if out.RunID == "" {
		t.Error("run ID not assigned")
	}
	r, ok := out.Results["Kunde"]
	if !ok || r == nil || r.KeyValue == nil || *r.KeyValue != "ACME Energy" {
		t.Fatalf("unexpected result: %+v", r)
	}

	// The saved run renders as an XLSX download.
	reportResp, err := http.Get(ts.URL + "/runs/" + out.RunID + "/report")
	if err != nil {
		t.Fatalf("GET report failed: %v", err)
	}
	defer reportResp.Body.Close()
	if reportResp.StatusCode != http.StatusOK {
		t.Fatalf("report status = %d", reportResp.StatusCode)
	}
	if ct := reportResp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("report content type = %q", ct)
	}
	data, _ := io.ReadAll(reportResp.Body)
	if len(data) == 0 {
		t.Error("empty report body")
	}
}

func TestExtractEndpointUnknownDocument(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/extract", ExtractRequest{
		DocumentIDs: []string{"missing"},
		KeyNames:    []string{"Kunde"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAskStreamsSSE(t *testing.T) {
	ts := newTestServer(t)
	ts.seedDocument(t, "doc-1")
	ts.mock.StreamChunks = []string{"The answer ", "is 42."}

	resp := postJSON(t, ts.URL+"/ask", AskRequest{
		DocumentIDs: []string{"doc-1"},
		Question:    "What is the answer?",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	if !strings.Contains(text, `data: "The answer "`) || !strings.Contains(text, `data: "is 42."`) {
		t.Errorf("missing data events in:\n%s", text)
	}
	if !strings.Contains(text, "event: done") {
		t.Errorf("missing done event in:\n%s", text)
	}
	first := strings.Index(text, "The answer ")
	second := strings.Index(text, "is 42.")
	if first < 0 || second < 0 || first > second {
		t.Errorf("chunks out of order in:\n%s", text)
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/ask", AskRequest{DocumentIDs: []string{"doc-1"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDetectProductTypeEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.seedDocument(t, "doc-1")
	ts.mock.ResponseJSON = json.RawMessage(`{"product_type":"Kombiwandler","confidence":0.8,"evidence":"both Kern and Wicklung parameters"}`)

	resp := postJSON(t, ts.URL+"/detect/product-type", DetectRequest{DocumentIDs: []string{"doc-1"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out extract.ProductTypeResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ProductType != "Kombiwandler" {
		t.Errorf("product type = %q", out.ProductType)
	}
}

func TestDetectCoreWindingRequiresProductType(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/detect/core-winding", DetectRequest{DocumentIDs: []string{"doc-1"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCompareEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.seedDocument(t, "base")
	ts.seedDocument(t, "new")
	ts.mock.ResponseJSON = json.RawMessage(`{
		"summary": "one value changed",
		"total_changes": 1,
		"changes": [{
			"change_type": "modified",
			"specification": "Nennfrequenz",
			"old_value": "50 Hz",
			"new_value": "60 Hz",
			"base_pages": [1],
			"new_pages": [1],
			"explanation": "grid frequency updated"
		}]
	}`)

	resp := postJSON(t, ts.URL+"/compare", CompareRequest{BaseID: "base", NewID: "new"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out extract.ComparisonResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TotalChanges != 1 || len(out.Changes) != 1 || out.Changes[0].ChangeType != "modified" {
		t.Errorf("unexpected comparison: %+v", out)
	}
}
