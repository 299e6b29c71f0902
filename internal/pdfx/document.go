package pdfx

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/api"
)

// Document is the unit consumed by the extraction orchestrator. FormattedText
// is the literal prompt context; IDMap is used only for highlighting and is
// never sent to the model.
type Document struct {
	ID            string          `json:"id"`
	Filename      string          `json:"filename"`
	TotalPages    int             `json:"total_pages"`
	Pages         []Page          `json:"pages"`
	FormattedText string          `json:"formatted_text"`
	IDMap         map[string]BBox `json:"id_map"`
}

// ExtractDocument parses raw PDF bytes into an addressable Document.
//
// Page-level failures degrade to an empty page and are logged; the document
// as a whole still succeeds. Only an unreadable PDF or context cancellation
// aborts extraction.
func ExtractDocument(ctx context.Context, data []byte, displayName string, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if displayName == "" {
		displayName = "document.pdf"
	}

	// pdfcpu validates the cross-reference structure up front, so garbage
	// uploads fail loudly instead of producing an empty document.
	totalPages, err := pdfcpu.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("invalid PDF %q: %w", displayName, err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %q: %w", displayName, err)
	}

	return assemble(ctx, &readerLayout{reader: reader}, displayName, totalPages, logger)
}

// ExtractDocumentFile parses a PDF from disk, deriving the display name from
// the file name.
func ExtractDocumentFile(ctx context.Context, path string, logger *slog.Logger) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ExtractDocument(ctx, data, filepath.Base(path), logger)
}

// assemble walks pages in order and concatenates their renderings behind the
// document banner. The merged id map cannot collide across pages because the
// page number is embedded in every id.
func assemble(ctx context.Context, source LayoutSource, displayName string, totalPages int, logger *slog.Logger) (*Document, error) {
	doc := &Document{
		ID:         uuid.New().String(),
		Filename:   displayName,
		TotalPages: totalPages,
		IDMap:      make(map[string]BBox),
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\nDOCUMENT: %s\n%s\n", docBanner, displayName, docBanner)
	fmt.Fprintf(&sb, "\nTotal Pages: %d\n", totalPages)

	for pageNumber := 1; pageNumber <= totalPages; pageNumber++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		layout, err := source.PageLayout(pageNumber)
		var page Page
		if err != nil {
			logger.Error("page extraction failed, emitting empty page",
				"document", displayName, "page", pageNumber, "error", err)
			page = emptyPage(pageNumber)
		} else {
			page = extractPage(layout, pageNumber)
		}

		doc.Pages = append(doc.Pages, page)
		sb.WriteString(page.FormattedText)
		for id, bbox := range page.IDMap {
			doc.IDMap[id] = bbox
		}
	}

	doc.FormattedText = sb.String()
	return doc, nil
}
