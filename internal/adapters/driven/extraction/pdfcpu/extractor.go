// Package pdfcpu implements page extraction for PDF documents.
//
// pdfcpu parses and validates the document structure and reports the
// page count; plain text is pulled per page with ledongthuc/pdf, since
// pdfcpu exposes raw content streams but not decoded text.
package pdfcpu

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	ltpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/corvid-labs/paperbase/internal/core/domain"
	"github.com/corvid-labs/paperbase/internal/core/ports/driven"
	"github.com/corvid-labs/paperbase/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// Extractor converts PDF bytes into ordered page texts.
type Extractor struct {
	conf *model.Configuration
}

// New creates a PDF page extractor with relaxed validation, so mildly
// malformed documents from real-world scanners still parse.
func New() *Extractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Extractor{conf: conf}
}

// PageCount returns the number of pages without extracting text.
func (e *Extractor) PageCount(ctx context.Context, data []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(data), e.conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrUnreadablePDF, err)
	}
	return count, nil
}

// Pages returns the text of every page in order. Pages whose text
// cannot be decoded (scanned images, exotic encodings) come back empty
// rather than failing the whole document.
func (e *Extractor) Pages(ctx context.Context, data []byte) ([]string, error) {
	// Validate structure first; ledongthuc/pdf panics on some malformed
	// inputs that pdfcpu rejects cleanly.
	count, err := e.PageCount(ctx, data)
	if err != nil {
		return nil, err
	}

	reader, err := ltpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadablePDF, err)
	}

	pages := make([]string, 0, count)
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := pageText(reader, i)
		if err != nil {
			logger.Debug("Page %d: text extraction failed: %v", i, err)
			text = ""
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}

// pageText extracts one page's plain text, recovering from the panics
// ledongthuc/pdf raises on content streams it cannot parse.
func pageText(reader *ltpdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing page content: %v", r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
