// Package extraction turns uploaded documents into plain text.  PDF pages
// whose embedded text layer is insufficient are rasterized and routed through
// an OCR engine; a single page's OCR failure degrades that page to empty text
// and never aborts the document.
package extraction

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/pkg/errors"
)

// DocumentEngine opens raw document bytes as a paged document.  Production
// uses the MuPDF-backed engine in pdf_fitz.go; tests substitute fakes.
type DocumentEngine interface {
	Open(data []byte) (PagedDocument, error)
}

// PagedDocument is an open document with addressable pages.  Pages are
// numbered from 0.  Callers must Close it when done.
type PagedDocument interface {
	PageCount() int

	// PageText returns the page's embedded text layer, which may be empty
	// for image-only pages.
	PageText(n int) (string, error)

	// RenderPage rasterizes the page at the given oversampling factor
	// (1.0 = natural size).
	RenderPage(n int, scale float64) (image.Image, error)

	Close() error
}

// OCREngine recognises text in a rendered page bitmap.  Failures are
// reported as errors; the extractor absorbs them per page.
type OCREngine interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Document is the extraction input: the raw bytes plus the original file name
// used for format detection and diagnostics.
type Document struct {
	Name string
	Data []byte
}

// IsPDF reports whether the document looks like a PDF, by extension or by
// magic bytes.
func (d Document) IsPDF() bool {
	if strings.HasSuffix(strings.ToLower(d.Name), ".pdf") {
		return true
	}
	return len(d.Data) >= 5 && string(d.Data[:5]) == "%PDF-"
}

// Result is the extraction outcome.
type Result struct {
	// Text is the extracted plain text.  For low-confidence extractions it
	// is a diagnostic message embedding the partial text.
	Text string

	// LowConfidence is set when the final trimmed text fell below the
	// viable-document threshold.  Callers must treat this as degraded
	// quality, not failure: the partial text still has value.
	LowConfidence bool

	// PageCount and OCRPages describe how the text was produced.
	PageCount int
	OCRPages  int
}

// Config carries the extraction policy values.  The thresholds are tunable
// policy, not algorithmic constants.
type Config struct {
	// SubstantialTextLen is the minimum trimmed length for a page's embedded
	// text layer to be accepted without OCR.
	SubstantialTextLen int

	// MinViableLen is the minimum trimmed length of the concatenated document
	// text below which the result is flagged low-confidence.
	MinViableLen int

	// OCRScale is the oversampling factor for page rasterization.
	OCRScale float64
}

// DefaultConfig returns the baseline policy: >10 chars is a substantial page,
// 50+ chars is a viable document, pages render at 2.0x.
func DefaultConfig() Config {
	return Config{
		SubstantialTextLen: 10,
		MinViableLen:       50,
		OCRScale:           2.0,
	}
}

// Service extracts text from uploaded documents.  Both engines are injected
// explicitly; there is no lazily initialised module-level handle, so tests
// can substitute the PDF and OCR engines freely.
type Service struct {
	engine DocumentEngine
	ocr    OCREngine
	cfg    Config
	logger logging.Logger
}

// NewService constructs a Service.  ocr may be nil, in which case image-only
// pages simply yield no text.
func NewService(engine DocumentEngine, ocr OCREngine, cfg Config, logger logging.Logger) *Service {
	if cfg.SubstantialTextLen <= 0 {
		cfg.SubstantialTextLen = DefaultConfig().SubstantialTextLen
	}
	if cfg.MinViableLen <= 0 {
		cfg.MinViableLen = DefaultConfig().MinViableLen
	}
	if cfg.OCRScale <= 0 {
		cfg.OCRScale = DefaultConfig().OCRScale
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		engine: engine,
		ocr:    ocr,
		cfg:    cfg,
		logger: logger.Named("extraction"),
	}
}

// ExtractText extracts plain text from doc.  Plain-text files are decoded
// directly; PDFs go through the page loop with OCR fallback.  The context is
// checked between pages so callers can bound the whole call with a deadline.
func (s *Service) ExtractText(ctx context.Context, doc Document) (*Result, error) {
	if len(doc.Data) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDocument, "document is empty").
			WithDetail("file=" + doc.Name)
	}
	if doc.IsPDF() {
		return s.extractPDF(ctx, doc)
	}
	return s.extractPlainText(doc)
}

// extractPlainText decodes the document as UTF-8 text.
func (s *Service) extractPlainText(doc Document) (*Result, error) {
	text := string(doc.Data)
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeEmptyDocument, "document contains only whitespace").
			WithDetail("file=" + doc.Name)
	}
	return &Result{Text: text, PageCount: 1}, nil
}

// extractPDF iterates pages in document order, taking each page's embedded
// text layer when substantial and falling back to OCR otherwise.  Pages are
// processed sequentially: one rendered bitmap in flight at a time keeps
// memory bounded and log ordering deterministic.
func (s *Service) extractPDF(ctx context.Context, doc Document) (*Result, error) {
	paged, err := s.engine.Open(doc.Data)
	if err != nil {
		return nil, classifyOpenError(err, doc.Name)
	}
	defer paged.Close()

	res := &Result{PageCount: paged.PageCount()}
	var pages []string

	for n := 0; n < paged.PageCount(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeExtractionTimeout, "extraction cancelled").
				WithDetail(fmt.Sprintf("file=%s page=%d", doc.Name, n+1))
		}
		pages = append(pages, s.extractPage(ctx, paged, doc.Name, n, res))
	}

	text := strings.Join(pages, "\n")
	trimmed := strings.TrimSpace(text)

	if len(trimmed) < s.cfg.MinViableLen {
		// Do not fail outright: the partial text still has value.  Embed it
		// in a diagnostic so the caller can show something actionable.
		s.logger.Warn("extraction below viable threshold",
			logging.String("file", doc.Name),
			logging.Int("chars", len(trimmed)),
			logging.Int("ocr_pages", res.OCRPages),
		)
		res.Text = lowConfidenceMessage(trimmed)
		res.LowConfidence = true
		return res, nil
	}

	res.Text = text
	return res, nil
}

// extractPage returns the text for one page: the embedded layer when
// substantial, otherwise the OCR fallback.  OCR failures degrade the page to
// empty text.
func (s *Service) extractPage(ctx context.Context, paged PagedDocument, name string, n int, res *Result) string {
	embedded, err := paged.PageText(n)
	if err != nil {
		s.logger.Warn("page text layer unreadable",
			logging.String("file", name),
			logging.Int("page", n+1),
			logging.Err(err),
		)
		embedded = ""
	}
	if len(strings.TrimSpace(embedded)) > s.cfg.SubstantialTextLen {
		return embedded
	}

	// Image-only or near-empty page: rasterize and OCR.
	if s.ocr == nil {
		return embedded
	}
	res.OCRPages++

	img, err := paged.RenderPage(n, s.cfg.OCRScale)
	if err != nil {
		s.logger.Warn("page render failed, skipping OCR",
			logging.String("file", name),
			logging.Int("page", n+1),
			logging.Err(err),
		)
		return embedded
	}

	text, err := s.ocr.Recognize(ctx, img)
	if err != nil {
		// A single page's OCR failure must never abort the document.
		s.logger.Warn("OCR failed for page",
			logging.String("file", name),
			logging.Int("page", n+1),
			logging.Err(err),
		)
		return embedded
	}
	if strings.TrimSpace(text) == "" {
		return embedded
	}
	return text
}

// lowConfidenceMessage wraps partial text in the diagnostic shown for
// below-threshold extractions.
func lowConfidenceMessage(partial string) string {
	if partial == "" {
		return "No readable text could be extracted from this document. " +
			"It may be a low-quality scan; OCR quality may be poor. " +
			"Consider re-scanning at a higher resolution."
	}
	return "Only limited text could be extracted from this document " +
		"(OCR quality may be poor):\n\n" + partial
}

// classifyOpenError distinguishes structural corruption from engine failure
// so the caller can present an actionable message.
func classifyOpenError(err error, name string) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "cannot open"),
		strings.Contains(msg, "invalid"),
		strings.Contains(msg, "corrupt"),
		strings.Contains(msg, "repair"),
		strings.Contains(msg, "no objects"):
		return errors.Wrap(err, errors.ErrCodeDocumentCorrupt,
			"document structure is corrupt or unreadable").WithDetail("file=" + name)
	case strings.Contains(msg, "context canceled"),
		strings.Contains(msg, "deadline exceeded"):
		return errors.Wrap(err, errors.ErrCodeExtractionTimeout, "open cancelled").
			WithDetail("file=" + name)
	case strings.Contains(msg, "fitz"), strings.Contains(msg, "mupdf"):
		return errors.Wrap(err, errors.ErrCodeEngineFailure, "document engine failure").
			WithDetail("file=" + name)
	default:
		return errors.Wrap(err, errors.ErrCodeExtractionFailed, "failed to open document").
			WithDetail("file=" + name)
	}
}
