package extraction

import (
	"context"
	"fmt"
	"image"
	"strings"
	"testing"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/pkg/errors"
)

// fakePage describes one page of a fake document: its embedded text layer and
// the OCR text its bitmap would yield.
type fakePage struct {
	embedded  string
	ocrText   string
	ocrErr    error
	renderErr error
}

type fakeDocument struct {
	pages  []fakePage
	closed bool
}

func (d *fakeDocument) PageCount() int { return len(d.pages) }

func (d *fakeDocument) PageText(n int) (string, error) {
	return d.pages[n].embedded, nil
}

func (d *fakeDocument) RenderPage(n int, scale float64) (image.Image, error) {
	if d.pages[n].renderErr != nil {
		return nil, d.pages[n].renderErr
	}
	return image.NewGray(image.Rect(0, 0, int(100*scale), int(100*scale))), nil
}

func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

type fakeEngine struct {
	doc     *fakeDocument
	openErr error
}

func (e *fakeEngine) Open(_ []byte) (PagedDocument, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	return e.doc, nil
}

// pageOCR routes OCR calls back to the fake document's per-page script.
type pageOCR struct {
	doc   *fakeDocument
	calls int
}

func (o *pageOCR) Recognize(_ context.Context, _ image.Image) (string, error) {
	// RenderPage and Recognize are called strictly in page order with one
	// bitmap in flight, so the call index identifies the page.
	var n int
	count := 0
	for i, p := range o.doc.pages {
		if len(strings.TrimSpace(p.embedded)) <= DefaultConfig().SubstantialTextLen && p.renderErr == nil {
			if count == o.calls {
				n = i
				break
			}
			count++
		}
	}
	o.calls++
	p := o.doc.pages[n]
	if p.ocrErr != nil {
		return "", p.ocrErr
	}
	return p.ocrText, nil
}

func pdfDoc() Document {
	return Document{Name: "contract.pdf", Data: []byte("%PDF-1.7 fake")}
}

func newTestService(doc *fakeDocument, ocr OCREngine) *Service {
	return NewService(&fakeEngine{doc: doc}, ocr, DefaultConfig(), logging.NewNopLogger())
}

func TestExtractText_PlainText(t *testing.T) {
	svc := newTestService(nil, nil)

	res, err := svc.ExtractText(context.Background(), Document{
		Name: "notes.txt",
		Data: []byte("This agreement is made between Alice and Bob."),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "This agreement is made between Alice and Bob." {
		t.Errorf("text altered: %q", res.Text)
	}
}

func TestExtractText_WhitespaceOnlyTextFile(t *testing.T) {
	svc := newTestService(nil, nil)

	_, err := svc.ExtractText(context.Background(), Document{Name: "blank.txt", Data: []byte("  \n\t ")})
	if !errors.IsCode(err, errors.ErrCodeEmptyDocument) {
		t.Errorf("expected DOC_001, got %v", err)
	}
}

func TestExtractText_EmptyInput(t *testing.T) {
	svc := newTestService(nil, nil)
	if _, err := svc.ExtractText(context.Background(), Document{Name: "x.pdf"}); !errors.IsCode(err, errors.ErrCodeEmptyDocument) {
		t.Errorf("expected DOC_001 for empty data, got %v", err)
	}
}

func TestExtractText_PageOrderConcatenation(t *testing.T) {
	page1 := "First page of the services agreement text."
	page2 := "Second page covering payment terms in detail."
	page3 := "Third page with the termination provisions."
	doc := &fakeDocument{pages: []fakePage{
		{embedded: page1},
		{embedded: page2},
		{embedded: page3},
	}}
	svc := newTestService(doc, nil)

	res, err := svc.ExtractText(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := page1 + "\n" + page2 + "\n" + page3
	if res.Text != want {
		t.Errorf("concatenation mismatch:\n got %q\nwant %q", res.Text, want)
	}
	if !doc.closed {
		t.Error("document not closed")
	}
}

func TestExtractText_Idempotent(t *testing.T) {
	mk := func() *fakeDocument {
		return &fakeDocument{pages: []fakePage{
			{embedded: "Same content on every extraction run, unchanged."},
			{embedded: "", ocrText: "OCR text recovered from the scanned page."},
		}}
	}
	d1, d2 := mk(), mk()

	r1, err := newTestService(d1, &pageOCR{doc: d1}).ExtractText(context.Background(), pdfDoc())
	if err != nil {
		t.Fatal(err)
	}
	r2, err := newTestService(d2, &pageOCR{doc: d2}).ExtractText(context.Background(), pdfDoc())
	if err != nil {
		t.Fatal(err)
	}
	if r1.Text != r2.Text {
		t.Errorf("extraction not idempotent:\n%q\n%q", r1.Text, r2.Text)
	}
}

func TestExtractText_OCRSubstitution(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{
		{embedded: "Embedded text layer for the first page here."},
		{embedded: "  ", ocrText: "Recognised text from the scanned second page."},
		{embedded: "Embedded text layer for the third page here."},
	}}
	svc := newTestService(doc, &pageOCR{doc: doc})

	res, err := svc.ExtractText(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parts := strings.Split(res.Text, "\n")
	if len(parts) != 3 {
		t.Fatalf("expected 3 page parts, got %d: %q", len(parts), res.Text)
	}
	if parts[1] != "Recognised text from the scanned second page." {
		t.Errorf("OCR text not substituted for page 2: %q", parts[1])
	}
	if res.OCRPages != 1 {
		t.Errorf("OCRPages = %d, want 1", res.OCRPages)
	}
}

func TestExtractText_OCRFailureIsIsolated(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{
		{embedded: "Page one embedded text, long enough to accept."},
		{embedded: "", ocrErr: fmt.Errorf("tesseract: engine crashed")},
		{embedded: "Page three embedded text, long enough to accept."},
	}}
	svc := newTestService(doc, &pageOCR{doc: doc})

	res, err := svc.ExtractText(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("OCR failure must not abort extraction: %v", err)
	}
	if !strings.Contains(res.Text, "Page one embedded text") ||
		!strings.Contains(res.Text, "Page three embedded text") {
		t.Errorf("surviving pages lost: %q", res.Text)
	}
}

func TestExtractText_RenderFailureIsIsolated(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{
		{embedded: "Page one embedded text, long enough to accept."},
		{embedded: "", renderErr: fmt.Errorf("mupdf: render failed")},
		{embedded: "Page three embedded text, long enough to accept."},
	}}
	svc := newTestService(doc, &pageOCR{doc: doc})

	res, err := svc.ExtractText(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("render failure must not abort extraction: %v", err)
	}
	if !strings.Contains(res.Text, "Page three embedded text") {
		t.Errorf("pages after render failure lost: %q", res.Text)
	}
}

func TestExtractText_LowConfidenceBelowViableThreshold(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{
		{embedded: "short but real"}, // > substantial, < viable
	}}
	svc := newTestService(doc, nil)

	res, err := svc.ExtractText(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("below-threshold extraction must not fail: %v", err)
	}
	if !res.LowConfidence {
		t.Fatal("expected low-confidence flag")
	}
	if !strings.Contains(res.Text, "short but real") {
		t.Errorf("partial text not embedded in diagnostic: %q", res.Text)
	}
	if !strings.Contains(res.Text, "OCR quality may be poor") {
		t.Errorf("diagnostic hint missing: %q", res.Text)
	}
}

func TestExtractText_CorruptPDFClassified(t *testing.T) {
	svc := NewService(&fakeEngine{openErr: fmt.Errorf("fitz: cannot open memory")}, nil,
		DefaultConfig(), logging.NewNopLogger())

	_, err := svc.ExtractText(context.Background(), pdfDoc())
	if !errors.IsCode(err, errors.ErrCodeDocumentCorrupt) {
		t.Errorf("expected EXT_002 for corrupt document, got %v", err)
	}
}

func TestExtractText_EngineFailureClassified(t *testing.T) {
	svc := NewService(&fakeEngine{openErr: fmt.Errorf("mupdf: worker terminated")}, nil,
		DefaultConfig(), logging.NewNopLogger())

	_, err := svc.ExtractText(context.Background(), pdfDoc())
	if !errors.IsCode(err, errors.ErrCodeEngineFailure) {
		t.Errorf("expected EXT_003 for engine failure, got %v", err)
	}
}

func TestExtractText_CancelledBetweenPages(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{
		{embedded: "Page one embedded text, long enough to accept."},
		{embedded: "Page two embedded text, long enough to accept."},
	}}
	svc := newTestService(doc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ExtractText(ctx, pdfDoc())
	if !errors.IsCode(err, errors.ErrCodeExtractionTimeout) {
		t.Errorf("expected EXT_004 on cancelled context, got %v", err)
	}
}
