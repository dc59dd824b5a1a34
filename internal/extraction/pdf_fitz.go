package extraction

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

// baseDPI is the PDF natural rendering resolution; RenderPage multiplies it
// by the requested oversampling factor.
const baseDPI = 72.0

// FitzEngine is the production DocumentEngine backed by MuPDF via go-fitz.
// It handles both the embedded text layer and page rasterization, so a
// single engine serves the text-first-then-OCR page loop.
type FitzEngine struct{}

// NewFitzEngine constructs a FitzEngine.
func NewFitzEngine() *FitzEngine {
	return &FitzEngine{}
}

// Open parses the document from memory.
func (e *FitzEngine) Open(data []byte) (PagedDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) PageCount() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) PageText(n int) (string, error) {
	return d.doc.Text(n)
}

func (d *fitzDocument) RenderPage(n int, scale float64) (image.Image, error) {
	return d.doc.ImageDPI(n, baseDPI*scale)
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
