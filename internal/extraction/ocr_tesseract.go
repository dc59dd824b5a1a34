package extraction

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/clauselens/clauselens/pkg/errors"
)

// TesseractOCR is the production OCREngine backed by a local tesseract
// install via gosseract.  A gosseract client is not safe for concurrent use,
// so one is created per call.
type TesseractOCR struct {
	language string
}

// NewTesseractOCR constructs a TesseractOCR for the given language code
// ("eng" when empty).
func NewTesseractOCR(language string) *TesseractOCR {
	if language == "" {
		language = "eng"
	}
	return &TesseractOCR{language: language}
}

// Recognize runs OCR over the rendered page.  The context is consulted
// before the engine call; gosseract itself does not support cancellation
// mid-recognition.
func (t *TesseractOCR) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "OCR cancelled")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "failed to encode page bitmap")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "failed to set OCR language")
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "failed to load page bitmap")
	}

	text, err := client.Text()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "tesseract recognition failed")
	}
	return text, nil
}
