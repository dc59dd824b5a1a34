// Package analyzer is the HTTP client for the external document-analysis
// capability.  The AI model behind it is opaque: this package only marshals
// requests, enforces timeouts/retries, and normalizes whatever comes back.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/clauselens/clauselens/internal/domain/analysis"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/pkg/errors"
)

// Client calls the external analysis service.
type Client interface {
	// Analyze submits extracted text for structured analysis.
	Analyze(ctx context.Context, text, fileName string) (*analysis.DocumentAnalysis, error)

	// Compare submits two analysed documents for a structured diff.
	Compare(ctx context.Context, doc1, doc2 NamedAnalysis) (*analysis.ComparisonResult, error)
}

// NamedAnalysis pairs a document name with its analysis for comparison.
type NamedAnalysis struct {
	Name     string                     `json:"name"`
	Analysis *analysis.DocumentAnalysis `json:"analysis"`
}

// Config carries the client tunables.
type Config struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

type httpClient struct {
	cfg    Config
	http   *http.Client
	logger logging.Logger
}

// New constructs a Client.  The per-request timeout is enforced by the
// caller's context; the underlying http.Client carries no timeout of its own
// so a single knob governs the stage.
func New(cfg Config, logger logging.Logger) Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &httpClient{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger.Named("analyzer"),
	}
}

type analyzeRequest struct {
	Text     string `json:"text"`
	FileName string `json:"file_name"`
}

type compareRequest struct {
	Doc1 NamedAnalysis `json:"doc1"`
	Doc2 NamedAnalysis `json:"doc2"`
}

func (c *httpClient) Analyze(ctx context.Context, text, fileName string) (*analysis.DocumentAnalysis, error) {
	var out analysis.DocumentAnalysis
	err := c.post(ctx, "/analyze", analyzeRequest{Text: text, FileName: fileName}, &out)
	if err != nil {
		return nil, err
	}
	return out.Normalize(), nil
}

func (c *httpClient) Compare(ctx context.Context, doc1, doc2 NamedAnalysis) (*analysis.ComparisonResult, error) {
	var out analysis.ComparisonResult
	err := c.post(ctx, "/compare", compareRequest{Doc1: doc1, Doc2: doc2}, &out)
	if err != nil {
		return nil, err
	}
	if out.Differences == nil {
		out.Differences = []analysis.Difference{}
	}
	if out.RiskComparison == nil {
		out.RiskComparison = []analysis.RiskDelta{}
	}
	if out.TermComparison == nil {
		out.TermComparison = []analysis.TermComparison{}
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	if out.Similarities == nil {
		out.Similarities = []string{}
	}
	return &out, nil
}

// post sends a JSON request and decodes the JSON response into out, retrying
// transient failures (network errors and 5xx responses) with linear backoff.
// 4xx responses are not retried: the payload will not get better.
func (c *httpClient) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode request")
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return timeoutError(ctx.Err())
			case <-time.After(time.Duration(attempt) * c.cfg.RetryBackoff):
			}
			c.logger.Warn("retrying analysis request",
				logging.String("path", path),
				logging.Int("attempt", attempt),
				logging.Err(lastErr),
			)
		}

		retriable, err := c.once(ctx, path, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retriable {
			return err
		}
		if ctx.Err() != nil {
			return timeoutError(ctx.Err())
		}
	}
	return lastErr
}

// once performs a single request attempt.  The bool reports whether the
// failure is worth retrying.
func (c *httpClient) once(ctx context.Context, path string, body []byte, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeAnalysisService, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, timeoutError(ctx.Err())
		}
		return true, errors.Wrap(err, errors.ErrCodeAnalysisService, "analysis service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		drainBody(resp.Body)
		return true, errors.Newf(errors.ErrCodeAnalysisService,
			"analysis service returned %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drainBody(resp.Body)
		return false, errors.Newf(errors.ErrCodeAnalysisService,
			"analysis service returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, errors.Wrap(err, errors.ErrCodeAnalysisInvalid,
			"failed to decode analysis response")
	}
	return false, nil
}

func timeoutError(cause error) error {
	return errors.Wrap(cause, errors.ErrCodeAnalysisTimeout, "analysis request timed out")
}

// drainBody reads a capped amount of the body so the connection can be reused.
func drainBody(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 4096))
}
