package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DocumentsClient accesses the document analysis resources.
type DocumentsClient struct {
	client *Client
}

// Risk is one identified contract risk.
type Risk struct {
	Level          string `json:"level"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// Obligation is one contractual obligation.
type Obligation struct {
	Party       string `json:"party"`
	Description string `json:"description"`
	Deadline    string `json:"deadline,omitempty"`
}

// Clause is one notable contract clause.
type Clause struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Importance string `json:"importance"`
}

// Deadline is one dated contract deadline.
type Deadline struct {
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
	Consequence string `json:"consequence"`
}

// DocumentAnalysis is the structured analysis of one document.
type DocumentAnalysis struct {
	Summary          string       `json:"summary"`
	DocumentType     string       `json:"document_type"`
	KeyPoints        []string     `json:"key_points"`
	Risks            []Risk       `json:"risks"`
	Obligations      []Obligation `json:"obligations"`
	ImportantClauses []Clause     `json:"important_clauses"`
	Deadlines        []Deadline   `json:"deadlines"`
}

// Document is a stored analysis record.
type Document struct {
	ID             string            `json:"id"`
	FileName       string            `json:"file_name"`
	ObjectKey      string            `json:"object_key,omitempty"`
	Analysis       *DocumentAnalysis `json:"analysis"`
	LowConfidence  bool              `json:"low_confidence,omitempty"`
	DegradedReason string            `json:"degraded_reason,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// DocumentList is a page of analysis records.
type DocumentList struct {
	Documents []Document `json:"documents"`
	Count     int        `json:"count"`
}

// ListOptions filters the document listing.
type ListOptions struct {
	FileName string
	Limit    int
	Offset   int
}

// UploadStatus reports the progress of an in-flight upload.
type UploadStatus struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	ResultRef string    `json:"result_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HealthScore is the computed contract health score.
type HealthScore struct {
	Overall    int `json:"overall"`
	Categories struct {
		Legal       int `json:"legal"`
		Financial   int `json:"financial"`
		Compliance  int `json:"compliance"`
		Operational int `json:"operational"`
	} `json:"categories"`
}

// TimelineEvent is one entry of the deadline timeline.
type TimelineEvent struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Consequence string `json:"consequence,omitempty"`
	Urgency     string `json:"urgency"`
	Priority    string `json:"priority"`
}

// TimelineResponse is the timeline listing.
type TimelineResponse struct {
	Events []TimelineEvent `json:"events"`
	Count  int             `json:"count"`
}

// NegotiationStrategy is one suggested negotiation approach for a risk.
type NegotiationStrategy struct {
	RiskTitle        string   `json:"risk_title"`
	RiskLevel        string   `json:"risk_level"`
	CurrentIssue     string   `json:"current_issue"`
	CounterProposal  string   `json:"counter_proposal"`
	TalkingPoints    []string `json:"talking_points"`
	LeverageScore    int      `json:"leverage_score"`
	Rationale        string   `json:"rationale"`
	FallbackPosition string   `json:"fallback_position"`
}

// StrategiesResponse is the negotiation strategy listing.
type StrategiesResponse struct {
	Strategies []NegotiationStrategy `json:"strategies"`
	Count      int                   `json:"count"`
}

// RatedClause is one clause compared against its market standard.
type RatedClause struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Importance string `json:"importance"`
	Rating     string `json:"rating"`
	Standard   string `json:"standard,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// BenchmarkResult rates the document's clauses against market standards.
type BenchmarkResult struct {
	Clauses  []RatedClause `json:"clauses"`
	Better   int           `json:"better"`
	Standard int           `json:"standard"`
	Worse    int           `json:"worse"`
}

// ComparisonResult is the structured comparison of two documents.
type ComparisonResult struct {
	Differences []struct {
		Aspect    string `json:"aspect"`
		Document1 string `json:"document1"`
		Document2 string `json:"document2"`
		Impact    string `json:"impact"`
	} `json:"differences"`
	RiskComparison []struct {
		Area          string `json:"area"`
		Document1Risk string `json:"document1_risk"`
		Document2Risk string `json:"document2_risk"`
		SaferDocument string `json:"safer_document"`
	} `json:"risk_comparison"`
	TermComparison []struct {
		Term           string `json:"term"`
		Document1Terms string `json:"document1_terms"`
		Document2Terms string `json:"document2_terms"`
		Favorable      string `json:"favorable"`
	} `json:"term_comparison"`
	Recommendations []string `json:"recommendations"`
	Similarities    []string `json:"similarities"`
}

// Upload submits a document for analysis and blocks until the analysis
// record is available.
func (dc *DocumentsClient) Upload(ctx context.Context, fileName string, content io.Reader) (*Document, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read document content: %w", err)
	}

	encode := func() (io.Reader, string, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			return nil, "", fmt.Errorf("failed to build multipart body: %w", err)
		}
		if _, err := fw.Write(data); err != nil {
			return nil, "", fmt.Errorf("failed to write multipart body: %w", err)
		}
		if err := mw.Close(); err != nil {
			return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
		}
		return &buf, mw.FormDataContentType(), nil
	}

	var doc Document
	if err := dc.client.doRaw(ctx, http.MethodPost, "/api/v1/documents", encode, &doc, nil); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Get fetches one analysis record by ID.
func (dc *DocumentsClient) Get(ctx context.Context, id string) (*Document, error) {
	var doc Document
	if err := dc.client.get(ctx, "/api/v1/documents/"+url.PathEscape(id), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List fetches analysis records matching the filter.
func (dc *DocumentsClient) List(ctx context.Context, opts ListOptions) (*DocumentList, error) {
	q := url.Values{}
	if opts.FileName != "" {
		q.Set("file_name", opts.FileName)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	path := "/api/v1/documents"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var list DocumentList
	if err := dc.client.get(ctx, path, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Delete removes one analysis record and its archived source document.
func (dc *DocumentsClient) Delete(ctx context.Context, id string) error {
	return dc.client.delete(ctx, "/api/v1/documents/"+url.PathEscape(id))
}

// Status fetches the progress of an in-flight upload.
func (dc *DocumentsClient) Status(ctx context.Context, uploadID string) (*UploadStatus, error) {
	var status UploadStatus
	if err := dc.client.get(ctx, "/api/v1/uploads/"+url.PathEscape(uploadID), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Health fetches the computed contract health score.
func (dc *DocumentsClient) Health(ctx context.Context, id string) (*HealthScore, error) {
	var score HealthScore
	if err := dc.client.get(ctx, "/api/v1/documents/"+url.PathEscape(id)+"/health", &score); err != nil {
		return nil, err
	}
	return &score, nil
}

// Timeline fetches the merged deadline timeline.
func (dc *DocumentsClient) Timeline(ctx context.Context, id string) (*TimelineResponse, error) {
	var resp TimelineResponse
	if err := dc.client.get(ctx, "/api/v1/documents/"+url.PathEscape(id)+"/timeline", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TimelineCalendar fetches the plain-text calendar export of the timeline.
func (dc *DocumentsClient) TimelineCalendar(ctx context.Context, id string) (string, error) {
	var raw []byte
	path := "/api/v1/documents/" + url.PathEscape(id) + "/timeline/calendar"
	if err := dc.client.doRaw(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

// Strategies fetches the negotiation strategies for the document's risks.
func (dc *DocumentsClient) Strategies(ctx context.Context, id string) (*StrategiesResponse, error) {
	var resp StrategiesResponse
	if err := dc.client.get(ctx, "/api/v1/documents/"+url.PathEscape(id)+"/strategies", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Benchmark fetches the clause benchmark against market standards.
func (dc *DocumentsClient) Benchmark(ctx context.Context, id string) (*BenchmarkResult, error) {
	var result BenchmarkResult
	if err := dc.client.get(ctx, "/api/v1/documents/"+url.PathEscape(id)+"/benchmark", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Compare submits two analysed documents for comparison.
func (dc *DocumentsClient) Compare(ctx context.Context, document1ID, document2ID string) (*ComparisonResult, error) {
	body := map[string]string{
		"document1_id": document1ID,
		"document2_id": document2ID,
	}
	var result ComparisonResult
	if err := dc.client.post(ctx, "/api/v1/comparisons", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
