package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clauselens/clauselens/internal/application/insight"
	domain "github.com/clauselens/clauselens/internal/domain/analysis"
	"github.com/clauselens/clauselens/internal/domain/upload"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/pkg/errors"
)

// AnalysisService is the application-layer port the document handlers drive.
type AnalysisService interface {
	Analyze(ctx context.Context, fileName string, data []byte) (*domain.Record, error)
	Get(ctx context.Context, id string) (*domain.Record, error)
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.Record, error)
	Delete(ctx context.Context, id string) error
	Compare(ctx context.Context, id1, id2 string) (*domain.ComparisonResult, error)
	Tracker() *upload.Tracker
}

// DocumentHandler serves the document analysis endpoints.
type DocumentHandler struct {
	svc            AnalysisService
	maxUploadBytes int64
	logger         logging.Logger
	now            func() time.Time
}

// NewDocumentHandler constructs a DocumentHandler.
func NewDocumentHandler(svc AnalysisService, maxUploadBytes int64, logger logging.Logger) *DocumentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 << 20
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DocumentHandler{
		svc:            svc,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.Named("http.documents"),
		now:            time.Now,
	}
}

// Upload accepts a multipart document upload under the "file" field, runs the
// analysis pipeline synchronously and returns the persisted record.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeAppError(w, errors.InvalidParam("invalid multipart upload").WithCause(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAppError(w, errors.InvalidParam("missing \"file\" form field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeAppError(w, errors.InvalidParam("failed to read uploaded file").WithCause(err))
		return
	}

	rec, err := h.svc.Analyze(r.Context(), header.Filename, data)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// List returns analysis records, newest first.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseListParams(r)
	filter := domain.ListFilter{
		FileName: r.URL.Query().Get("file_name"),
		Limit:    limit,
		Offset:   offset,
	}
	records, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": records,
		"count":     len(records),
	})
}

// Get returns one analysis record.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Delete removes a record and its stored document.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadStatus reports the lifecycle state of an in-flight upload.
func (h *DocumentHandler) UploadStatus(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.Tracker().Get(chi.URLParam(r, "uploadID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state.Snapshot())
}

// Health computes the contract health score for a document.
func (h *DocumentHandler) Health(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, insight.Score(rec.Analysis))
}

// Timeline returns the chronological deadline and obligation timeline.
func (h *DocumentHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	events := insight.BuildTimeline(rec.Analysis, h.now())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// TimelineCalendar exports the timeline as a plain-text calendar document.
func (h *DocumentHandler) TimelineCalendar(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	events := insight.BuildTimeline(rec.Analysis, h.now())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+rec.FileName+`.calendar.txt"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(insight.ExportCalendar(events)))
}

// Strategies returns negotiation strategies for the document's risks.
func (h *DocumentHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	strategies := insight.BuildStrategies(rec.Analysis)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"strategies": strategies,
		"count":      len(strategies),
	})
}

// Benchmark rates the document's clauses against market standards.
func (h *DocumentHandler) Benchmark(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, insight.Benchmark(rec.Analysis))
}

// compareRequest is the POST /comparisons body.
type compareRequest struct {
	Document1ID string `json:"document1_id"`
	Document2ID string `json:"document2_id"`
}

// Compare produces a structured diff of two analysed documents.
func (h *DocumentHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, errors.InvalidParam("invalid comparison request body").WithCause(err))
		return
	}
	if req.Document1ID == "" || req.Document2ID == "" {
		writeAppError(w, errors.InvalidParam("document1_id and document2_id are required"))
		return
	}
	if req.Document1ID == req.Document2ID {
		writeAppError(w, errors.InvalidParam("cannot compare a document with itself"))
		return
	}

	result, err := h.svc.Compare(r.Context(), req.Document1ID, req.Document2ID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// load fetches the record addressed by the documentID URL parameter, writing
// the error response itself on failure.
func (h *DocumentHandler) load(w http.ResponseWriter, r *http.Request) (*domain.Record, bool) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeAppError(w, err)
		return nil, false
	}
	return rec, true
}
