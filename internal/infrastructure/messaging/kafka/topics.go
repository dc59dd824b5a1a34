// Package kafka carries the document lifecycle events between the API server
// and the background worker.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/clauselens/clauselens/pkg/errors"
)

const (
	// TopicDocumentUploaded is emitted when a document has been received
	// and stored, before analysis begins.
	TopicDocumentUploaded = "document.uploaded"

	// TopicDocumentAnalyzed is emitted when the pipeline finished,
	// including degraded results.
	TopicDocumentAnalyzed = "document.analyzed"

	// TopicDocumentAnalysisFailed is emitted when a stage failed and the
	// degraded fallback was substituted.
	TopicDocumentAnalysisFailed = "document.analysis_failed"
)

// EventEnvelope is the wire format for all events.  The payload is one of
// the typed payload structs below, selected by EventType.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// DocumentUploadedPayload describes a received document.
type DocumentUploadedPayload struct {
	AnalysisID string    `json:"analysis_id"`
	FileName   string    `json:"file_name"`
	ObjectKey  string    `json:"object_key"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// DocumentAnalyzedPayload summarizes a finished analysis.
type DocumentAnalyzedPayload struct {
	AnalysisID    string    `json:"analysis_id"`
	FileName      string    `json:"file_name"`
	RiskCount     int       `json:"risk_count"`
	HighRiskCount int       `json:"high_risk_count"`
	Degraded      bool      `json:"degraded"`
	LowConfidence bool      `json:"low_confidence"`
	AnalyzedAt    time.Time `json:"analyzed_at"`
}

// DocumentAnalysisFailedPayload carries the failure that triggered the
// degraded fallback.
type DocumentAnalysisFailedPayload struct {
	AnalysisID string    `json:"analysis_id"`
	FileName   string    `json:"file_name"`
	ErrorCode  string    `json:"error_code"`
	Reason     string    `json:"reason"`
	FailedAt   time.Time `json:"failed_at"`
}

// NewEventEnvelope wraps a typed payload in a versioned envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeValidation, "event payload is empty")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode payload")
	}
	return nil
}

// ParseEnvelope decodes a raw message value into an envelope.
func ParseEnvelope(value []byte) (*EventEnvelope, error) {
	if len(value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}
