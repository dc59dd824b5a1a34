// Package analysis defines the canonical structured result produced by the
// document analysis pipeline and the persistence port for storing it.
package analysis

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RiskLevel is the closed severity enum for identified risks.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// ParseRiskLevel maps an analyzer-supplied level string onto the closed enum.
// Unrecognised values map to RiskMedium: a consumer must degrade gracefully
// rather than fail when the external analyzer drifts.
func ParseRiskLevel(s string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return RiskHigh
	case "low":
		return RiskLow
	case "medium":
		return RiskMedium
	default:
		return RiskMedium
	}
}

// Risk is a single identified risk in the analysed document.
type Risk struct {
	Level          RiskLevel `json:"level"`
	Description    string    `json:"description"`
	Recommendation string    `json:"recommendation"`
}

// Obligation is a duty imposed on a party, optionally with a deadline.
type Obligation struct {
	Party       string `json:"party"`
	Description string `json:"description"`
	Deadline    string `json:"deadline,omitempty"`
}

// Clause is an important clause extracted from the document.
type Clause struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Importance string `json:"importance"`
}

// Deadline is a dated event with a consequence for missing it.
type Deadline struct {
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
	Consequence string `json:"consequence"`
}

// DocumentAnalysis is the canonical structured result of analysing one
// document.  It is immutable once produced: derived engines treat it as a
// read-only snapshot and may run concurrently over the same instance.
//
// The slice fields are conceptually order-irrelevant sets, but consumers
// preserve the order returned by the external analyzer.
type DocumentAnalysis struct {
	Summary          string       `json:"summary"`
	DocumentType     string       `json:"document_type"`
	KeyPoints        []string     `json:"key_points"`
	Risks            []Risk       `json:"risks"`
	Obligations      []Obligation `json:"obligations"`
	ImportantClauses []Clause     `json:"important_clauses"`
	Deadlines        []Deadline   `json:"deadlines"`
}

// Normalize repairs malformed analyzer output in place: nil slices become
// empty and unknown risk levels fall back to medium.  It returns the receiver
// for chaining.
func (a *DocumentAnalysis) Normalize() *DocumentAnalysis {
	if a.KeyPoints == nil {
		a.KeyPoints = []string{}
	}
	if a.Risks == nil {
		a.Risks = []Risk{}
	}
	if a.Obligations == nil {
		a.Obligations = []Obligation{}
	}
	if a.ImportantClauses == nil {
		a.ImportantClauses = []Clause{}
	}
	if a.Deadlines == nil {
		a.Deadlines = []Deadline{}
	}
	for i := range a.Risks {
		a.Risks[i].Level = ParseRiskLevel(string(a.Risks[i].Level))
	}
	return a
}

// Degraded returns the best-effort fallback analysis produced when the
// pipeline fails.  The single generic medium risk is the user-visible signal
// of degradation; callers never see the underlying failure as an error.
func Degraded(fileName, reason string) *DocumentAnalysis {
	return &DocumentAnalysis{
		Summary: "Automated analysis of " + fileName + " could not be completed (" +
			reason + "). The document was received but requires manual review.",
		DocumentType: "Unknown",
		KeyPoints:    []string{},
		Risks: []Risk{{
			Level:          RiskMedium,
			Description:    "Automated analysis was incomplete; manual review required",
			Recommendation: "Have the document reviewed by a qualified professional before relying on it",
		}},
		Obligations:      []Obligation{},
		ImportantClauses: []Clause{},
		Deadlines:        []Deadline{},
	}
}

// Record wraps a DocumentAnalysis with identity and audit metadata for
// persistence.  The ID is the opaque analysis identifier referenced by
// upload states and API clients.
type Record struct {
	ID        string            `json:"id"`
	FileName  string            `json:"file_name"`
	ObjectKey string            `json:"object_key,omitempty"`
	Analysis  *DocumentAnalysis `json:"analysis"`

	// LowConfidence marks records whose source text fell below the viable
	// length threshold during extraction.
	LowConfidence bool `json:"low_confidence,omitempty"`

	// DegradedReason is set when Analysis is a fallback rather than a real
	// analyzer result.
	DegradedReason string `json:"degraded_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord constructs a Record with a fresh identifier.
func NewRecord(fileName string, a *DocumentAnalysis) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:        uuid.NewString(),
		FileName:  fileName,
		Analysis:  a,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ComparisonResult is the structured diff of two analysed documents, produced
// entirely by the external comparison capability.  The client side only
// assembles the payload and renders this structure.
type ComparisonResult struct {
	Differences     []Difference     `json:"differences"`
	RiskComparison  []RiskDelta      `json:"risk_comparison"`
	TermComparison  []TermComparison `json:"term_comparison"`
	Recommendations []string         `json:"recommendations"`
	Similarities    []string         `json:"similarities"`
}

// Difference describes one divergence between the two documents.
type Difference struct {
	Aspect    string `json:"aspect"`
	Document1 string `json:"document1"`
	Document2 string `json:"document2"`
	Impact    string `json:"impact"`
}

// RiskDelta compares risk posture for one area across both documents.
type RiskDelta struct {
	Area          string `json:"area"`
	Document1Risk string `json:"document1_risk"`
	Document2Risk string `json:"document2_risk"`
	SaferDocument string `json:"safer_document"`
}

// TermComparison rates which document's terms are more favourable for one term.
type TermComparison struct {
	Term           string `json:"term"`
	Document1Terms string `json:"document1_terms"`
	Document2Terms string `json:"document2_terms"`
	Favorable      string `json:"favorable"`
}
