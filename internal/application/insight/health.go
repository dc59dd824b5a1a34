// Package insight derives presentation-ready metrics from a completed
// document analysis: a contract health score, a deadline timeline, suggested
// negotiation strategies and clause benchmarks.  Every engine in this package
// is a pure function of an immutable DocumentAnalysis snapshot, so engines may
// run concurrently over the same instance and are recomputed on every request
// rather than cached.
package insight

import (
	"strings"

	"github.com/clauselens/clauselens/internal/domain/analysis"
)

// CategoryScores breaks the health score down into the four risk categories.
type CategoryScores struct {
	Legal       int `json:"legal"`
	Financial   int `json:"financial"`
	Compliance  int `json:"compliance"`
	Operational int `json:"operational"`
}

// HealthScore is the aggregate contract health assessment.  All scores are
// integers in [0, 100]; a document with no identified risks scores 100
// across the board.
type HealthScore struct {
	Overall    int            `json:"overall"`
	Categories CategoryScores `json:"categories"`
}

// Overall deductions per risk level.
const (
	overallPenaltyHigh   = 15
	overallPenaltyMedium = 8
	overallPenaltyLow    = 3
)

// Category deductions per risk level.  Steeper than the overall deductions
// because a category only pays for risks whose description matches its
// keyword set.
const (
	categoryPenaltyHigh   = 20
	categoryPenaltyMedium = 12
	categoryPenaltyLow    = 5
)

// categoryKeywords is the fixed keyword table used to attribute a risk to
// categories.  Matching is case-insensitive substring matching against the
// risk description; one risk may hit several categories at once.  This is a
// best-effort heuristic, not a classifier.
var categoryKeywords = map[string][]string{
	"legal":       {"legal", "law", "litigation"},
	"financial":   {"payment", "fee", "cost", "financial"},
	"compliance":  {"compliance", "regulation", "gdpr"},
	"operational": {"operational", "delivery", "timeline"},
}

// Score computes the health score for an analysed document.  The computation
// is an order-independent fold over the risk list.
func Score(a *analysis.DocumentAnalysis) HealthScore {
	overall := 100
	categories := map[string]int{
		"legal":       100,
		"financial":   100,
		"compliance":  100,
		"operational": 100,
	}

	if a != nil {
		for _, risk := range a.Risks {
			overall -= overallPenalty(risk.Level)

			desc := strings.ToLower(risk.Description)
			for category, keywords := range categoryKeywords {
				if matchesAny(desc, keywords) {
					categories[category] -= categoryPenalty(risk.Level)
				}
			}
		}
	}

	return HealthScore{
		Overall: clampScore(overall),
		Categories: CategoryScores{
			Legal:       clampScore(categories["legal"]),
			Financial:   clampScore(categories["financial"]),
			Compliance:  clampScore(categories["compliance"]),
			Operational: clampScore(categories["operational"]),
		},
	}
}

func overallPenalty(level analysis.RiskLevel) int {
	switch level {
	case analysis.RiskHigh:
		return overallPenaltyHigh
	case analysis.RiskLow:
		return overallPenaltyLow
	default:
		return overallPenaltyMedium
	}
}

func categoryPenalty(level analysis.RiskLevel) int {
	switch level {
	case analysis.RiskHigh:
		return categoryPenaltyHigh
	case analysis.RiskLow:
		return categoryPenaltyLow
	default:
		return categoryPenaltyMedium
	}
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
