package insight

import (
	"strings"

	"github.com/clauselens/clauselens/internal/domain/analysis"
)

// Rating grades a clause relative to market standard.
type Rating string

const (
	RatingBetter   Rating = "better"
	RatingStandard Rating = "standard"
	RatingWorse    Rating = "worse"
)

// RatedClause pairs one extracted clause with its benchmark verdict.
type RatedClause struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Importance string `json:"importance"`
	Rating     Rating `json:"rating"`

	// Standard names the matched industry standard; empty when the clause
	// matched none and was rated by the risk fallback.
	Standard   string `json:"standard,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// BenchmarkResult carries the rated clauses plus per-rating counts for
// summary display.
type BenchmarkResult struct {
	Clauses  []RatedClause `json:"clauses"`
	Better   int           `json:"better"`
	Standard int           `json:"standard"`
	Worse    int           `json:"worse"`
}

type clauseStandard struct {
	name       string
	keywords   []string
	rating     Rating
	suggestion string
}

// clauseStandards is the fixed benchmark table.  A clause matches a standard
// when any keyword appears in its title or content, case-insensitively; the
// first match in table order wins.
var clauseStandards = []clauseStandard{
	{
		name:       "Confidentiality",
		keywords:   []string{"confidential", "non-disclosure", "nda"},
		rating:     RatingStandard,
		suggestion: "Confirm the confidentiality term is bounded and obligations are mutual",
	},
	{
		name:       "Termination",
		keywords:   []string{"termination", "terminate"},
		rating:     RatingStandard,
		suggestion: "Check for symmetric notice periods and a cure period before termination for cause",
	},
	{
		name:       "Liability",
		keywords:   []string{"liability", "liable", "limitation of liability"},
		rating:     RatingWorse,
		suggestion: "Negotiate an aggregate liability cap and exclude consequential damages",
	},
	{
		name:       "Intellectual Property",
		keywords:   []string{"intellectual property", "copyright", "patent", "trademark"},
		rating:     RatingStandard,
		suggestion: "Verify assignment is limited to deliverables and background IP is retained",
	},
	{
		name:       "Payment Terms",
		keywords:   []string{"payment", "fees", "invoice", "compensation"},
		rating:     RatingBetter,
		suggestion: "Net payment terms and capped late fees compare favourably; keep them",
	},
	{
		name:       "Indemnification",
		keywords:   []string{"indemnif", "hold harmless"},
		rating:     RatingWorse,
		suggestion: "Seek mutual indemnities scoped to third-party claims only",
	},
}

// Benchmark rates every important clause of the analysis.  Each input clause
// appears exactly once in the output, in input order.
func Benchmark(a *analysis.DocumentAnalysis) BenchmarkResult {
	result := BenchmarkResult{Clauses: []RatedClause{}}
	if a == nil {
		return result
	}

	for _, clause := range a.ImportantClauses {
		rated := RatedClause{
			Title:      clause.Title,
			Content:    clause.Content,
			Importance: clause.Importance,
		}

		if std, ok := matchStandard(clause); ok {
			rated.Rating = std.rating
			rated.Standard = std.name
			rated.Suggestion = std.suggestion
		} else if riskMentionsClause(a.Risks, clause.Title) {
			rated.Rating = RatingWorse
			rated.Suggestion = "An identified risk references this clause; review it against market practice"
		} else {
			rated.Rating = RatingStandard
		}

		switch rated.Rating {
		case RatingBetter:
			result.Better++
		case RatingWorse:
			result.Worse++
		default:
			result.Standard++
		}
		result.Clauses = append(result.Clauses, rated)
	}
	return result
}

func matchStandard(clause analysis.Clause) (clauseStandard, bool) {
	title := strings.ToLower(clause.Title)
	content := strings.ToLower(clause.Content)
	for _, std := range clauseStandards {
		if matchesAny(title, std.keywords) || matchesAny(content, std.keywords) {
			return std, true
		}
	}
	return clauseStandard{}, false
}

func riskMentionsClause(risks []analysis.Risk, title string) bool {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return false
	}
	for _, risk := range risks {
		if strings.Contains(strings.ToLower(risk.Description), title) {
			return true
		}
	}
	return false
}
