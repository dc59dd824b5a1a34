package insight

import (
	"strings"

	"github.com/clauselens/clauselens/internal/domain/analysis"
)

// NegotiationStrategy is a suggested counter-position for one qualifying
// risk.  The content comes from a static editorial template keyed by the
// risk's keyword category; the leverage score is a fixed per-category value,
// not a computed metric.
type NegotiationStrategy struct {
	RiskTitle        string             `json:"risk_title"`
	RiskLevel        analysis.RiskLevel `json:"risk_level"`
	CurrentIssue     string             `json:"current_issue"`
	CounterProposal  string             `json:"counter_proposal"`
	TalkingPoints    []string           `json:"talking_points"`
	LeverageScore    int                `json:"leverage_score"`
	Rationale        string             `json:"rationale"`
	FallbackPosition string             `json:"fallback_position"`
}

// maxStrategies caps the strategy list so the output stays actionable.
const maxStrategies = 6

type strategyTemplate struct {
	keywords         []string
	currentIssue     string
	counterProposal  string
	talkingPoints    []string
	leverageScore    int
	rationale        string
	fallbackPosition string
}

// strategyTemplates is evaluated in order; the first template whose keywords
// match the risk description wins.  The final entry has no keywords and acts
// as the generic fallback.
var strategyTemplates = []strategyTemplate{
	{
		keywords:        []string{"liability", "indemnity", "indemnif"},
		currentIssue:    "Liability exposure is broad or uncapped",
		counterProposal: "Cap aggregate liability at 12 months of fees and exclude indirect and consequential damages",
		talkingPoints: []string{
			"Uncapped liability is outside market norms for agreements of this size",
			"A mutual cap protects both parties symmetrically",
			"Insurance coverage ceilings make unlimited exposure impractical",
		},
		leverageScore:    90,
		rationale:        "Liability caps are among the most commonly negotiated terms and counterparties expect pushback",
		fallbackPosition: "Accept a higher cap (24 months of fees) with carve-outs limited to confidentiality breaches and IP infringement",
	},
	{
		keywords:        []string{"termination", "terminate", "cancel"},
		currentIssue:    "Termination rights are one-sided or abrupt",
		counterProposal: "Require mutual termination for convenience with at least 60 days written notice",
		talkingPoints: []string{
			"Symmetric termination rights are standard in comparable agreements",
			"A notice period protects transition planning on both sides",
			"Cure periods before termination for cause avoid disputes over minor breaches",
		},
		leverageScore:    85,
		rationale:        "One-sided termination clauses are hard to defend commercially once raised",
		fallbackPosition: "Accept asymmetric notice periods provided a 30-day cure period applies to any termination for cause",
	},
	{
		keywords:        []string{"payment", "fee", "invoice"},
		currentIssue:    "Payment terms are unfavourable or penalties are steep",
		counterProposal: "Move to net-30 payment terms and cap late-payment interest at the statutory rate",
		talkingPoints: []string{
			"Net-30 is the prevailing standard for services of this kind",
			"Compounding late fees above statutory rates are frequently unenforceable",
			"Disputed invoice amounts should be severable from undisputed ones",
		},
		leverageScore:    80,
		rationale:        "Payment mechanics are routine negotiation territory with little relationship cost",
		fallbackPosition: "Accept net-15 on undisputed amounts in exchange for removing late-payment penalties entirely",
	},
	{
		keywords:        []string{"intellectual property", "ip ", "ip,", "ip."},
		currentIssue:    "Intellectual property assignment is broader than the engagement requires",
		counterProposal: "Limit assignment to deliverables created specifically under this agreement, with a licence back for pre-existing materials",
		talkingPoints: []string{
			"Background IP and general know-how should remain with the originating party",
			"A deliverables-only assignment fully covers the counterparty's business need",
			"Broad assignments create downstream conflicts with other engagements",
		},
		leverageScore:    75,
		rationale:        "Scoped IP assignment is a well-understood compromise that rarely blocks signature",
		fallbackPosition: "Grant a perpetual royalty-free licence to background IP embedded in deliverables instead of assignment",
	},
	{
		keywords:        []string{"confidential", "nda", "non-disclosure"},
		currentIssue:    "Confidentiality obligations are unbounded or one-way",
		counterProposal: "Make confidentiality mutual with a 3-year term and standard exclusions for independently developed information",
		talkingPoints: []string{
			"Mutual obligations reflect that both parties exchange sensitive information",
			"Perpetual confidentiality is unenforceable in several jurisdictions",
			"Standard exclusions prevent accidental breach claims",
		},
		leverageScore:    70,
		rationale:        "Confidentiality terms converge quickly on market standard once raised",
		fallbackPosition: "Accept a 5-year term with trade secrets carved out as perpetual",
	},
	{
		keywords:        []string{"warranty", "guarantee"},
		currentIssue:    "Warranties are broader than industry standard",
		counterProposal: "Limit warranties to conformance with documentation for 90 days, with re-performance as the exclusive remedy",
		talkingPoints: []string{
			"Fitness-for-purpose warranties shift specification risk unfairly",
			"Re-performance remedies resolve most defects without dispute",
			"A defined warranty window gives both parties certainty",
		},
		leverageScore:    68,
		rationale:        "Warranty scope is technical enough that reasoned proposals usually land",
		fallbackPosition: "Extend the warranty window to 180 days with the remedy unchanged",
	},
	{
		// Generic fallback for risks that match no category.
		currentIssue:    "The identified risk lacks contractual protection",
		counterProposal: "Propose explicit language addressing the risk with defined responsibilities and remedies",
		talkingPoints: []string{
			"Explicit terms prevent disputes over implied obligations",
			"Both parties benefit from predictable allocation of this risk",
		},
		leverageScore:    65,
		rationale:        "Unaddressed risks are easier to negotiate before signature than after a dispute",
		fallbackPosition: "Record the concern in a side letter if the counterparty resists amending the main agreement",
	},
}

// BuildStrategies derives negotiation strategies for the document's high and
// medium risks, at most maxStrategies entries, in input risk order.
func BuildStrategies(a *analysis.DocumentAnalysis) []NegotiationStrategy {
	strategies := []NegotiationStrategy{}
	if a == nil {
		return strategies
	}

	for _, risk := range a.Risks {
		if risk.Level != analysis.RiskHigh && risk.Level != analysis.RiskMedium {
			continue
		}
		if len(strategies) == maxStrategies {
			break
		}

		tpl := classifyRisk(risk.Description)
		strategies = append(strategies, NegotiationStrategy{
			RiskTitle:        riskTitle(risk.Description),
			RiskLevel:        risk.Level,
			CurrentIssue:     tpl.currentIssue,
			CounterProposal:  tpl.counterProposal,
			TalkingPoints:    append([]string(nil), tpl.talkingPoints...),
			LeverageScore:    tpl.leverageScore,
			Rationale:        tpl.rationale,
			FallbackPosition: tpl.fallbackPosition,
		})
	}
	return strategies
}

func classifyRisk(description string) strategyTemplate {
	desc := strings.ToLower(description)
	for _, tpl := range strategyTemplates {
		if len(tpl.keywords) == 0 {
			return tpl
		}
		if matchesAny(desc, tpl.keywords) {
			return tpl
		}
	}
	return strategyTemplates[len(strategyTemplates)-1]
}

// riskTitle shortens a risk description into a heading.
func riskTitle(description string) string {
	const maxTitleLen = 80
	description = strings.TrimSpace(description)
	if len(description) <= maxTitleLen {
		return description
	}
	cut := strings.LastIndex(description[:maxTitleLen], " ")
	if cut <= 0 {
		cut = maxTitleLen
	}
	return description[:cut] + "…"
}
