package insight

import (
	"strings"
	"testing"

	"github.com/clauselens/clauselens/internal/domain/analysis"
)

func TestBuildStrategies_FiltersToHighAndMedium(t *testing.T) {
	a := &analysis.DocumentAnalysis{
		Risks: []analysis.Risk{
			{Level: analysis.RiskLow, Description: "minor formatting issue"},
			{Level: analysis.RiskHigh, Description: "uncapped liability for all damages"},
			{Level: analysis.RiskMedium, Description: "payment terms are net-90"},
		},
	}
	got := BuildStrategies(a)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].RiskLevel != analysis.RiskHigh || got[1].RiskLevel != analysis.RiskMedium {
		t.Errorf("levels = %s, %s", got[0].RiskLevel, got[1].RiskLevel)
	}
}

func TestBuildStrategies_CapsAtSix(t *testing.T) {
	risks := make([]analysis.Risk, 10)
	for i := range risks {
		risks[i] = analysis.Risk{Level: analysis.RiskHigh, Description: "termination without notice"}
	}
	got := BuildStrategies(&analysis.DocumentAnalysis{Risks: risks})
	if len(got) != 6 {
		t.Errorf("len = %d, want 6", len(got))
	}
}

func TestBuildStrategies_KeywordClassification(t *testing.T) {
	tests := []struct {
		desc         string
		wantLeverage int
	}{
		{"Broad indemnity obligations with uncapped liability", 90},
		{"Counterparty may terminate at will", 85},
		{"Invoice disputes forfeit all fee reductions", 80},
		{"All intellectual property is assigned on creation", 75},
		{"Confidentiality obligations are perpetual", 70},
		{"Warranty extends to fitness for any purpose", 68},
		{"Jurisdiction clause favours the counterparty", 65},
	}
	for _, tt := range tests {
		a := &analysis.DocumentAnalysis{
			Risks: []analysis.Risk{{Level: analysis.RiskHigh, Description: tt.desc}},
		}
		got := BuildStrategies(a)
		if len(got) != 1 {
			t.Fatalf("%q: len = %d", tt.desc, len(got))
		}
		s := got[0]
		if s.LeverageScore != tt.wantLeverage {
			t.Errorf("%q: leverage = %d, want %d", tt.desc, s.LeverageScore, tt.wantLeverage)
		}
		if s.CounterProposal == "" || s.Rationale == "" || s.FallbackPosition == "" || len(s.TalkingPoints) == 0 {
			t.Errorf("%q: incomplete strategy %+v", tt.desc, s)
		}
		if s.LeverageScore < 0 || s.LeverageScore > 100 {
			t.Errorf("%q: leverage out of range: %d", tt.desc, s.LeverageScore)
		}
	}
}

func TestBuildStrategies_PriorityOrder(t *testing.T) {
	// A description matching both liability and payment classifies as
	// liability: table order is the priority order.
	a := &analysis.DocumentAnalysis{
		Risks: []analysis.Risk{
			{Level: analysis.RiskHigh, Description: "liability for unpaid fees is unlimited"},
		},
	}
	got := BuildStrategies(a)
	if got[0].LeverageScore != 90 {
		t.Errorf("leverage = %d, want liability template (90)", got[0].LeverageScore)
	}
}

func TestBuildStrategies_TruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("liability exposure ", 10)
	a := &analysis.DocumentAnalysis{
		Risks: []analysis.Risk{{Level: analysis.RiskHigh, Description: long}},
	}
	got := BuildStrategies(a)
	if len(got[0].RiskTitle) >= len(long) {
		t.Errorf("title not truncated: %q", got[0].RiskTitle)
	}
	if !strings.HasSuffix(got[0].RiskTitle, "…") {
		t.Errorf("truncated title missing ellipsis: %q", got[0].RiskTitle)
	}
}

func TestBuildStrategies_Empty(t *testing.T) {
	if got := BuildStrategies(nil); len(got) != 0 {
		t.Errorf("nil analysis: len = %d", len(got))
	}
	if got := BuildStrategies(&analysis.DocumentAnalysis{}); len(got) != 0 {
		t.Errorf("no risks: len = %d", len(got))
	}
}
