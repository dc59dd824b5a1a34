package analysis

import (
	"encoding/json"
	"testing"
)

func TestParseRiskLevel(t *testing.T) {
	cases := []struct {
		in   string
		want RiskLevel
	}{
		{"high", RiskHigh},
		{"HIGH", RiskHigh},
		{" High ", RiskHigh},
		{"medium", RiskMedium},
		{"low", RiskLow},
		{"", RiskMedium},
		{"critical", RiskMedium}, // unknown levels degrade to medium
		{"severe", RiskMedium},
	}
	for _, c := range cases {
		if got := ParseRiskLevel(c.in); got != c.want {
			t.Errorf("ParseRiskLevel(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestNormalize_RepairsMalformedOutput(t *testing.T) {
	a := &DocumentAnalysis{
		Summary: "partial",
		Risks: []Risk{
			{Level: "catastrophic", Description: "unknown level"},
			{Level: RiskHigh, Description: "kept"},
		},
	}
	a.Normalize()

	if a.KeyPoints == nil || a.Obligations == nil || a.ImportantClauses == nil || a.Deadlines == nil {
		t.Fatal("Normalize must replace nil slices with empty ones")
	}
	if a.Risks[0].Level != RiskMedium {
		t.Errorf("unknown level = %s, want medium", a.Risks[0].Level)
	}
	if a.Risks[1].Level != RiskHigh {
		t.Errorf("known level altered: %s", a.Risks[1].Level)
	}
}

func TestNormalize_FromAnalyzerJSON(t *testing.T) {
	// A realistic sparse analyzer payload: missing arrays, odd casing.
	payload := `{"summary":"NDA between two parties","document_type":"NDA",
		"risks":[{"level":"High","description":"unlimited liability"}]}`

	var a DocumentAnalysis
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		t.Fatal(err)
	}
	a.Normalize()

	if len(a.Deadlines) != 0 {
		t.Errorf("expected empty deadlines, got %v", a.Deadlines)
	}
	if a.Risks[0].Level != RiskHigh {
		t.Errorf("level = %s, want high", a.Risks[0].Level)
	}
}

func TestDegraded_Shape(t *testing.T) {
	a := Degraded("contract.pdf", "analysis timed out")

	if len(a.Risks) != 1 {
		t.Fatalf("degraded analysis must carry exactly one generic risk, got %d", len(a.Risks))
	}
	if a.Risks[0].Level != RiskMedium {
		t.Errorf("degraded risk level = %s, want medium", a.Risks[0].Level)
	}
	if a.KeyPoints == nil || a.Obligations == nil || a.ImportantClauses == nil || a.Deadlines == nil {
		t.Error("degraded analysis must be structurally complete")
	}
}

func TestNewRecord(t *testing.T) {
	a := (&DocumentAnalysis{}).Normalize()
	r1 := NewRecord("a.pdf", a)
	r2 := NewRecord("a.pdf", a)

	if r1.ID == "" || r1.ID == r2.ID {
		t.Error("records must get distinct non-empty IDs")
	}
	if r1.CreatedAt.IsZero() || !r1.CreatedAt.Equal(r1.UpdatedAt) {
		t.Error("timestamps not initialised")
	}
}
