package explainer

import (
	"strings"
	"testing"

	"github.com/intentguard/intentguard/internal/types"
)

func TestExplain_FillsFixHint(t *testing.T) {
	f := types.NewFinding(types.PatternHallucinatedObject, 8, 0.7,
		"reference to undefined name 'calc'", types.StageStatic)
	got := Explain(f)
	if got.FixHint == "" {
		t.Fatal("expected a fix hint to be filled in")
	}
}

func TestExplain_KeepsExistingFixHint(t *testing.T) {
	f := types.NewFinding(types.PatternMissingCornerCase, 5, 0.6, "division by zero", types.StageStatic).
		WithFixHint("guard the divisor")
	got := Explain(f)
	if got.FixHint != "guard the divisor" {
		t.Fatalf("expected upstream fix hint preserved, got %q", got.FixHint)
	}
}

func TestCatalog_CoversAllTenPatterns(t *testing.T) {
	catalog := Catalog()
	if len(catalog) != 10 {
		t.Fatalf("expected 10 catalog entries, got %d", len(catalog))
	}
	seen := make(map[types.Pattern]bool)
	for _, info := range catalog {
		if info.Description == "" || info.FixHint == "" {
			t.Errorf("pattern %s has an empty description or fix hint", info.Pattern)
		}
		seen[info.Pattern] = true
	}
	for p := range types.ValidPatterns {
		if !seen[p] {
			t.Errorf("pattern %s missing from catalog", p)
		}
	}
}

func TestSummarize_CleanCode(t *testing.T) {
	got := Summarize(nil)
	if !strings.Contains(got, "No defects") {
		t.Fatalf("expected an all-clear summary, got %q", got)
	}
}

func TestSummarize_NamesWorstFinding(t *testing.T) {
	findings := []types.Finding{
		types.NewFinding(types.PatternMissingCornerCase, 5, 0.6, "division", types.StageStatic),
		types.NewFinding(types.PatternHallucinatedObject, 9, 0.8, "undefined name", types.StageStatic),
	}
	got := Summarize(findings)
	if !strings.Contains(got, "2 findings") {
		t.Fatalf("expected the finding count, got %q", got)
	}
	if !strings.Contains(got, "critical") {
		t.Fatalf("expected the worst finding's severity band, got %q", got)
	}
	if !strings.Contains(got, "never defined") {
		t.Fatalf("expected the worst finding's label, got %q", got)
	}
}
