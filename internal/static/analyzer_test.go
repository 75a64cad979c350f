package static

import (
	"context"
	"testing"

	"github.com/intentguard/intentguard/internal/types"
)

func hasPattern(findings []types.Finding, p types.Pattern) bool {
	for _, f := range findings {
		if f.Pattern == p {
			return true
		}
	}
	return false
}

func TestAnalyze_SyntaxError(t *testing.T) {
	src := "def add(a,b)\n    return a+b\n"
	res, err := Analyze(context.Background(), src)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("expected exactly one finding, got %d: %+v", len(res.Findings), res.Findings)
	}
	if res.Findings[0].Pattern != types.PatternSyntaxError {
		t.Fatalf("expected syntax_error, got %s", res.Findings[0].Pattern)
	}
	if res.Findings[0].Severity < 8 {
		t.Fatalf("expected severity >= 8, got %d", res.Findings[0].Severity)
	}
}

func TestAnalyze_Hallucination(t *testing.T) {
	src := "def f(n):\n    return calc.factorial(n)\n"
	res, err := Analyze(context.Background(), src)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasPattern(res.Findings, types.PatternHallucinatedObject) {
		t.Fatalf("expected hallucinated_object finding, got %+v", res.Findings)
	}
}

func TestAnalyze_CleanCode(t *testing.T) {
	src := "def add(a, b):\n    return a + b\n"
	res, err := Analyze(context.Background(), src)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Findings) != 0 {
		t.Fatalf("expected no findings for clean code, got %+v", res.Findings)
	}
}

func TestAnalyze_MissingCornerCase(t *testing.T) {
	src := "def divide(a, b):\n    return a / b\n"
	res, err := Analyze(context.Background(), src)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasPattern(res.Findings, types.PatternMissingCornerCase) {
		t.Fatalf("expected missing_corner_case finding, got %+v", res.Findings)
	}
}

func TestIsBuiltin_NeverHallucinated(t *testing.T) {
	src := "def f(x):\n    return len(x)\n"
	res, err := Analyze(context.Background(), src)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if hasPattern(res.Findings, types.PatternHallucinatedObject) {
		t.Fatalf("builtin 'len' must never be reported as hallucination, got %+v", res.Findings)
	}
}

func TestCollectLiteralCandidates_MainGuardExempt(t *testing.T) {
	src := "def sort(x):\n    return sorted(x)\n\nif __name__ == \"__main__\":\n    print(sort([3, 1, 2]))\n"
	res, err := Analyze(context.Background(), src)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	found := false
	for _, c := range res.PromptBiasCandidates {
		if c.Text == "[3, 1, 2]" {
			found = true
			if !c.InsideMainGuard {
				t.Fatalf("expected literal inside __main__ guard to be tagged, got %+v", c)
			}
		}
	}
	if !found {
		t.Fatalf("expected to find literal [3, 1, 2] among candidates: %+v", res.PromptBiasCandidates)
	}
}

func TestDetectReturnShape(t *testing.T) {
	cases := []struct {
		src  string
		want ReturnShape
	}{
		{"def avg(nums):\n    return sum(nums)\n", ReturnShapeScalar},
		{"def sort(x):\n    return [1, 2, 3]\n", ReturnShapeSequence},
	}
	for _, tc := range cases {
		res, err := Analyze(context.Background(), tc.src)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if res.ReturnShapeSignal != tc.want {
			t.Errorf("src=%q: got %s, want %s", tc.src, res.ReturnShapeSignal, tc.want)
		}
	}
}
