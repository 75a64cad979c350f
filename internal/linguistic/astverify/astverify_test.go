package astverify

import (
	"context"
	"testing"

	"github.com/intentguard/intentguard/internal/linguistic/evidence"
	"github.com/intentguard/intentguard/internal/linguistic/rules"
	"github.com/intentguard/intentguard/internal/static"
)

func parse(t *testing.T, source string) evidence.AnalysisContext {
	t.Helper()
	pr, err := static.Parse(context.Background(), source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	t.Cleanup(pr.Close)
	return evidence.AnalysisContext{Source: pr.Source, Root: pr.Tree.RootNode()}
}

func TestVerifyNPC_DiscardsCommentedPrint(t *testing.T) {
	src := "def add(a, b):\n    # print(a)\n    return a + b\n"
	ctx := parse(t, src)
	t1 := rules.NPC("add two numbers", src)
	if len(t1.Candidates) == 0 {
		t.Fatal("expected Tier 1 to overshoot on the commented print")
	}

	t2 := Verify(evidence.QuestionNPC, t1, ctx)
	if len(t2.Candidates) != 0 {
		t.Fatalf("expected the comment-line candidate discarded, got %+v", t2.Candidates)
	}
}

func TestVerifyNPC_KeepsRealPrint(t *testing.T) {
	src := "def add(a, b):\n    print(a)\n    return a + b\n"
	ctx := parse(t, src)
	t1 := rules.NPC("add two numbers", src)

	t2 := Verify(evidence.QuestionNPC, t1, ctx)
	if len(t2.Candidates) == 0 {
		t.Fatal("expected the real call-site candidate kept")
	}
	if t2.Candidates[0].Confidence != 0.7 {
		t.Fatalf("expected confidence boosted to 0.7 after structural confirmation, got %v", t2.Candidates[0].Confidence)
	}
}

func TestVerifyPromptBias_MainGuardExempt(t *testing.T) {
	src := "def sort(x):\n    return sorted(x)\n\nif __name__ == \"__main__\":\n    print(sort([3, 1, 2]))\n"
	ctx := parse(t, src)
	t1 := rules.PromptBias("sort the list, e.g., [3, 1, 2]", src)

	t2 := Verify(evidence.QuestionPromptBias, t1, ctx)
	if len(t2.Candidates) != 0 {
		t.Fatalf("literals inside the __main__ guard must never survive, got %+v", t2.Candidates)
	}
}

func TestVerifyPromptBias_KeepsDecisionSiteLiteral(t *testing.T) {
	src := "def sort(x):\n    return [1,2,3]\n"
	ctx := parse(t, src)
	t1 := rules.PromptBias("sort the list, e.g., [3,1,2]", src)
	if len(t1.Candidates) == 0 {
		t.Fatal("expected a Tier-1 hardcoded-sequence candidate")
	}

	t2 := Verify(evidence.QuestionPromptBias, t1, ctx)
	if len(t2.Candidates) == 0 {
		t.Fatal("expected the return-site literal kept")
	}
}

func TestVerifyGeneric_NoFunctionMeansNoEvidence(t *testing.T) {
	src := "x = 1\n"
	ctx := parse(t, src)
	t1 := rules.MissingFeature("sort the numbers", src)

	t2 := Verify(evidence.QuestionMissingFeature, t1, ctx)
	if len(t2.Candidates) != 0 {
		t.Fatalf("a program with no function definitions yields no missing-feature evidence, got %+v", t2.Candidates)
	}
}

func TestVerifyGeneric_PassesThroughWithFunction(t *testing.T) {
	src := "def f(x):\n    return x\n"
	ctx := parse(t, src)
	t1 := rules.MissingFeature("sort the numbers", src)
	if len(t1.Candidates) == 0 {
		t.Fatal("expected a Tier-1 missing-sort candidate")
	}

	t2 := Verify(evidence.QuestionMissingFeature, t1, ctx)
	if len(t2.Candidates) != len(t1.Candidates) {
		t.Fatalf("expected all candidates confirmed, got %d of %d", len(t2.Candidates), len(t1.Candidates))
	}
}
