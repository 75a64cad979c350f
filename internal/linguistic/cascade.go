// Package linguistic implements the four linguistic detectors, each
// sequencing the three-tier evidence stack: Tier 1 rule engine
// (internal/linguistic/rules), Tier 2 AST verifier
// (internal/linguistic/astverify), and Tier 3 LLM reasoner
// (internal/linguistic/reasoner). The intent-match auxiliary score
// lives in internal/linguistic/intentmatch.
package linguistic

import (
	"context"

	"github.com/intentguard/intentguard/internal/linguistic/astverify"
	"github.com/intentguard/intentguard/internal/linguistic/evidence"
	"github.com/intentguard/intentguard/internal/linguistic/reasoner"
	"github.com/intentguard/intentguard/internal/logging"
)

// questionText is what each detector asks the Tier-3 model
// explicitly.
var questionText = map[evidence.Question]string{
	evidence.QuestionNPC:               "Does this code implement behavior the prompt never asked for (debug output, logging, validation, authorization, caching, sorting) beyond what correctness requires?",
	evidence.QuestionPromptBias:        "Does this code special-case literal examples from the prompt instead of implementing the general algorithm?",
	evidence.QuestionMissingFeature:    "Does this code omit an action, data type, or return shape the prompt explicitly requested?",
	evidence.QuestionMisinterpretation: "Does this code solve a fundamentally different problem than the one the prompt requested?",
}

// tier1Func runs the rule engine for one question.
type tier1Func func(prompt, code string) evidence.Tier1Result

// DetectorOutput is the shared shape all four detectors return
// (per-question field naming is handled by the caller assembling
// LinguisticExtras).
type DetectorOutput struct {
	Question   evidence.Question
	Found      bool
	Items      []string // issues | features | values | reasons, depending on question
	Count      int
	Confidence float64
	Severity   int
	Summary    string
	VerdictBy  string
	Tier1      evidence.Tier1Result
	Tier2      evidence.Tier2Result
}

// runCascade runs Tier 1 -> Tier 2 -> Tier 3 for one question. Tiers
// 1 and 2 are evidence producers only; the Tier-3 verdict (or its
// fallback) is the single authority. Weighted voting across tiers
// makes findings cancel on disagreement, so all evidence flows
// forward into a single judgment instead.
func runCascade(ctx context.Context, rsn *reasoner.Reasoner, question evidence.Question, t1fn tier1Func, actx evidence.AnalysisContext, prompt, code string) DetectorOutput {
	timer := logging.StartTimer(logging.CategoryLinguistic, "cascade:"+string(question))
	defer timer.Stop()

	t1 := t1fn(prompt, code)
	t2 := astverify.Verify(question, t1, actx)

	req := reasoner.Request{
		Question:     question,
		Prompt:       prompt,
		Code:         code,
		Tier1Bullets: candidateBullets(t1.Candidates),
		Tier2Bullets: t2.Evidence,
		QuestionText: questionText[question],
		Tier1:        t1,
		Tier2:        t2,
	}
	verdict := rsn.Ask(ctx, req)

	confidence := verdict.Confidence()
	return DetectorOutput{
		Question:   question,
		Found:      verdict.Found,
		Items:      verdict.Issues,
		Count:      len(verdict.Issues),
		Confidence: confidence,
		Severity:   verdict.Severity,
		Summary:    verdict.Summary,
		VerdictBy:  verdict.VerdictBy,
		Tier1:      t1,
		Tier2:      t2,
	}
}

func candidateBullets(cs []evidence.Candidate) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.Rationale+": \""+c.Text+"\"")
	}
	return out
}
