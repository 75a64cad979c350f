// Package evidence holds the shared evidence types passed between the
// three tiers of the linguistic layer (Tier 1 rule engine, Tier 2 AST
// verifier, Tier 3 LLM reasoner) and the four detectors that sequence
// them. It exists as its own package, independent of
// internal/linguistic, internal/linguistic/rules,
// internal/linguistic/astverify, and internal/linguistic/reasoner, so
// those packages can all depend on the shared vocabulary without a
// dependency cycle back through the detector package that imports all
// three tiers.
package evidence

import sitter "github.com/smacker/go-tree-sitter"

// Question names one of the four semantic questions a detector asks.
type Question string

const (
	QuestionNPC               Question = "non_prompted_consideration"
	QuestionPromptBias        Question = "prompt_biased_code"
	QuestionMissingFeature    Question = "missing_corner_case"
	QuestionMisinterpretation Question = "misinterpretation"
)

// Candidate is a Tier-1 hit: high recall, low precision, always
// carrying the rationale a human reviewer would need to judge it.
// Confidence is the tier's own confidence in the candidate (0.4 for a
// bare Tier-1 regex hit, boosted to 0.7 once Tier-2 structurally
// confirms it) and is what the fallback verdict formula maxes over
// when no model is reachable.
type Candidate struct {
	Text       string
	Rationale  string
	Line       int
	Confidence float64
}

// Tier1Result is what the rule engine hands to the AST verifier.
type Tier1Result struct {
	Candidates []Candidate
}

// Tier2Result is what survives structural verification, with each
// kept candidate's AST-derived confidence boost.
type Tier2Result struct {
	Candidates []Candidate
	Evidence   []string // human-readable bullets for the Tier-3 prompt
}

// Verdict is the Tier-3 (or fallback-degraded) output shared by every
// detector, matching the model's JSON reply schema. Confidence
// is not part of that wire schema (the model reply carries no
// confidence field); the reasoner assigns it after the fact: 0.85 for
// a genuine model verdict, or the max of the contributing tiers'
// confidences when degraded to fallback.
type Verdict struct {
	Found     bool     `json:"found"`
	Issues    []string `json:"issues"`
	Severity  int      `json:"severity"`
	Summary   string   `json:"summary"`
	VerdictBy string   `json:"-"` // "llm" or "fallback", not part of the wire schema

	confidence float64
}

// Confidence returns the verdict's confidence, assigned by the
// reasoner rather than the model's JSON reply.
func (v Verdict) Confidence() float64 { return v.confidence }

// WithConfidence returns a copy of v with its confidence set.
func (v Verdict) WithConfidence(c float64) Verdict {
	v.confidence = c
	return v
}

// AnalysisContext bundles everything a detector needs: the prompt
// text, the parsed AST, and the raw source bytes for snippet
// extraction.
type AnalysisContext struct {
	Prompt string
	Source []byte
	Root   *sitter.Node
}
