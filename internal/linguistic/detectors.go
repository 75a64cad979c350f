package linguistic

import (
	"context"

	"github.com/intentguard/intentguard/internal/linguistic/evidence"
	"github.com/intentguard/intentguard/internal/linguistic/reasoner"
	"github.com/intentguard/intentguard/internal/linguistic/rules"
)

// NPCDetector runs the Non-Prompted-Consideration question's cascade:
// code behavior beyond what the prompt asked for.
func NPCDetector(ctx context.Context, rsn *reasoner.Reasoner, actx evidence.AnalysisContext, prompt, code string) DetectorOutput {
	return runCascade(ctx, rsn, evidence.QuestionNPC, rules.NPC, actx, prompt, code)
}

// PromptBiasDetector runs the Prompt-Bias question's cascade: literals
// from the prompt's examples hardcoded into decision-making code.
func PromptBiasDetector(ctx context.Context, rsn *reasoner.Reasoner, actx evidence.AnalysisContext, prompt, code string) DetectorOutput {
	return runCascade(ctx, rsn, evidence.QuestionPromptBias, rules.PromptBias, actx, prompt, code)
}

// MissingFeatureDetector runs the Missing-Feature question's cascade:
// action/data-type/return-shape keywords present in the prompt but
// absent from the code.
func MissingFeatureDetector(ctx context.Context, rsn *reasoner.Reasoner, actx evidence.AnalysisContext, prompt, code string) DetectorOutput {
	return runCascade(ctx, rsn, evidence.QuestionMissingFeature, rules.MissingFeature, actx, prompt, code)
}

// MisinterpretationDetector runs the Misinterpretation question's
// cascade: the code solves a different problem than the one requested.
func MisinterpretationDetector(ctx context.Context, rsn *reasoner.Reasoner, actx evidence.AnalysisContext, prompt, code string) DetectorOutput {
	return runCascade(ctx, rsn, evidence.QuestionMisinterpretation, rules.Misinterpretation, actx, prompt, code)
}
