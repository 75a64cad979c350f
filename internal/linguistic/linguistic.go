package linguistic

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/intentguard/intentguard/internal/config"
	"github.com/intentguard/intentguard/internal/linguistic/evidence"
	"github.com/intentguard/intentguard/internal/linguistic/intentmatch"
	"github.com/intentguard/intentguard/internal/linguistic/reasoner"
	"github.com/intentguard/intentguard/internal/logging"
	"github.com/intentguard/intentguard/internal/static"
	"github.com/intentguard/intentguard/internal/types"
)

// Result is everything the linguistic stage produces: the four
// detectors' findings, the linguistic_extras structured dump, and one
// stage log per detector.
type Result struct {
	Findings  []types.Finding
	Extras    types.LinguisticExtras
	Detectors []DetectorOutput
	StageLogs []types.StageLog
}

// questionPattern maps each linguistic question to the taxonomy tag
// it produces when found.
var questionPattern = map[evidence.Question]types.Pattern{
	evidence.QuestionNPC:               types.PatternNonPromptedConsideration,
	evidence.QuestionPromptBias:        types.PatternPromptBiasedCode,
	evidence.QuestionMissingFeature:    types.PatternMissingCornerCase,
	evidence.QuestionMisinterpretation: types.PatternMisinterpretation,
}

// Run executes the four linguistic detectors' Tier-1/2/3 pipelines
// concurrently, bounded by cfg.Limits.MaxConcurrentModelCalls. The
// detectors share no state, so their order is a scheduling choice.
func Run(ctx context.Context, cfg *config.Config, rsn *reasoner.Reasoner, prompt, code string, root *sitter.Node, source []byte) Result {
	timer := logging.StartTimer(logging.CategoryLinguistic, "Run")
	defer timer.Stop()

	actx := evidence.AnalysisContext{Prompt: prompt, Source: source, Root: root}

	identifiers := static.Identifiers(source, root)
	intentScore := intentmatch.Score(prompt, identifiers)

	type job struct {
		name string
		fn   func(context.Context, *reasoner.Reasoner, evidence.AnalysisContext, string, string) DetectorOutput
	}
	jobs := []job{
		{"npc", NPCDetector},
		{"prompt_bias", PromptBiasDetector},
		{"missing_feature", MissingFeatureDetector},
		{"misinterpretation", MisinterpretationDetector},
	}

	outputs := make([]DetectorOutput, len(jobs))
	stageLogs := make([]types.StageLog, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	if cfg != nil && cfg.Limits.MaxConcurrentModelCalls > 0 {
		g.SetLimit(cfg.Limits.MaxConcurrentModelCalls)
	}
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logging.Errorf(logging.CategoryLinguistic, "detector %s panicked: %v", j.name, r)
					stageLogs[i] = types.StageLog{StageName: "linguistic:" + j.name, Success: false, Error: "panic"}
				}
			}()
			sub := logging.StartTimer(logging.CategoryLinguistic, j.name)
			out := j.fn(gctx, rsn, actx, prompt, code)
			elapsed := sub.Stop()
			outputs[i] = out
			stageLogs[i] = types.StageLog{StageName: "linguistic:" + j.name, Success: true, ElapsedS: elapsed}
			return nil
		})
	}
	// Detector panics are recovered inside each goroutine and never
	// propagate, so g.Wait() only ever returns nil; errgroup still
	// provides the concurrency limit and context cancellation.
	_ = g.Wait()

	res := Result{
		Detectors: outputs,
		StageLogs: stageLogs,
		Extras:    types.LinguisticExtras{IntentMatchScore: intentScore},
	}

	for _, out := range outputs {
		if out.Question == "" {
			continue // a panicked slot left zero-valued
		}
		collectExtras(&res.Extras, out)
		if !out.Found {
			continue
		}
		pattern, ok := questionPattern[out.Question]
		if !ok {
			continue
		}
		f := types.NewFinding(pattern, out.Severity, out.Confidence, out.Summary, types.StageLinguistic)
		f.Evidence = map[string]string{"verdict_by": out.VerdictBy}
		res.Findings = append(res.Findings, f)
	}

	return res
}

func collectExtras(extras *types.LinguisticExtras, out DetectorOutput) {
	switch out.Question {
	case evidence.QuestionNPC:
		extras.UnpromptedFeatures = append(extras.UnpromptedFeatures, out.Items...)
	case evidence.QuestionPromptBias:
		extras.HardcodedValues = append(extras.HardcodedValues, out.Items...)
	case evidence.QuestionMissingFeature:
		extras.MissingFeatures = append(extras.MissingFeatures, out.Items...)
	}
}
