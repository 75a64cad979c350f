package static

import (
	"context"
	"fmt"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/intentguard/intentguard/internal/logging"
	"github.com/intentguard/intentguard/internal/types"
)

// Detector is a pure function of (source, tree) producing zero or
// more findings.
type Detector func(source []byte, root *sitter.Node) []types.Finding

// Result aggregates everything the static layer produces for one
// analysis: the findings from detectors that produce them directly,
// the prompt-bias literal candidates and return-shape signal, and the
// parsed tree itself (reused by the linguistic AST verifier so the
// program is never parsed twice). No other package reads
// PromptBiasCandidates or ReturnShapeSignal; the linguistic verifier
// calls CollectLiteralCandidates on the tree itself.
type Result struct {
	Findings             []types.Finding
	PromptBiasCandidates []LiteralCandidate
	ReturnShapeSignal    ReturnShape
	Tree                 *sitter.Tree
	Source               []byte
	StageLog             types.StageLog
}

// coreDetectors pairs each finding-producing detector with a log
// label. The prompt-bias and return-shape detectors run separately
// below since their output is a surface on Result rather than
// findings.
var coreDetectors = []struct {
	name string
	fn   Detector
}{
	{"hallucination", DetectHallucination},
	{"incomplete_generation", DetectIncompleteGeneration},
	{"silly_mistake", DetectSillyMistake},
	{"wrong_attribute", DetectWrongAttribute},
	{"wrong_input_type", DetectWrongInputType},
	{"missing_corner_case", DetectMissingCornerCase},
}

// Analyze parses source and runs all nine detectors. Each of the six
// finding-producing detectors runs under its own recover, so a single
// detector's panic cannot suppress the rest; a panic is logged and
// marks the static stage log as failed.
func Analyze(ctx context.Context, source string) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryStatic, "Analyze")
	defer func() { timer.Stop() }()
	start := time.Now()

	pr, err := Parse(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("static: parse: %w", err)
	}

	res := &Result{Tree: pr.Tree, Source: pr.Source}

	// Syntax errors suppress all other findings; the classifier
	// enforces the suppression, the static layer just stops early.
	if pr.FirstError != nil {
		f := types.NewFinding(types.PatternSyntaxError, 9, 0.95,
			fmt.Sprintf("syntax error near %q", pr.FirstError.Message), types.StageStatic).
			WithLocation(pr.FirstError.Line).
			WithColumn(pr.FirstError.Column)
		res.Findings = append(res.Findings, f)
		res.StageLog = types.StageLog{StageName: "static", Success: true, ElapsedS: time.Since(start).Seconds()}
		return res, nil
	}

	root := pr.Tree.RootNode()

	var panicked []string
	for _, d := range coreDetectors {
		func(name string, fn Detector) {
			defer func() {
				if r := recover(); r != nil {
					logging.Errorf(logging.CategoryStatic, "detector %s panicked: %v", name, r)
					panicked = append(panicked, name)
				}
			}()
			res.Findings = append(res.Findings, fn(pr.Source, root)...)
		}(d.name, d.fn)
	}

	res.PromptBiasCandidates = CollectLiteralCandidates(pr.Source, root)
	res.ReturnShapeSignal = DetectReturnShape(pr.Source, root)

	res.StageLog = types.StageLog{StageName: "static", Success: len(panicked) == 0, ElapsedS: time.Since(start).Seconds()}
	if len(panicked) > 0 {
		res.StageLog.Error = "detector panicked: " + fmt.Sprint(panicked)
	}
	return res, nil
}
