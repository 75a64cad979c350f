// Package explainer turns classified Findings into human-readable
// descriptions, severity bands, and fix hints via pattern-keyed
// templates, and rolls a whole Analysis's findings up into one
// summary paragraph.
package explainer

import (
	"fmt"
	"strings"

	"github.com/intentguard/intentguard/internal/types"
)

// template is one pattern's canned phrasing: label is the catalog
// description and the wording Summarize uses, fixHint is the static
// remediation text Explain fills in.
type template struct {
	label   string
	fixHint string
}

var templates = map[types.Pattern]template{
	types.PatternSyntaxError: {
		label:   "the code does not parse",
		fixHint: "fix the syntax error before any further analysis can run",
	},
	types.PatternHallucinatedObject: {
		label:   "the code references a name that was never defined, imported, or is not a builtin",
		fixHint: "define the name, import the right module, or correct the spelling",
	},
	types.PatternIncompleteGeneration: {
		label:   "the code appears to stop short of a complete implementation",
		fixHint: "fill in the missing branch, return, or function body",
	},
	types.PatternSillyMistake: {
		label:   "the code contains an operator or comparison that is almost certainly a typo",
		fixHint: "double check the operator against the intended comparison or assignment",
	},
	types.PatternWrongAttribute: {
		label:   "the code accesses an attribute or method that the inferred type does not have",
		fixHint: "use a method that actually exists on this type, or fix the type inference upstream",
	},
	types.PatternWrongInputType: {
		label:   "the code calls a function with an argument of the wrong type",
		fixHint: "convert the argument to the type the function expects",
	},
	types.PatternNonPromptedConsideration: {
		label:   "the code implements behavior the prompt never asked for",
		fixHint: "remove the unrequested behavior, or confirm it is actually wanted and fold it into the prompt",
	},
	types.PatternPromptBiasedCode: {
		label:   "the code special-cases literal examples from the prompt instead of the general rule",
		fixHint: "replace the hardcoded special case with the general algorithm it was meant to implement",
	},
	types.PatternMissingCornerCase: {
		label:   "the code omits a guard for a boundary input, or an action, data type, or return shape the prompt explicitly requested",
		fixHint: "guard the boundary input, or add the missing behavior named in the prompt",
	},
	types.PatternMisinterpretation: {
		label:   "the code solves a different problem than the one the prompt requested",
		fixHint: "re-read the prompt and re-derive the algorithm from what it actually asks for",
	},
}

// Explain fills in FixHint from the pattern's template when upstream
// left it empty; Description and Severity are left untouched. It
// returns a copy, matching the rest of the Finding API's
// copy-and-return idiom.
func Explain(f types.Finding) types.Finding {
	t, ok := templates[f.Pattern]
	if !ok {
		return f
	}
	if f.FixHint == "" {
		f.FixHint = t.fixHint
	}
	return f
}

// ExplainAll applies Explain to every finding in place order,
// returning a new slice.
func ExplainAll(findings []types.Finding) []types.Finding {
	out := make([]types.Finding, len(findings))
	for i, f := range findings {
		out[i] = Explain(f)
	}
	return out
}

// PatternInfo is one row of the pattern catalog endpoint, built from
// the same template table the explanations use so the two can never
// drift apart.
type PatternInfo struct {
	Pattern     types.Pattern `json:"pattern"`
	Description string        `json:"description"`
	FixHint     string        `json:"fix_hint"`
}

// patternOrder fixes the catalog's iteration order.
var patternOrder = []types.Pattern{
	types.PatternSyntaxError,
	types.PatternHallucinatedObject,
	types.PatternIncompleteGeneration,
	types.PatternSillyMistake,
	types.PatternWrongAttribute,
	types.PatternWrongInputType,
	types.PatternNonPromptedConsideration,
	types.PatternPromptBiasedCode,
	types.PatternMissingCornerCase,
	types.PatternMisinterpretation,
}

// Catalog returns the ten canonical pattern tags with a human
// description, for the pattern-catalog endpoint.
func Catalog() []PatternInfo {
	out := make([]PatternInfo, 0, len(patternOrder))
	for _, p := range patternOrder {
		t := templates[p]
		out = append(out, PatternInfo{Pattern: p, Description: t.label, FixHint: t.fixHint})
	}
	return out
}

// Summarize produces the single-paragraph Analysis-level summary:
// clean code gets a short all-clear, buggy code gets a sentence
// naming the worst finding plus a total count.
func Summarize(findings []types.Finding) string {
	if len(findings) == 0 {
		return "No defects were detected across the static, dynamic, and linguistic analysis layers."
	}

	worst := findings[0]
	for _, f := range findings[1:] {
		if f.Severity > worst.Severity {
			worst = f
		}
	}
	label := templates[worst.Pattern].label
	if label == "" {
		label = string(worst.Pattern)
	}

	band := types.Band(worst.Severity)
	plural := ""
	if len(findings) > 1 {
		plural = "s"
	}
	return fmt.Sprintf("%d finding%s detected; the most severe (%s severity) is that %s.",
		len(findings), plural, strings.ToLower(string(band)), label)
}
