// Package classifier merges the static layer's findings, the dynamic
// layer's single pattern hypothesis, and the linguistic layer's four
// detector findings into one deduplicated Finding list, applying its
// merge rules in a fixed order. The classifier never invents new
// evidence; it only reconciles, overrides, and deduplicates what the
// three upstream layers already produced.
package classifier

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/intentguard/intentguard/internal/logging"
	"github.com/intentguard/intentguard/internal/types"
)

// Input bundles the three signal sources a classification pass
// reconciles. Linguistic is empty during Phase A's provisional pass
// since the four detectors have not run yet.
type Input struct {
	Static     []types.Finding
	Dynamic    *types.Finding
	Linguistic []types.Finding
}

// Classify runs the six merge rules in order and returns the final
// deduplicated Finding list.
func Classify(in Input) []types.Finding {
	// Rule 1: syntax errors suppress everything else.
	if syntaxOnly, ok := syntaxErrorsOnly(in.Static); ok {
		return syntaxOnly
	}

	merged, consumedDynamic := confirmHallucination(in.Static, in.Dynamic)
	merged = overrideRuntimeOnly(merged, in.Dynamic, consumedDynamic)
	merged = append(merged, in.Linguistic...) // rule 4: linguistic never suppresses

	if in.Dynamic != nil && !consumedDynamic {
		merged = append(merged, *in.Dynamic)
	}

	if len(merged) > 3 {
		merged = append(merged, compositeMisinterpretation(merged))
	}

	return dedupe(merged)
}

// syntaxErrorsOnly implements rule 1.
func syntaxErrorsOnly(static []types.Finding) ([]types.Finding, bool) {
	var syntax []types.Finding
	for _, f := range static {
		if f.Pattern == types.PatternSyntaxError {
			syntax = append(syntax, f)
		}
	}
	if len(syntax) == 0 {
		return nil, false
	}
	return syntax, true
}

var quotedNamePattern = regexp.MustCompile(`'([A-Za-z_][A-Za-z0-9_]*)'`)

// confirmHallucination implements rule 2: if static flagged a
// hallucinated name N and dynamic independently reports a
// name-unresolved failure for the same N, the two collapse into one
// finding at severity = max+1 (capped 10), confidence = max. The
// consumed dynamic hypothesis is reported back so the caller does not
// also append it standalone.
func confirmHallucination(static []types.Finding, dyn *types.Finding) ([]types.Finding, bool) {
	out := make([]types.Finding, 0, len(static))
	if dyn == nil || dyn.Pattern != types.PatternHallucinatedObject {
		return append(out, static...), false
	}
	dynName := quotedNamePattern.FindString(dyn.Description)
	dynName = strings.Trim(dynName, "'")

	consumed := false
	for _, f := range static {
		if !consumed && f.Pattern == types.PatternHallucinatedObject && f.Evidence["identifier"] == dynName && dynName != "" {
			severity := f.Severity
			if dyn.Severity > severity {
				severity = dyn.Severity
			}
			severity++
			if severity > 10 {
				severity = 10
			}
			confidence := f.Confidence
			if dyn.Confidence > confidence {
				confidence = dyn.Confidence
			}
			merged := types.NewFinding(types.PatternHallucinatedObject, severity, confidence,
				fmt.Sprintf("%s (confirmed at runtime: %s)", f.Description, dyn.Description), types.StageDynamic)
			merged.Location = f.Location
			merged.Column = f.Column
			merged.Evidence = f.Evidence
			out = append(out, merged)
			consumed = true
			logging.Infof(logging.CategoryClassifier, "dynamic confirmed static hallucination for %q", dynName)
			continue
		}
		out = append(out, f)
	}
	return out, consumed
}

// runtimeOnlyPatterns are the patterns dynamic evidence takes
// precedence over static surface suggestions for, per rule 3.
var runtimeOnlyPatterns = map[types.Pattern]bool{
	types.PatternWrongAttribute: true,
	types.PatternWrongInputType: true,
}

// overrideRuntimeOnly implements rule 3: when dynamic reports
// wrong-attribute or wrong-input-type, it takes precedence over a
// static surface suggestion of the same pattern at the same line; the
// static entry is dropped, dynamic is appended by the caller.
func overrideRuntimeOnly(findings []types.Finding, dyn *types.Finding, alreadyConsumed bool) []types.Finding {
	if dyn == nil || alreadyConsumed || !runtimeOnlyPatterns[dyn.Pattern] {
		return findings
	}
	out := findings[:0:0]
	for _, f := range findings {
		if f.Pattern == dyn.Pattern && f.Location == dyn.Location {
			continue // superseded by the dynamic finding the caller appends
		}
		out = append(out, f)
	}
	return out
}

// compositeMisinterpretation implements rule 5: once more than three
// findings survive, append a synthesized composite at the median
// constituent severity, summarizing the component patterns.
func compositeMisinterpretation(findings []types.Finding) types.Finding {
	severities := make([]int, len(findings))
	patterns := make([]string, 0, len(findings))
	seen := make(map[types.Pattern]bool)
	for i, f := range findings {
		severities[i] = f.Severity
		if !seen[f.Pattern] {
			seen[f.Pattern] = true
			patterns = append(patterns, string(f.Pattern))
		}
	}
	sort.Ints(severities)
	median := severities[len(severities)/2]
	if len(severities)%2 == 0 {
		median = (severities[len(severities)/2-1] + severities[len(severities)/2]) / 2
	}
	summary := fmt.Sprintf("composite signal across %d findings: %s", len(findings), strings.Join(patterns, ", "))
	return types.NewFinding(types.PatternMisinterpretation, median, 0.5, summary, types.StageComposite)
}

// dedupe implements rule 6: within a (pattern, location) group, keep
// the highest-confidence entry and fold the rest of the group's
// descriptions into it.
func dedupe(findings []types.Finding) []types.Finding {
	type key struct {
		pattern  types.Pattern
		location string
	}
	groups := make(map[key][]types.Finding)
	var order []key
	for _, f := range findings {
		k := key{f.Pattern, f.Location}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], f)
	}

	out := make([]types.Finding, 0, len(order))
	for _, k := range order {
		group := groups[k]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		best := group[0]
		var extra []string
		for _, f := range group[1:] {
			if f.Confidence > best.Confidence {
				extra = append(extra, best.Description)
				best = f
				continue
			}
			extra = append(extra, f.Description)
		}
		if len(extra) > 0 {
			best.Description = best.Description + "; " + strings.Join(extra, "; ")
		}
		out = append(out, best)
	}
	return out
}
