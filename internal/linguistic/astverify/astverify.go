// Package astverify implements the Tier-2 AST verifier: structural
// cross-checks that discard Tier-1 candidates the parse tree refutes,
// narrowing the rule engine's high-recall, low-precision candidates
// down to ones the AST confirms.
package astverify

import (
	"bytes"
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/intentguard/intentguard/internal/linguistic/evidence"
	"github.com/intentguard/intentguard/internal/static"
)

// Verify narrows candidates using the parsed tree: a "print(" match
// inside a comment node is discarded; a
// hardcoded-literal candidate is kept only if it is an operand to a
// return/comparison/assignment outside the entry-point guard block.
// Missing-Feature and Misinterpretation candidates are all kept when
// the program defines at least one function; their return shape or
// value category is not checked against the tree.
func Verify(question evidence.Question, t1 evidence.Tier1Result, ctx evidence.AnalysisContext) evidence.Tier2Result {
	switch question {
	case evidence.QuestionPromptBias:
		return verifyPromptBias(t1, ctx)
	case evidence.QuestionNPC:
		return verifyNPC(t1, ctx)
	default:
		return verifyGeneric(t1, ctx)
	}
}

// verifyNPC discards candidates whose matched line is entirely a
// comment: a "print(" appearing in a `# print(x)` comment is not a
// call site. Matches inside string literals or docstrings are kept.
func verifyNPC(t1 evidence.Tier1Result, ctx evidence.AnalysisContext) evidence.Tier2Result {
	commentLines := commentAndStringLines(ctx)

	var kept []evidence.Candidate
	var bullets []string
	for _, c := range t1.Candidates {
		if commentLines[c.Line] {
			continue
		}
		c.Confidence = 0.7
		kept = append(kept, c)
		bullets = append(bullets, "line "+strconv.Itoa(c.Line)+": "+c.Rationale+": \""+c.Text+"\"")
	}
	return evidence.Tier2Result{Candidates: kept, Evidence: bullets}
}

// verifyPromptBias keeps a literal candidate only if its line holds a
// string, number, list, or tuple literal outside the conventional
// entry-point guard, and never if that line holds a literal inside the
// guard. Whether the literal is an operand of a return, comparison, or
// assignment is not checked. A candidate with no line number is kept.
func verifyPromptBias(t1 evidence.Tier1Result, ctx evidence.AnalysisContext) evidence.Tier2Result {
	literals := static.CollectLiteralCandidates(ctx.Source, ctx.Root)
	decisionLines := make(map[int]bool)
	guardedLines := make(map[int]bool)
	for _, lc := range literals {
		if lc.InsideMainGuard {
			guardedLines[lc.Line] = true
			continue
		}
		decisionLines[lc.Line] = true
	}

	var kept []evidence.Candidate
	var bullets []string
	for _, c := range t1.Candidates {
		if guardedLines[c.Line] {
			continue
		}
		if c.Line != 0 && !decisionLines[c.Line] {
			continue
		}
		c.Confidence = 0.7
		kept = append(kept, c)
		bullets = append(bullets, "line "+strconv.Itoa(c.Line)+": literal \""+c.Text+"\" matches a prompt example")
	}
	return evidence.Tier2Result{Candidates: kept, Evidence: bullets}
}

// verifyGeneric is used by Missing-Feature and Misinterpretation,
// whose Tier-1 candidates are whole-program keyword absences rather
// than line-anchored hits; the AST pass here confirms the program
// actually defines at least one function (so "missing" isn't an
// artifact of a program that is entirely a placeholder, which the
// incomplete-generation detector already covers separately).
func verifyGeneric(t1 evidence.Tier1Result, ctx evidence.AnalysisContext) evidence.Tier2Result {
	if !hasFunctionDefinition(ctx.Root) {
		return evidence.Tier2Result{}
	}
	var bullets []string
	kept := make([]evidence.Candidate, len(t1.Candidates))
	for i, c := range t1.Candidates {
		c.Confidence = 0.7
		kept[i] = c
		bullets = append(bullets, c.Rationale)
	}
	return evidence.Tier2Result{Candidates: kept, Evidence: bullets}
}

func hasFunctionDefinition(root *sitter.Node) bool {
	if root == nil {
		return false
	}
	var found bool
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found || n == nil {
			return
		}
		if n.Type() == "function_definition" {
			found = true
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return found
}

// commentAndStringLines maps 1-indexed source lines that are wholly a
// comment (only whitespace before the "#"), the lines Tier 1's
// "print(" regex can false-positive on. String literals and comments
// trailing code on the same line are not mapped.
func commentAndStringLines(ctx evidence.AnalysisContext) map[int]bool {
	out := make(map[int]bool)
	if ctx.Root == nil {
		return out
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "comment" {
			start := int(n.StartByte())
			lineStart := start - int(n.StartPoint().Column)
			if lineStart >= 0 && start <= len(ctx.Source) && len(bytes.TrimSpace(ctx.Source[lineStart:start])) == 0 {
				out[int(n.StartPoint().Row)+1] = true
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(ctx.Root)
	return out
}

