package static

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// LiteralCandidate is a literal value that might be a hardcoded,
// prompt-example-derived constant. The static layer only collects
// these; the linguistic layer (Tier 2/3) makes the final judgment
// that the literal is prompt-biased.
type LiteralCandidate struct {
	Text string
	Line int
	// InsideMainGuard is true when the literal appears only inside the
	// conventional `if __name__ == "__main__":` test block; such
	// literals must never be reported as prompt-biased.
	InsideMainGuard bool
}

// CollectLiteralCandidates walks the tree collecting string, integer,
// float, list, and tuple literals as prompt-bias candidates, tagging
// whether each sits inside the entry-point guard block.
func CollectLiteralCandidates(source []byte, root *sitter.Node) []LiteralCandidate {
	var out []LiteralCandidate

	var walk func(n *sitter.Node, inMain bool)
	walk = func(n *sitter.Node, inMain bool) {
		if n == nil {
			return
		}
		if n.Type() == "if_statement" && isMainGuard(source, n) {
			inMain = true
		}

		switch n.Type() {
		case "string", "integer", "float", "list", "tuple":
			out = append(out, LiteralCandidate{
				Text:            text(source, n),
				Line:            line(n),
				InsideMainGuard: inMain,
			})
			return // don't descend into a list/tuple's own elements separately
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i), inMain)
		}
	}
	walk(root, false)
	return out
}

// isMainGuard recognizes `if __name__ == "__main__":`.
func isMainGuard(source []byte, ifStmt *sitter.Node) bool {
	cond := ifStmt.ChildByFieldName("condition")
	if cond == nil || cond.Type() != "comparison_operator" {
		return false
	}
	return containsToken(source, cond, "__name__") && containsToken(source, cond, "__main__")
}

func containsToken(source []byte, n *sitter.Node, tok string) bool {
	return strings.Contains(text(source, n), tok)
}
