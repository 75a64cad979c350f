package static

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/intentguard/intentguard/internal/types"
)

// DetectHallucination checks that every name read in an expression
// context resolves to a builtin, a local binding, or an import.
// Unresolved reads are flagged.
func DetectHallucination(source []byte, root *sitter.Node) []types.Finding {
	bindings := CollectBindings(root, source)
	seen := make(map[string]bool)
	var findings []types.Finding

	var walk func(n *sitter.Node, isWriteSite bool)
	walk = func(n *sitter.Node, isWriteSite bool) {
		if n == nil {
			return
		}

		switch n.Type() {
		case "assignment", "augmented_assignment":
			if left := n.ChildByFieldName("left"); left != nil {
				walk(left, true)
			}
			if right := n.ChildByFieldName("right"); right != nil {
				walk(right, false)
			}
			return
		case "keyword_argument":
			// the keyword name itself is not a read-site
			if value := n.ChildByFieldName("value"); value != nil {
				walk(value, false)
			}
			return
		case "attribute":
			// only the base object is a name read; `.attr` is the
			// wrong-attribute detector's concern, not ours.
			if obj := n.ChildByFieldName("object"); obj != nil {
				walk(obj, false)
			}
			return
		case "identifier":
			if isWriteSite {
				return
			}
			name := text(source, n)
			if name == "" || IsBuiltin(name) || bindings.Has(name) || seen[name] {
				return
			}
			seen[name] = true
			findings = append(findings, types.NewFinding(
				types.PatternHallucinatedObject, 8, 0.7,
				"reference to undefined name '"+name+"'", types.StageStatic,
			).WithLocation(line(n)).WithEvidence("identifier", name))
			return
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i), false)
		}
	}
	walk(root, false)
	return findings
}
