package static

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/intentguard/intentguard/internal/types"
)

// DetectMissingCornerCase flags `a / b` with no preceding guard on b
// and unguarded indexing. Attribute access on a value that may be
// absent is not checked.
func DetectMissingCornerCase(source []byte, root *sitter.Node) []types.Finding {
	var findings []types.Finding

	var walk func(n *sitter.Node, guarded map[string]bool)
	walk = func(n *sitter.Node, guarded map[string]bool) {
		if n == nil {
			return
		}

		switch n.Type() {
		case "if_statement":
			cond := n.ChildByFieldName("condition")
			newGuarded := copyGuard(guarded)
			if cond != nil {
				for _, name := range guardedNames(source, cond) {
					newGuarded[name] = true
				}
			}
			if cons := n.ChildByFieldName("consequence"); cons != nil {
				walk(cons, newGuarded)
			}
			if alt := n.ChildByFieldName("alternative"); alt != nil {
				walk(alt, guarded)
			}
			return

		case "binary_operator":
			op := n.ChildByFieldName("operator")
			if op != nil && text(source, op) == "/" {
				right := n.ChildByFieldName("right")
				if right != nil && right.Type() == "identifier" && !guarded[text(source, right)] {
					findings = append(findings, types.NewFinding(
						types.PatternMissingCornerCase, 5, 0.6,
						"division by '"+text(source, right)+"' with no preceding zero check", types.StageStatic,
					).WithLocation(line(n)).WithEvidence("divisor", text(source, right)))
				}
			}

		case "subscript":
			value := n.ChildByFieldName("value")
			if value != nil && value.Type() == "identifier" && !guarded[text(source, value)] {
				findings = append(findings, types.NewFinding(
					types.PatternMissingCornerCase, 4, 0.5,
					"indexing into '"+text(source, value)+"' with no bounds/key guard", types.StageStatic,
				).WithLocation(line(n)).WithEvidence("target", text(source, value)))
			}
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i), guarded)
		}
	}
	walk(root, map[string]bool{})
	return findings
}

func copyGuard(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// guardedNames extracts variable names that a condition appears to
// guard: `if b:`, `if b != 0:`, `if b is not None:`, `if len(x) > 0:`.
func guardedNames(source []byte, cond *sitter.Node) []string {
	var names []string
	switch cond.Type() {
	case "identifier":
		names = append(names, text(source, cond))
	case "comparison_operator", "not_operator", "boolean_operator":
		for i := 0; i < int(cond.NamedChildCount()); i++ {
			names = append(names, guardedNames(source, cond.NamedChild(i))...)
		}
	case "call":
		// len(x) form: guard applies to x, not to `len`.
		if args := cond.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				if args.NamedChild(i).Type() == "identifier" {
					names = append(names, text(source, args.NamedChild(i)))
				}
			}
		}
	}
	return names
}
