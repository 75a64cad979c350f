package static

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/intentguard/intentguard/internal/types"
)

// DetectIncompleteGeneration flags no-op/ellipsis function bodies,
// TODO/FIXME-only comments, and docstring-only bodies. A trailing
// assignment with no right-hand side is not flagged here; the parser
// reports it as a syntax error.
func DetectIncompleteGeneration(source []byte, root *sitter.Node) []types.Finding {
	var findings []types.Finding

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_definition":
			body := n.ChildByFieldName("body")
			if body != nil {
				if f, ok := checkIncompleteBody(source, n, body); ok {
					findings = append(findings, f)
				}
			}
		case "comment":
			c := strings.TrimSpace(strings.TrimLeft(text(source, n), "#"))
			upper := strings.ToUpper(strings.TrimSpace(c))
			if upper == "TODO" || upper == "FIXME" || strings.HasPrefix(upper, "TODO:") || strings.HasPrefix(upper, "FIXME:") {
				findings = append(findings, types.NewFinding(
					types.PatternIncompleteGeneration, 6, 0.6,
					"placeholder comment with no implementation: "+c, types.StageStatic,
				).WithLocation(line(n)))
			}
		case "ERROR":
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return findings
}

func checkIncompleteBody(source []byte, fn, body *sitter.Node) (types.Finding, bool) {
	stmts := namedChildren(body)
	if len(stmts) == 0 {
		return types.Finding{}, false
	}

	name := ""
	if nm := fn.ChildByFieldName("name"); nm != nil {
		name = text(source, nm)
	}

	// Single-statement body: pass, ellipsis, or a docstring literal only.
	if len(stmts) == 1 {
		s := stmts[0]
		switch s.Type() {
		case "pass_statement":
			return mkIncomplete(source, fn, name, "body is a bare 'pass' placeholder"), true
		case "expression_statement":
			if inner := s.NamedChild(0); inner != nil {
				switch inner.Type() {
				case "ellipsis":
					return mkIncomplete(source, fn, name, "body is only an ellipsis ('...') placeholder"), true
				case "string":
					return mkIncomplete(source, fn, name, "body is only a documentation literal, no logic"), true
				}
			}
		}
	}

	// Trailing assignment with no right-hand side shows up as an ERROR
	// node in tree-sitter's recovery and surfaces as a syntax finding.
	return types.Finding{}, false
}

func mkIncomplete(source []byte, fn *sitter.Node, name, reason string) types.Finding {
	desc := reason
	if name != "" {
		desc = "function '" + name + "': " + reason
	}
	return types.NewFinding(types.PatternIncompleteGeneration, 7, 0.75, desc, types.StageStatic).
		WithLocation(line(fn))
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}
