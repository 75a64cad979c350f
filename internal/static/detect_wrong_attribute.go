package static

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/intentguard/intentguard/internal/types"
)

// dictMethods are the legitimate attribute accesses on a Python dict;
// anything else at a dict-typed `e.attr` site is almost certainly a
// hallucinated or misremembered API, e.g. calling `.length` on a dict.
var dictMethods = map[string]bool{
	"get": true, "keys": true, "values": true, "items": true,
	"pop": true, "popitem": true, "update": true, "copy": true,
	"setdefault": true, "clear": true, "fromkeys": true,
}

// DetectWrongAttribute flags attribute misuse on dicts: a lightweight
// intra-file type inference tags variables assigned a dict literal or
// `dict(...)` call; an attribute access on such a variable that is not
// a real dict method is flagged.
func DetectWrongAttribute(source []byte, root *sitter.Node) []types.Finding {
	dictVars := inferDictVariables(source, root)
	var findings []types.Finding

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "attribute" {
			obj := n.ChildByFieldName("object")
			attr := n.ChildByFieldName("attribute")
			if obj != nil && attr != nil && obj.Type() == "identifier" {
				varName := text(source, obj)
				attrName := text(source, attr)
				if dictVars[varName] && !dictMethods[attrName] {
					findings = append(findings, types.NewFinding(
						types.PatternWrongAttribute, 7, 0.6,
						"'"+varName+"' is inferred as a dict, but '."+attrName+"' is not a dict method", types.StageStatic,
					).WithLocation(line(n)).WithEvidence("identifier", varName).WithEvidence("attribute", attrName))
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return findings
}

// inferDictVariables does a single forward pass collecting names bound
// to a dict literal (`{...}`) or a `dict(...)` call.
func inferDictVariables(source []byte, root *sitter.Node) map[string]bool {
	dictVars := make(map[string]bool)

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "assignment" {
			left := n.ChildByFieldName("left")
			right := n.ChildByFieldName("right")
			if left != nil && right != nil && left.Type() == "identifier" {
				if isDictExpr(source, right) {
					dictVars[text(source, left)] = true
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return dictVars
}

func isDictExpr(source []byte, n *sitter.Node) bool {
	switch n.Type() {
	case "dictionary":
		return true
	case "call":
		if fn := n.ChildByFieldName("function"); fn != nil && fn.Type() == "identifier" {
			return text(source, fn) == "dict"
		}
	}
	return false
}
