package static

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/intentguard/intentguard/internal/types"
)

// numericFunctions are known math/numeric builtins whose first
// argument must be numeric; only that argument is checked. int() and float() are deliberately
// absent: converting a string with them is legitimate.
var numericFunctions = map[string]bool{
	"abs": true, "round": true, "math.sqrt": true, "math.floor": true,
	"math.ceil": true, "math.pow": true, "math.log": true,
}

// DetectWrongInputType pattern-matches calls to known numeric
// functions whose literal argument has an incompatible type, e.g.
// math.sqrt("16").
func DetectWrongInputType(source []byte, root *sitter.Node) []types.Finding {
	var findings []types.Finding

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call" {
			if f, ok := checkNumericCallArg(source, n); ok {
				findings = append(findings, f)
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return findings
}

func checkNumericCallArg(source []byte, call *sitter.Node) (types.Finding, bool) {
	fnNode := call.ChildByFieldName("function")
	if fnNode == nil {
		return types.Finding{}, false
	}
	fnName := text(source, fnNode)
	if !numericFunctions[fnName] {
		return types.Finding{}, false
	}

	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return types.Finding{}, false
	}
	arg := args.NamedChild(0)
	if arg.Type() != "string" {
		return types.Finding{}, false
	}
	return types.NewFinding(types.PatternWrongInputType, 6, 0.65,
		"'"+fnName+"' called with a string literal argument where a number is expected", types.StageStatic,
	).WithLocation(line(call)), true
}
