package static

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/intentguard/intentguard/internal/types"
)

// DetectSillyMistake flags structurally identical if/else branches,
// `x op x` with a logical operator, and the heuristic reversed
// discount/price operand check. The reversed-operand heuristic is
// known to misfire on financial OOP patterns, so its findings carry
// severity 4 and confidence 0.4, both lower than the other two checks.
func DetectSillyMistake(source []byte, root *sitter.Node) []types.Finding {
	var findings []types.Finding

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "if_statement":
			if f, ok := checkIdenticalBranches(source, n); ok {
				findings = append(findings, f)
			}
		case "boolean_operator":
			if f, ok := checkSelfOperand(source, n); ok {
				findings = append(findings, f)
			}
		case "function_definition":
			if f, ok := checkReversedDiscountOperands(source, n); ok {
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

func checkIdenticalBranches(source []byte, ifStmt *sitter.Node) (types.Finding, bool) {
	cons := ifStmt.ChildByFieldName("consequence")
	alt := ifStmt.ChildByFieldName("alternative")
	if cons == nil || alt == nil {
		return types.Finding{}, false
	}
	// `alternative` may be an elif/else_clause wrapping a block.
	altBlock := alt
	if alt.Type() == "else_clause" {
		if b := alt.ChildByFieldName("body"); b != nil {
			altBlock = b
		}
	}
	if alt.Type() == "elif_clause" {
		return types.Finding{}, false // elif is a distinct branch, not a mistake signal
	}
	if text(source, cons) == text(source, altBlock) {
		return types.NewFinding(types.PatternSillyMistake, 6, 0.7,
			"if/else branches are structurally identical", types.StageStatic).
			WithLocation(line(ifStmt)), true
	}
	return types.Finding{}, false
}

func checkSelfOperand(source []byte, n *sitter.Node) (types.Finding, bool) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		return types.Finding{}, false
	}
	op := ""
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "and" || c.Type() == "or" {
			op = c.Type()
		}
	}
	if op == "" {
		return types.Finding{}, false
	}
	if text(source, left) == text(source, right) {
		return types.NewFinding(types.PatternSillyMistake, 5, 0.65,
			"redundant self-comparison 'x "+op+" x'", types.StageStatic).
			WithLocation(line(n)), true
	}
	return types.Finding{}, false
}

// checkReversedDiscountOperands is heuristic and known to misfire on
// financial OOP patterns; its finding is emitted at severity 4 and
// confidence 0.4, and the classifier gives it no special handling.
func checkReversedDiscountOperands(source []byte, fn *sitter.Node) (types.Finding, bool) {
	nameNode := fn.ChildByFieldName("name")
	if nameNode == nil {
		return types.Finding{}, false
	}
	name := strings.ToLower(text(source, nameNode))
	if !strings.Contains(name, "discount") && !strings.Contains(name, "price") {
		return types.Finding{}, false
	}

	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return types.Finding{}, false
	}
	var paramNames []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() == "identifier" {
			paramNames = append(paramNames, strings.ToLower(text(source, p)))
		}
	}
	if len(paramNames) < 2 {
		return types.Finding{}, false
	}

	body := fn.ChildByFieldName("body")
	if body == nil {
		return types.Finding{}, false
	}

	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil || n == nil {
			return
		}
		if n.Type() == "binary_operator" {
			op := n.ChildByFieldName("operator")
			if op != nil && text(source, op) == "-" {
				left := n.ChildByFieldName("left")
				right := n.ChildByFieldName("right")
				if left != nil && right != nil {
					l := strings.ToLower(text(source, left))
					r := strings.ToLower(text(source, right))
					// Flag only the swapped-role shape: a discount/rate
					// operand appears first and a price/amount operand
					// appears second, the reverse of the conventional
					// price - discount order.
					if looksLikeRate(l) && looksLikeAmount(r) {
						found = n
					}
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)
	if found == nil {
		return types.Finding{}, false
	}
	return types.NewFinding(types.PatternSillyMistake, 4, 0.4,
		"possible reversed discount/price operand order in '"+text(source, nameNode)+"'", types.StageStatic).
		WithLocation(line(found)), true
}

func looksLikeRate(s string) bool {
	return strings.Contains(s, "discount") || strings.Contains(s, "rate") || strings.Contains(s, "percent")
}

func looksLikeAmount(s string) bool {
	return strings.Contains(s, "price") || strings.Contains(s, "total") || strings.Contains(s, "amount") || strings.Contains(s, "cost")
}
