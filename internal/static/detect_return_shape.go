package static

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// ReturnShape categorizes the value category of the last return
// statement, in source order, in the program's primary function. This
// is a signal, not a finding: it is stored on Result.ReturnShapeSignal,
// and neither the linguistic layer nor the classifier reads it or
// compares it with the prompt's requested shape.
type ReturnShape string

const (
	ReturnShapeUnknown  ReturnShape = ""
	ReturnShapeScalar   ReturnShape = "scalar"
	ReturnShapeSequence ReturnShape = "sequence"
	ReturnShapeNone     ReturnShape = "none"
)

// DetectReturnShape finds the last return statement, in source order,
// inside the last top-level function definition and classifies its
// value category. Whether that return is reachable is not checked.
func DetectReturnShape(source []byte, root *sitter.Node) ReturnShape {
	var lastFn *sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		c := root.NamedChild(i)
		if c.Type() == "function_definition" {
			lastFn = c
		}
		if c.Type() == "decorated_definition" {
			if def := c.ChildByFieldName("definition"); def != nil && def.Type() == "function_definition" {
				lastFn = def
			}
		}
	}
	if lastFn == nil {
		return ReturnShapeUnknown
	}

	body := lastFn.ChildByFieldName("body")
	if body == nil {
		return ReturnShapeUnknown
	}

	var last *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "return_statement" {
			last = n
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)
	if last == nil {
		return ReturnShapeUnknown
	}

	if last.NamedChildCount() == 0 {
		return ReturnShapeNone
	}
	val := last.NamedChild(0)
	switch val.Type() {
	case "list", "tuple", "dictionary", "list_comprehension", "set", "set_comprehension":
		return ReturnShapeSequence
	default:
		return ReturnShapeScalar
	}
}
