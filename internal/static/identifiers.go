package static

import sitter "github.com/smacker/go-tree-sitter"

// Identifiers walks the parse tree collecting every function name,
// parameter name, and variable name assigned at any scope, plus the
// names of called functions and methods. The
// linguistic layer's intent-match score and Missing-Feature detector
// both consume this as the code's identifier stream, standing in for
// the vocabulary the program actually uses.
func Identifiers(source []byte, root *sitter.Node) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_definition":
			if name := n.ChildByFieldName("name"); name != nil {
				add(text(source, name))
			}
		case "parameters":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				p := n.NamedChild(i)
				switch p.Type() {
				case "identifier":
					add(text(source, p))
				case "default_parameter", "typed_parameter", "typed_default_parameter":
					if id := p.ChildByFieldName("name"); id != nil {
						add(text(source, id))
					}
				}
			}
		case "assignment":
			if left := n.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
				add(text(source, left))
			}
		case "call":
			if fn := n.ChildByFieldName("function"); fn != nil {
				switch fn.Type() {
				case "identifier":
					add(text(source, fn))
				case "attribute":
					if attr := fn.ChildByFieldName("attribute"); attr != nil {
						add(text(source, attr))
					}
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return out
}
