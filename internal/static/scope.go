package static

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// pythonBuiltins is the enumerated whitelist of built-in names. Reads
// that resolve to none of this set, a local binding, or an import are
// flagged as hallucinations.
var pythonBuiltins = map[string]bool{
	"abs": true, "all": true, "any": true, "ascii": true, "bin": true,
	"bool": true, "bytearray": true, "bytes": true, "callable": true,
	"chr": true, "classmethod": true, "compile": true, "complex": true,
	"delattr": true, "dict": true, "dir": true, "divmod": true,
	"enumerate": true, "eval": true, "exec": true, "filter": true,
	"float": true, "format": true, "frozenset": true, "getattr": true,
	"globals": true, "hasattr": true, "hash": true, "help": true,
	"hex": true, "id": true, "input": true, "int": true,
	"isinstance": true, "issubclass": true, "iter": true, "len": true,
	"list": true, "locals": true, "map": true, "max": true,
	"memoryview": true, "min": true, "next": true, "object": true,
	"oct": true, "open": true, "ord": true, "pow": true, "print": true,
	"property": true, "range": true, "repr": true, "reversed": true,
	"round": true, "set": true, "setattr": true, "slice": true,
	"sorted": true, "staticmethod": true, "str": true, "sum": true,
	"super": true, "tuple": true, "type": true, "vars": true, "zip": true,
	"self": true, "cls": true,
	"True": true, "False": true, "None": true, "NotImplemented": true,
	"Exception": true, "ValueError": true, "TypeError": true,
	"KeyError": true, "IndexError": true, "ZeroDivisionError": true,
	"AttributeError": true, "StopIteration": true, "RuntimeError": true,
	"__name__": true, "__main__": true, "__init__": true,
}

// IsBuiltin reports whether name is a Python built-in. A built-in is
// never reported as a hallucination.
func IsBuiltin(name string) bool {
	return pythonBuiltins[name]
}

// Bindings collects every name bound anywhere in the program: function
// and class definitions, parameters, assignment targets, for-loop
// targets, and import aliases.
type Bindings struct {
	names map[string]bool
}

// Has reports whether name was bound anywhere in the program.
func (b *Bindings) Has(name string) bool {
	return b.names[name]
}

// CollectBindings walks the whole tree gathering every binding site.
func CollectBindings(root *sitter.Node, source []byte) *Bindings {
	b := &Bindings{names: make(map[string]bool)}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_definition", "class_definition":
			if name := n.ChildByFieldName("name"); name != nil {
				b.names[text(source, name)] = true
			}
		case "parameters":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				p := n.NamedChild(i)
				switch p.Type() {
				case "identifier":
					b.names[text(source, p)] = true
				case "default_parameter", "typed_parameter", "typed_default_parameter":
					if name := p.ChildByFieldName("name"); name != nil {
						b.names[text(source, name)] = true
					} else if name := p.NamedChild(0); name != nil && name.Type() == "identifier" {
						b.names[text(source, name)] = true
					}
				case "list_splat_pattern", "dictionary_splat_pattern":
					if name := p.NamedChild(0); name != nil {
						b.names[text(source, name)] = true
					}
				}
			}
		case "assignment", "augmented_assignment":
			if left := n.ChildByFieldName("left"); left != nil {
				collectTargets(left, source, b.names)
			}
		case "named_expression":
			if left := n.ChildByFieldName("name"); left != nil {
				b.names[text(source, left)] = true
			}
		case "for_statement":
			if left := n.ChildByFieldName("left"); left != nil {
				collectTargets(left, source, b.names)
			}
		case "with_item":
			if alias := n.ChildByFieldName("alias"); alias != nil {
				b.names[text(source, alias)] = true
			}
		case "except_clause":
			// `except ValueError as e:` binds e; the alias is the last
			// bare identifier child before the block.
			for i := 0; i < int(n.NamedChildCount()); i++ {
				c := n.NamedChild(i)
				if c.Type() == "identifier" {
					b.names[text(source, c)] = true
				}
			}
		case "import_statement", "import_from_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				c := n.NamedChild(i)
				switch c.Type() {
				case "dotted_name", "identifier":
					b.names[firstSegment(text(source, c))] = true
				case "aliased_import":
					if alias := c.ChildByFieldName("alias"); alias != nil {
						b.names[text(source, alias)] = true
					} else if name := c.ChildByFieldName("name"); name != nil {
						b.names[firstSegment(text(source, name))] = true
					}
				}
			}
		case "global_statement", "nonlocal_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				b.names[text(source, n.NamedChild(i))] = true
			}
		case "lambda":
			if params := n.ChildByFieldName("parameters"); params != nil {
				walk(params)
			}
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return b
}

func collectTargets(n *sitter.Node, source []byte, names map[string]bool) {
	switch n.Type() {
	case "identifier":
		names[text(source, n)] = true
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			collectTargets(n.NamedChild(i), source, names)
		}
	case "attribute", "subscript":
		// e.attr = ... or e[k] = ... do not bind a new name.
	}
}

func firstSegment(dotted string) string {
	for i, r := range dotted {
		if r == '.' {
			return dotted[:i]
		}
	}
	return dotted
}
