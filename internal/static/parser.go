// Package static implements the static analysis layer: it parses the
// target Python program once with tree-sitter and runs nine structural
// detectors over the resulting AST.
package static

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/intentguard/intentguard/internal/logging"
)

// ParseResult bundles a parsed tree with the (possibly stripped) source
// it was parsed from, and the first parse error encountered, if any.
type ParseResult struct {
	Tree       *sitter.Tree
	Source     []byte
	FirstError *SyntaxError
}

// SyntaxError captures the first parser error location.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

// Close releases the underlying tree-sitter tree.
func (r *ParseResult) Close() {
	if r != nil && r.Tree != nil {
		r.Tree.Close()
	}
}

func newParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return p
}

// Parse parses source with the Python grammar. On a parse error it
// retries once after stripping the offending line, so the remaining
// detectors can still run over a best-effort tree.
func Parse(ctx context.Context, source string) (*ParseResult, error) {
	timer := logging.StartTimer(logging.CategoryStatic, "Parse")
	defer timer.Stop()

	p := newParser()
	tree, err := p.ParseCtx(ctx, nil, []byte(source))
	if err != nil {
		logging.Errorf(logging.CategoryStatic, "parse failed: %v", err)
		return nil, err
	}

	root := tree.RootNode()
	if errNode := findFirstError(root); errNode != nil {
		se := &SyntaxError{
			Line:    int(errNode.StartPoint().Row) + 1,
			Column:  int(errNode.StartPoint().Column) + 1,
			Message: "unexpected syntax near " + snippet(source, errNode),
		}

		// Retry after stripping the offending line so the other
		// detectors can still observe a mostly-intact tree.
		lines := strings.Split(source, "\n")
		if se.Line-1 >= 0 && se.Line-1 < len(lines) {
			tree.Close()
			stripped := make([]string, len(lines))
			copy(stripped, lines)
			stripped[se.Line-1] = ""
			retrySource := strings.Join(stripped, "\n")

			p2 := newParser()
			tree2, err2 := p2.ParseCtx(ctx, nil, []byte(retrySource))
			if err2 == nil {
				return &ParseResult{Tree: tree2, Source: []byte(retrySource), FirstError: se}, nil
			}
			// Retry itself failed; fall through with the original tree
			// re-parsed so callers still get a tree to recover from.
			tree3, _ := p.ParseCtx(ctx, nil, []byte(source))
			return &ParseResult{Tree: tree3, Source: []byte(source), FirstError: se}, nil
		}
		return &ParseResult{Tree: tree, Source: []byte(source), FirstError: se}, nil
	}

	return &ParseResult{Tree: tree, Source: []byte(source)}, nil
}

// findFirstError walks the tree looking for the first ERROR or missing
// node tree-sitter inserted during error recovery.
func findFirstError(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if e := findFirstError(n.Child(i)); e != nil {
			return e
		}
	}
	return nil
}

func snippet(source string, n *sitter.Node) string {
	b := []byte(source)
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(b) {
		end = uint32(len(b))
	}
	if start >= end {
		return ""
	}
	s := string(b[start:end])
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return s
}

// Text returns the source slice spanned by n, clamped to bounds. It is
// the exported form of text, for packages outside static (the
// linguistic layer's AST verifier) that walk the same tree.
func Text(source []byte, n *sitter.Node) string {
	return text(source, n)
}

func text(source []byte, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(source) {
		end = uint32(len(source))
	}
	if start >= end {
		return ""
	}
	return string(source[start:end])
}

func line(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	return int(n.StartPoint().Row) + 1
}

func column(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	return int(n.StartPoint().Column) + 1
}
