package sandbox

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/intentguard/intentguard/internal/static"
)

// deniedModules is the subprocess back-end's import deny-set:
// shell/process spawning, sockets/networking, thread primitives, and
// file deletion.
var deniedModules = map[string]string{
	"os":              "operating-system shell access",
	"subprocess":      "subprocess spawning",
	"socket":          "sockets/networking",
	"requests":        "sockets/networking",
	"urllib":          "sockets/networking",
	"http":            "sockets/networking",
	"threading":       "thread primitives",
	"multiprocessing": "thread primitives",
	"shutil":          "file deletion",
}

// deniedCalls flags specific calls by a textual scan, so they are
// refused even where no import statement of the owning module is
// visible to the import scan.
var deniedCalls = []string{"os.system(", "os.remove(", "os.unlink(", "shutil.rmtree(", "subprocess."}

// deniedImport reports whether source imports or calls anything in the
// deny-set, returning a human-readable reason.
func deniedImport(source string) (string, bool) {
	pr, err := static.Parse(context.Background(), source)
	if err != nil {
		return textualDenyScan(source)
	}
	defer pr.Close()

	root := pr.Tree.RootNode()
	if reason, found := walkForDeniedImports(source, root); found {
		return reason, true
	}
	return textualDenyScanCallsOnly(source)
}

func walkForDeniedImports(source string, root *sitter.Node) (string, bool) {
	var reason string
	var found bool

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found || n == nil {
			return
		}
		if n.Type() == "import_statement" || n.Type() == "import_from_statement" {
			mod := importedModuleName(source, n)
			if r, bad := deniedModules[mod]; bad {
				reason, found = r, true
				return
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return reason, found
}

func importedModuleName(source string, n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "dotted_name", "identifier":
			return firstDotSegment(nodeText(source, c))
		case "aliased_import":
			if name := c.ChildByFieldName("name"); name != nil {
				return firstDotSegment(nodeText(source, name))
			}
		}
	}
	return ""
}

func nodeText(source string, n *sitter.Node) string {
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(source) {
		end = uint32(len(source))
	}
	if start >= end {
		return ""
	}
	return source[start:end]
}

func firstDotSegment(s string) string {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

func textualDenyScan(source string) (string, bool) {
	for mod, reason := range deniedModules {
		if strings.Contains(source, "import "+mod) {
			return reason, true
		}
	}
	return textualDenyScanCallsOnly(source)
}

func textualDenyScanCallsOnly(source string) (string, bool) {
	for _, call := range deniedCalls {
		if strings.Contains(source, call) {
			return "disallowed call: " + call, true
		}
	}
	return "", false
}
