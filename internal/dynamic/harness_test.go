package dynamic

import (
	"strings"
	"testing"
)

func TestBuildHarness_EmbedsSourceAndTemplate(t *testing.T) {
	src := "print('hi')"
	got := buildHarness(src)
	if want := `_cg_USER_SOURCE = """print('hi')"""`; !strings.Contains(got, want) {
		t.Fatalf("expected harness to embed user source, got:\n%s", got)
	}
	if !strings.Contains(got, "_cg_outcome") {
		t.Fatalf("expected harness template body in output")
	}
}

func TestBuildHarness_EscapesTripleQuotes(t *testing.T) {
	src := `x = """nested"""`
	got := buildHarness(src)
	if strings.Contains(got, `x = """nested"""`) {
		t.Fatalf("expected embedded triple quotes to be escaped")
	}
}
