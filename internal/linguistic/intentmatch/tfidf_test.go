package intentmatch

import "testing"

func TestScore_HighForMatchingVocabulary(t *testing.T) {
	prompt := "Write a function that computes the factorial of a number"
	ids := []string{"factorial", "number", "result"}
	got := Score(prompt, ids)
	if got <= 0.3 {
		t.Fatalf("expected a reasonably high score for overlapping vocabulary, got %v", got)
	}
}

func TestScore_LowForUnrelatedVocabulary(t *testing.T) {
	prompt := "Write a function that computes the factorial of a number"
	ids := []string{"reverse_string", "vowel_count"}
	got := Score(prompt, ids)
	if got > 0.3 {
		t.Fatalf("expected a low score for unrelated vocabulary, got %v", got)
	}
}

func TestScore_EmptyInputsYieldZero(t *testing.T) {
	if got := Score("", nil); got != 0 {
		t.Fatalf("expected 0 for empty prompt and identifiers, got %v", got)
	}
}

func TestScore_IdenticalVocabularyIsOne(t *testing.T) {
	prompt := "compute factorial result"
	ids := []string{"compute", "factorial", "result"}
	got := Score(prompt, ids)
	if got < 0.999 {
		t.Fatalf("expected score 1.0 for identical vocabulary, got %v", got)
	}
}

func TestScore_DisjointVocabularyIsZero(t *testing.T) {
	prompt := "compute the factorial"
	ids := []string{"reverse", "words"}
	if got := Score(prompt, ids); got != 0 {
		t.Fatalf("expected score 0.0 for disjoint vocabularies, got %v", got)
	}
}

func TestSplitIdentifier_SnakeAndCamel(t *testing.T) {
	cases := map[string][]string{
		"parse_input": {"parse", "input"},
		"parseInput":  {"parse", "Input"},
	}
	for in, want := range cases {
		got := splitIdentifier(in)
		if len(got) != len(want) {
			t.Fatalf("splitIdentifier(%q) = %v, want %v", in, got, want)
		}
	}
}
