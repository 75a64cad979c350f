// Package intentmatch computes the intent-match score: a TF-IDF
// cosine similarity between the submission prompt and the code's
// identifier stream. Values below roughly 0.40 suggest a significant
// gap between what was asked and what the code talks about.
package intentmatch

import (
	"math"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z][A-Za-z0-9_]*`)

// stopwords are common English function words stripped before scoring
// so the comparison weighs content words, not grammar.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "that": true, "this": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"to": true, "of": true, "in": true, "on": true, "for": true,
	"and": true, "or": true, "it": true, "with": true, "as": true,
	"should": true, "function": true, "write": true, "a_": true,
}

// tokenize lower-cases and splits snake_case/camelCase identifiers
// into their constituent words, then drops stopwords.
func tokenize(s string) []string {
	raw := tokenPattern.FindAllString(s, -1)
	var out []string
	for _, tok := range raw {
		for _, part := range splitIdentifier(tok) {
			part = strings.ToLower(part)
			if part == "" || stopwords[part] {
				continue
			}
			out = append(out, part)
		}
	}
	return out
}

// splitIdentifier breaks "parse_input" and "parseInput" into
// ["parse", "input"] so prompt words match code identifiers whichever
// casing convention the generator used.
func splitIdentifier(tok string) []string {
	if !strings.Contains(tok, "_") {
		return splitCamel(tok)
	}
	var parts []string
	for _, seg := range strings.Split(tok, "_") {
		parts = append(parts, splitCamel(seg)...)
	}
	return parts
}

func splitCamel(tok string) []string {
	var parts []string
	var cur strings.Builder
	for i, r := range tok {
		if i > 0 && r >= 'A' && r <= 'Z' {
			parts = append(parts, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// vector is a sparse term-frequency map.
type vector map[string]float64

func termFreq(tokens []string) vector {
	v := make(vector, len(tokens))
	for _, t := range tokens {
		v[t]++
	}
	total := float64(len(tokens))
	if total == 0 {
		return v
	}
	for k := range v {
		v[k] /= total
	}
	return v
}

// Score computes the cosine similarity between the prompt's TF-IDF
// vector and the code identifier stream's TF-IDF vector. The two
// documents form the entire corpus for IDF purposes (a term in only
// one of the two documents is weighted higher than a term shared by
// both).
func Score(prompt string, identifiers []string) float64 {
	promptTokens := tokenize(prompt)
	codeTokens := tokenize(strings.Join(identifiers, " "))
	if len(promptTokens) == 0 || len(codeTokens) == 0 {
		return 0
	}

	promptTF := termFreq(promptTokens)
	codeTF := termFreq(codeTokens)

	idf := computeIDF(promptTF, codeTF)

	pv := weight(promptTF, idf)
	cv := weight(codeTF, idf)

	return cosine(pv, cv)
}

// computeIDF treats the prompt and the code as a two-document corpus:
// idf(t) = log(2/df(t)) + 1, so a term appearing in both documents
// still contributes, just less than a term unique to one.
func computeIDF(a, b vector) map[string]float64 {
	idf := make(map[string]float64)
	seen := make(map[string]bool)
	for t := range a {
		seen[t] = true
	}
	for t := range b {
		seen[t] = true
	}
	for t := range seen {
		df := 0
		if _, ok := a[t]; ok {
			df++
		}
		if _, ok := b[t]; ok {
			df++
		}
		idf[t] = math.Log(2.0/float64(df)) + 1
	}
	return idf
}

func weight(tf vector, idf map[string]float64) vector {
	v := make(vector, len(tf))
	for t, f := range tf {
		v[t] = f * idf[t]
	}
	return v
}

func cosine(a, b vector) float64 {
	var dot, na, nb float64
	for t, av := range a {
		dot += av * b[t]
		na += av * av
	}
	for _, bv := range b {
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
