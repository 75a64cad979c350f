// Package rules implements the Tier-1 rule engine: regex and textual
// scans over prompt and code for each of the four linguistic
// questions. High recall, low precision by design; Tier 2 is what
// narrows these candidates down.
package rules

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/intentguard/intentguard/internal/linguistic/evidence"
)

// npcMarkers are identifier/call fragments whose presence suggests a
// feature the prompt never asked for: debug prints, logging, input
// validation, auth checks, caching, sorting.
var npcMarkers = []struct {
	pattern   *regexp.Regexp
	rationale string
}{
	{regexp.MustCompile(`\bprint\s*\(`), "debug print statement"},
	{regexp.MustCompile(`\blogging\.|\blogger\.`), "logging scaffolding"},
	{regexp.MustCompile(`\braise\s+(ValueError|TypeError)\s*\(`), "input validation"},
	{regexp.MustCompile(`\bassert\s+`), "assertion-based validation"},
	{regexp.MustCompile(`\b(is_admin|authenticate|check_permission|authorize)\w*\s*\(`), "authorization check"},
	{regexp.MustCompile(`\b(functools\.lru_cache|@cache|_cache\s*=)`), "caching"},
	{regexp.MustCompile(`\.sort\s*\(|\bsorted\s*\(`), "sorting"},
	{regexp.MustCompile(`\btry\s*:`), "error-handling scaffolding"},
}

// NPC runs Tier 1 for the Non-Prompted-Consideration question: does
// the code contain any marker the prompt text never mentions?
func NPC(prompt, code string) evidence.Tier1Result {
	promptLower := strings.ToLower(prompt)
	var out []evidence.Candidate
	for _, ln := range splitLines(code) {
		for _, m := range npcMarkers {
			if !m.pattern.MatchString(ln.text) {
				continue
			}
			if promptMentionsConcept(promptLower, m.rationale) {
				continue
			}
			out = append(out, evidence.Candidate{Text: ln.text, Rationale: m.rationale, Line: ln.number, Confidence: 0.4})
		}
	}
	return evidence.Tier1Result{Candidates: out}
}

// promptMentionsConcept is a coarse recall filter: if the prompt
// itself asks for logging/validation/etc., the corresponding code is
// no longer "non-prompted". Tier 1 intentionally overshoots recall;
// Tier 2/3 tighten precision.
func promptMentionsConcept(promptLower, rationale string) bool {
	switch rationale {
	case "logging scaffolding":
		return strings.Contains(promptLower, "log")
	case "input validation":
		return strings.Contains(promptLower, "valid") || strings.Contains(promptLower, "raise")
	case "authorization check":
		return strings.Contains(promptLower, "auth") || strings.Contains(promptLower, "permission")
	case "caching":
		return strings.Contains(promptLower, "cache")
	case "sorting":
		return strings.Contains(promptLower, "sort") || strings.Contains(promptLower, "order")
	case "error-handling scaffolding":
		return strings.Contains(promptLower, "error") || strings.Contains(promptLower, "except")
	default:
		return false
	}
}

// These patterns pull quoted strings and bracketed/numeric examples
// out of a prompt, e.g. "sort [3,1,2]" or 'return "done"'.
var (
	quotedStringPattern = regexp.MustCompile(`["']([^"']{1,40})["']`)
	bracketListPattern  = regexp.MustCompile(`\[[0-9,\s]+\]`)
	bareNumberPattern   = regexp.MustCompile(`\b-?\d+(\.\d+)?\b`)
)

// PromptBias runs Tier 1 for the Prompt-Bias question: literals quoted
// or exampled in the prompt that also appear in the code: verbatim
// for strings and numbers, set-wise for bracketed sequence examples,
// so a prompt example "[3,1,2]" still matches a hardcoded "[1,2,3]".
func PromptBias(prompt, code string) evidence.Tier1Result {
	var examples []string
	examples = append(examples, quotedStringPattern.FindAllString(prompt, -1)...)
	for _, n := range bareNumberPattern.FindAllString(prompt, -1) {
		if _, err := strconv.Atoi(n); err == nil {
			examples = append(examples, n)
		}
	}

	var exampleSets [][]string
	for _, l := range bracketListPattern.FindAllString(prompt, -1) {
		exampleSets = append(exampleSets, sortedElements(l))
	}

	var out []evidence.Candidate
	for _, ln := range splitLines(code) {
		for _, ex := range examples {
			needle := strings.Trim(ex, `"'`)
			if needle == "" || len(needle) < 2 {
				continue
			}
			if strings.Contains(ln.text, needle) {
				out = append(out, evidence.Candidate{
					Text:       needle,
					Rationale:  "literal from the prompt's example appears verbatim in code",
					Line:       ln.number,
					Confidence: 0.4,
				})
			}
		}
		for _, codeList := range bracketListPattern.FindAllString(ln.text, -1) {
			codeSet := sortedElements(codeList)
			for _, exSet := range exampleSets {
				if len(codeSet) > 0 && sameElements(codeSet, exSet) {
					out = append(out, evidence.Candidate{
						Text:       codeList,
						Rationale:  "hardcoded sequence matches the prompt's example elements",
						Line:       ln.number,
						Confidence: 0.4,
					})
				}
			}
		}
	}
	return evidence.Tier1Result{Candidates: out}
}

func sortedElements(bracketed string) []string {
	parts := strings.Split(strings.Trim(bracketed, "[]"), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func sameElements(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// actionKeywords maps a verb commonly found in prompts to the
// identifier/call fragments a correct implementation would contain.
var actionKeywords = map[string][]string{
	"sort":    {"sort", "sorted"},
	"filter":  {"filter", "if "},
	"remove":  {"remove", "pop", "del ", "discard"},
	"exclude": {"filter", "if ", "not in"},
	"reverse": {"reverse", "[::-1]"},
	"average": {"avg", "mean", "/ len", "/len"},
	"sum":     {"sum("},
	"count":   {"count", "len("},
	"unique":  {"set(", "unique"},
	"dict":    {"dict", "{", "hash"},
	"list":    {"list", "[", "append"},
	"string":  {"str", "format", "join"},
}

// MissingFeature runs Tier 1 for the Missing-Feature question: an
// action/data-type keyword present in the prompt whose code-side
// markers never appear in the code.
func MissingFeature(prompt, code string) evidence.Tier1Result {
	promptLower := strings.ToLower(prompt)
	codeLower := strings.ToLower(code)
	var out []evidence.Candidate
	for keyword, markers := range actionKeywords {
		if !strings.Contains(promptLower, keyword) {
			continue
		}
		found := false
		for _, m := range markers {
			if strings.Contains(codeLower, m) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, evidence.Candidate{
				Text:       keyword,
				Rationale:  "prompt asks for \"" + keyword + "\" but no corresponding marker appears in code",
				Confidence: 0.4,
			})
		}
	}
	return evidence.Tier1Result{Candidates: out}
}

// misinterpretationMarkers flags prompt/code combinations where the
// prompt's verb and the code's dominant operation look reversed.
var misinterpretationMarkers = []struct {
	promptVerb      string
	codeAntiPattern *regexp.Regexp
	rationale       string
}{
	{"average", regexp.MustCompile(`return\s+sum\s*\(`), "returns a sum where an average was requested"},
	{"return", regexp.MustCompile(`^\s*print\s*\(`), "prints instead of returning a value"},
	{"print", regexp.MustCompile(`^\s*return\b`), "returns instead of printing"},
	{"filter", regexp.MustCompile(`def \w+\([^)]*\):\s*$`), "no conditional selection found near the function signature"},
	{"remove", regexp.MustCompile(`def \w+\([^)]*\):\s*$`), "no conditional selection found near the function signature"},
}

// Misinterpretation runs Tier 1 for the Misinterpretation question.
func Misinterpretation(prompt, code string) evidence.Tier1Result {
	promptLower := strings.ToLower(prompt)
	var out []evidence.Candidate
	for _, m := range misinterpretationMarkers {
		if !strings.Contains(promptLower, m.promptVerb) {
			continue
		}
		if m.codeAntiPattern.MatchString(code) {
			out = append(out, evidence.Candidate{
				Text:       m.promptVerb,
				Rationale:  m.rationale,
				Confidence: 0.4,
			})
		}
	}
	return evidence.Tier1Result{Candidates: out}
}

type codeLine struct {
	text   string
	number int
}

func splitLines(code string) []codeLine {
	raw := strings.Split(code, "\n")
	out := make([]codeLine, len(raw))
	for i, l := range raw {
		out[i] = codeLine{text: l, number: i + 1}
	}
	return out
}
