package reasoner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/intentguard/intentguard/internal/config"
	"github.com/intentguard/intentguard/internal/linguistic/evidence"
)

func TestParseVerdict(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"bare object", `{"found": true, "issues": ["a"], "severity": 6, "summary": "s"}`, true},
		{"fenced in prose", "Here is my verdict:\n```json\n{\"found\": false, \"issues\": [], \"severity\": 0, \"summary\": \"clean\"}\n```", true},
		{"no json at all", "I think the code is fine.", false},
		{"malformed json", `{"found": tru`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := parseVerdict(tc.raw)
			if ok != tc.ok {
				t.Fatalf("parseVerdict(%q) ok=%v, want %v", tc.raw, ok, tc.ok)
			}
		})
	}
}

func TestAsk_NoCredentialsDegradesToFallback(t *testing.T) {
	r, err := New(context.Background(), config.LLMConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := Request{
		Question:     evidence.QuestionMisinterpretation,
		QuestionText: "does the code solve a different problem?",
		Tier1Bullets: []string{"returns a sum where an average was requested"},
		Tier1: evidence.Tier1Result{Candidates: []evidence.Candidate{
			{Text: "average", Rationale: "returns a sum where an average was requested", Confidence: 0.4},
		}},
	}
	v := r.Ask(context.Background(), req)
	if v.VerdictBy != "fallback" {
		t.Fatalf("expected verdict_by=fallback, got %q", v.VerdictBy)
	}
	if !v.Found {
		t.Fatal("expected found=true from Tier-1 evidence union")
	}
	if v.Severity != 4 {
		t.Fatalf("expected Tier-1-only severity 4, got %d", v.Severity)
	}
	if v.Confidence() != 0.4 {
		t.Fatalf("expected confidence = max tier confidence 0.4, got %v", v.Confidence())
	}
}

func TestAsk_FallbackSeverityPrefersTier2(t *testing.T) {
	r, err := New(context.Background(), config.LLMConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req := Request{
		Question:     evidence.QuestionNPC,
		Tier2Bullets: []string{"line 2: debug print statement"},
		Tier2: evidence.Tier2Result{Candidates: []evidence.Candidate{
			{Text: "print(a)", Line: 2, Confidence: 0.7},
		}},
	}
	v := r.Ask(context.Background(), req)
	if v.Severity != 6 {
		t.Fatalf("expected Tier-2-backed severity 6, got %d", v.Severity)
	}
	if v.Confidence() != 0.7 {
		t.Fatalf("expected Tier-2 confidence 0.7, got %v", v.Confidence())
	}
}

func TestAsk_NoEvidenceMeansNotFound(t *testing.T) {
	r, err := New(context.Background(), config.LLMConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v := r.Ask(context.Background(), Request{Question: evidence.QuestionNPC})
	if v.Found {
		t.Fatal("no evidence must yield found=false")
	}
	if v.VerdictBy != "fallback" {
		t.Fatalf("expected verdict_by=fallback, got %q", v.VerdictBy)
	}
}

func TestAsk_OpenAICompatibleProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"content": "{\"found\": true, \"issues\": [\"prints instead of returning\"], \"severity\": 7, \"summary\": \"polarity reversed\"}"}}]}`))
	}))
	defer srv.Close()

	r, err := New(context.Background(), config.LLMConfig{
		FallbackAPIKey:  "test-key",
		FallbackBaseURL: srv.URL,
		Timeout:         "5s",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	v := r.Ask(context.Background(), Request{Question: evidence.QuestionMisinterpretation})
	if v.VerdictBy != "llm" {
		t.Fatalf("expected a genuine model verdict, got verdict_by=%q", v.VerdictBy)
	}
	if !v.Found || v.Severity != 7 {
		t.Fatalf("unexpected verdict %+v", v)
	}
	if v.Confidence() != 0.85 {
		t.Fatalf("expected model-verdict confidence 0.85, got %v", v.Confidence())
	}
}

func TestAsk_MalformedModelReplyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {"content": "not json at all"}}]}`))
	}))
	defer srv.Close()

	r, err := New(context.Background(), config.LLMConfig{
		FallbackAPIKey:  "test-key",
		FallbackBaseURL: srv.URL,
		Timeout:         "5s",
		MaxRetries:      1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	v := r.Ask(context.Background(), Request{Question: evidence.QuestionNPC})
	if v.VerdictBy != "fallback" {
		t.Fatalf("malformed model output must degrade to fallback, got verdict_by=%q", v.VerdictBy)
	}
}
