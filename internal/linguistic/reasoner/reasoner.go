// Package reasoner implements the Tier-3 reasoner: it packages
// Tier-1/Tier-2 evidence into a structured question for an external
// language model and parses the JSON verdict. Two providers are
// tried in order (Gemini, then any OpenAI-compatible chat-completions
// endpoint); when neither answers, a rule-derived fallback verdict is
// synthesized from the earlier tiers' evidence.
package reasoner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/intentguard/intentguard/internal/config"
	"github.com/intentguard/intentguard/internal/linguistic/evidence"
	"github.com/intentguard/intentguard/internal/logging"
)

// Request is the structured package handed to the reasoner for one
// detector's Tier-3 call.
type Request struct {
	Question     evidence.Question
	Prompt       string
	Code         string
	Tier1Bullets []string
	Tier2Bullets []string
	QuestionText string // the detector's question posed explicitly

	// Tier1 and Tier2 carry the raw tiers too, so the fallback verdict
	// formula can max their per-candidate confidences.
	Tier1 evidence.Tier1Result
	Tier2 evidence.Tier2Result
}

// Reasoner packages a structured request to an external model,
// retrying transient failures across two providers, and degrades to
// the fallback verdict formula when both are absent or exhausted.
type Reasoner struct {
	cfg config.LLMConfig

	genaiClient *genai.Client
	httpClient  *http.Client
}

// New builds a Reasoner. It is safe to construct with no credentials
// configured; every call then degrades straight to the fallback
// verdict.
func New(ctx context.Context, cfg config.LLMConfig) (*Reasoner, error) {
	r := &Reasoner{cfg: cfg}

	timeout := parseTimeout(cfg.Timeout)
	r.httpClient = &http.Client{Timeout: timeout}

	if cfg.PrimaryAPIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.PrimaryAPIKey})
		if err != nil {
			return nil, fmt.Errorf("reasoner: genai client: %w", err)
		}
		r.genaiClient = client
	}
	return r, nil
}

func parseTimeout(s string) time.Duration {
	if s == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// jsonSchemaInstruction is appended to every Tier-3 prompt so the
// model returns exactly the declared reply schema.
const jsonSchemaInstruction = `Reply with a single JSON object and nothing else, matching exactly:
{"found": bool, "issues": [string], "severity": 0-10, "summary": string}`

// Ask packages req and tries the primary provider, then the fallback,
// two attempts each with exponential backoff. If both are absent or
// exhausted, it synthesizes a fallback verdict from the Tier-1/Tier-2
// evidence.
func (r *Reasoner) Ask(ctx context.Context, req Request) evidence.Verdict {
	timer := logging.StartTimer(logging.CategoryLinguistic, "Reasoner.Ask:"+string(req.Question))
	defer timer.Stop()

	prompt := buildPrompt(req)

	if r.genaiClient != nil {
		if v, ok := r.askGemini(ctx, prompt); ok {
			return v
		}
	}
	if r.cfg.FallbackAPIKey != "" {
		if v, ok := r.askOpenAICompatible(ctx, prompt); ok {
			return v
		}
	}

	logging.Infof(logging.CategoryLinguistic, "both providers unavailable for %s, degrading to fallback verdict", req.Question)
	return fallbackVerdict(req)
}

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prompt given to the code generator:\n%s\n\n", req.Prompt)
	fmt.Fprintf(&b, "Code produced by the generator:\n%s\n\n", req.Code)
	fmt.Fprintf(&b, "Question: %s\n\n", req.QuestionText)
	if len(req.Tier1Bullets) > 0 {
		b.WriteString("Tier-1 rule-engine evidence:\n")
		for _, e := range req.Tier1Bullets {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	if len(req.Tier2Bullets) > 0 {
		b.WriteString("Tier-2 AST-verified evidence:\n")
		for _, e := range req.Tier2Bullets {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	b.WriteString("\n" + jsonSchemaInstruction)
	return b.String()
}

// askGemini calls the primary provider, two attempts with exponential
// backoff between them.
func (r *Reasoner) askGemini(ctx context.Context, prompt string) (evidence.Verdict, bool) {
	model := r.cfg.PrimaryModel
	if model == "" {
		model = "gemini-2.5-flash"
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	var lastErr error
	for attempt := 0; attempt < r.attemptsPerProvider(); attempt++ {
		if attempt > 0 {
			time.Sleep(backoff(attempt))
		}
		resp, err := r.genaiClient.Models.GenerateContent(ctx, model, contents, nil)
		if err != nil {
			lastErr = err
			logging.Infof(logging.CategoryLinguistic, "gemini attempt %d failed: %v", attempt, err)
			continue
		}
		text := extractText(resp)
		v, ok := parseVerdict(text)
		if !ok {
			lastErr = fmt.Errorf("malformed JSON reply")
			continue
		}
		v.VerdictBy = "llm"
		v = v.WithConfidence(0.85)
		return v, true
	}
	logging.Infof(logging.CategoryLinguistic, "gemini exhausted retries: %v", lastErr)
	return evidence.Verdict{}, false
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	if t := resp.Text(); t != "" {
		return t
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

// openAIChatRequest/openAIChatResponse are the wire shapes of a
// generic OpenAI-compatible chat-completions endpoint, used by the
// fallback provider.
type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r *Reasoner) askOpenAICompatible(ctx context.Context, prompt string) (evidence.Verdict, bool) {
	baseURL := r.cfg.FallbackBaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := r.cfg.FallbackModel
	if model == "" {
		model = "gpt-4o-mini"
	}

	body, err := json.Marshal(openAIChatRequest{
		Model:       model,
		Messages:    []openAIChatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.1,
	})
	if err != nil {
		return evidence.Verdict{}, false
	}

	var lastErr error
	for attempt := 0; attempt < r.attemptsPerProvider(); attempt++ {
		if attempt > 0 {
			time.Sleep(backoff(attempt))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return evidence.Verdict{}, false
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+r.cfg.FallbackAPIKey)

		resp, err := r.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("fallback provider returned status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var parsed openAIChatResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			lastErr = err
			continue
		}
		if parsed.Error != nil {
			lastErr = fmt.Errorf("fallback provider error: %s", parsed.Error.Message)
			continue
		}
		if len(parsed.Choices) == 0 {
			lastErr = fmt.Errorf("fallback provider returned no choices")
			continue
		}
		v, ok := parseVerdict(parsed.Choices[0].Message.Content)
		if !ok {
			lastErr = fmt.Errorf("malformed JSON reply")
			continue
		}
		v.VerdictBy = "llm"
		v = v.WithConfidence(0.85)
		return v, true
	}
	logging.Infof(logging.CategoryLinguistic, "fallback provider exhausted retries: %v", lastErr)
	return evidence.Verdict{}, false
}

// parseVerdict extracts the JSON reply schema object from a model
// response. No attempt is made to repair malformed output; it is
// simply treated as a failed call.
func parseVerdict(raw string) (evidence.Verdict, bool) {
	raw = strings.TrimSpace(raw)
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return evidence.Verdict{}, false
	}
	var v evidence.Verdict
	if err := json.Unmarshal([]byte(raw[start:end+1]), &v); err != nil {
		return evidence.Verdict{}, false
	}
	return v, true
}

// fallbackVerdict synthesizes a verdict from Tier-1/Tier-2 evidence
// alone: union of issues, confidence = max of the contributing tiers'
// per-candidate confidences, severity = Tier-2's if it narrowed
// anything down else Tier-1's. Tagged verdict_by = fallback.
func fallbackVerdict(req Request) evidence.Verdict {
	issues := append(append([]string{}, req.Tier2Bullets...), req.Tier1Bullets...)
	found := len(issues) > 0

	severity := 0
	if len(req.Tier2.Candidates) > 0 {
		severity = 6
	} else if len(req.Tier1.Candidates) > 0 {
		severity = 4
	}

	confidence := 0.0
	for _, c := range req.Tier1.Candidates {
		if c.Confidence > confidence {
			confidence = c.Confidence
		}
	}
	for _, c := range req.Tier2.Candidates {
		if c.Confidence > confidence {
			confidence = c.Confidence
		}
	}

	summary := "no evidence surfaced by the rule engine or AST verifier"
	if found {
		summary = fmt.Sprintf("%d evidence item(s) for %s could not be confirmed by an external model; reporting on rule/AST evidence alone", len(issues), req.Question)
	}
	return evidence.Verdict{
		Found:     found,
		Issues:    issues,
		Severity:  severity,
		Summary:   summary,
		VerdictBy: "fallback",
	}.WithConfidence(confidence)
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt-1)) * time.Second
}

// attemptsPerProvider returns the configured attempt count, two per
// provider by default.
func (r *Reasoner) attemptsPerProvider() int {
	if r.cfg.MaxRetries <= 0 {
		return 2
	}
	return r.cfg.MaxRetries
}
