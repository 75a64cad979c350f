package types

import "time"

// Status is the Analysis record's lifecycle state.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
)

// StageLog records one pipeline stage's outcome for an Analysis.
type StageLog struct {
	StageName string  `json:"stage_name"`
	Success   bool    `json:"success"`
	Error     string  `json:"error,omitempty"`
	ElapsedS  float64 `json:"elapsed_seconds"`
}

// LinguisticExtras is the structured dump of the four linguistic
// detectors' auxiliary output.
type LinguisticExtras struct {
	IntentMatchScore   float64  `json:"intent_match_score"`
	HardcodedValues    []string `json:"hardcoded_values,omitempty"`
	UnpromptedFeatures []string `json:"unprompted_features,omitempty"`
	MissingFeatures    []string `json:"missing_features,omitempty"`
}

// Analysis is the persistent aggregate for one (prompt, code) submission.
type Analysis struct {
	ID       string `json:"id"`
	Prompt   string `json:"prompt"`
	Code     string `json:"code"`
	Language string `json:"language"`

	Status          Status  `json:"status"`
	HasBugs         bool    `json:"has_bugs"`
	OverallSeverity int     `json:"overall_severity"`
	Confidence      float64 `json:"confidence"`
	Summary         string  `json:"summary"`

	Findings []Finding `json:"findings"`

	StageLogs        []StageLog       `json:"stage_logs"`
	LinguisticExtras LinguisticExtras `json:"linguistic_extras"`

	CreatedAt time.Time `json:"created_at"`
}

// Recompute enforces the aggregate invariants: has_bugs holds exactly
// when findings is non-empty, and overall_severity is the max finding
// severity (0 otherwise).
func (a *Analysis) Recompute() {
	a.HasBugs = len(a.Findings) > 0
	if !a.HasBugs {
		a.OverallSeverity = 0
		a.Confidence = 1.0
		return
	}
	maxSeverity, maxConfidence := 0, 0.0
	for _, f := range a.Findings {
		if f.Severity > maxSeverity {
			maxSeverity = f.Severity
		}
		if f.Confidence > maxConfidence {
			maxConfidence = f.Confidence
		}
	}
	a.OverallSeverity = maxSeverity
	a.Confidence = maxConfidence
}
