package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/intentguard/intentguard/internal/logging"
	"github.com/intentguard/intentguard/internal/types"
)

// Create persists a brand-new Analysis record, written once at the
// end of Phase A with status=processing.
func (s *Store) Create(a *types.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := logging.StartTimer(logging.CategoryStore, "Create")
	defer timer.Stop()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO analyses (id, prompt, code, language, overall_severity, has_bugs, summary, confidence, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Prompt, a.Code, a.Language, a.OverallSeverity, a.HasBugs, a.Summary, a.Confidence, string(a.Status), a.CreatedAt,
	); err != nil {
		return fmt.Errorf("store: insert analysis: %w", err)
	}

	if err := writeChildren(tx, a); err != nil {
		return err
	}
	return tx.Commit()
}

// Update rewrites an existing Analysis's mutable aggregate (findings,
// stage logs, linguistic details, status, summary) at the end of
// Phase B. The child tables are deleted and reinserted rather than
// diffed, since Phase B always produces the complete final set in one
// pass.
func (s *Store) Update(a *types.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := logging.StartTimer(logging.CategoryStore, "Update")
	defer timer.Stop()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE analyses SET overall_severity=?, has_bugs=?, summary=?, confidence=?, status=? WHERE id=?`,
		a.OverallSeverity, a.HasBugs, a.Summary, a.Confidence, string(a.Status), a.ID,
	); err != nil {
		return fmt.Errorf("store: update analysis: %w", err)
	}

	for _, table := range []string{"findings", "stage_logs", "linguistic_details"} {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE analysis_id = ?", table), a.ID); err != nil {
			return fmt.Errorf("store: clear %s: %w", table, err)
		}
	}
	if err := writeChildren(tx, a); err != nil {
		return err
	}
	return tx.Commit()
}

func writeChildren(tx *sql.Tx, a *types.Analysis) error {
	for _, f := range a.Findings {
		// The ten pattern tags are a closed sum; unknown tags are
		// rejected here at the persistence boundary.
		if err := types.ValidatePattern(f.Pattern); err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO findings (analysis_id, pattern, severity, confidence, description, location, fix_hint, detection_stage)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, string(f.Pattern), f.Severity, f.Confidence, f.Description, f.Location, f.FixHint, string(f.DetectionStage),
		); err != nil {
			return fmt.Errorf("store: insert finding: %w", err)
		}
	}
	for _, l := range a.StageLogs {
		if _, err := tx.Exec(
			`INSERT INTO stage_logs (analysis_id, stage_name, success, error, elapsed_s) VALUES (?, ?, ?, ?, ?)`,
			a.ID, l.StageName, l.Success, l.Error, l.ElapsedS,
		); err != nil {
			return fmt.Errorf("store: insert stage log: %w", err)
		}
	}

	unprompted, err := json.Marshal(a.LinguisticExtras.UnpromptedFeatures)
	if err != nil {
		return fmt.Errorf("store: marshal unprompted_features: %w", err)
	}
	missing, err := json.Marshal(a.LinguisticExtras.MissingFeatures)
	if err != nil {
		return fmt.Errorf("store: marshal missing_features: %w", err)
	}
	hardcoded, err := json.Marshal(a.LinguisticExtras.HardcodedValues)
	if err != nil {
		return fmt.Errorf("store: marshal hardcoded_values: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO linguistic_details (analysis_id, intent_match_score, unprompted_features, missing_features, hardcoded_values)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.LinguisticExtras.IntentMatchScore, string(unprompted), string(missing), string(hardcoded),
	); err != nil {
		return fmt.Errorf("store: insert linguistic details: %w", err)
	}
	return nil
}

// Get loads one Analysis by id, including its findings, stage logs,
// and linguistic details. It returns sql.ErrNoRows if the id is
// unknown, matching database/sql's idiom for callers to check against.
func (s *Store) Get(id string) (*types.Analysis, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Get")
	defer timer.Stop()

	a := &types.Analysis{ID: id}
	var status string
	row := s.db.QueryRow(
		`SELECT prompt, code, language, overall_severity, has_bugs, summary, confidence, status, created_at
		 FROM analyses WHERE id = ?`, id)
	if err := row.Scan(&a.Prompt, &a.Code, &a.Language, &a.OverallSeverity, &a.HasBugs, &a.Summary, &a.Confidence, &status, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Status = types.Status(status)

	findings, err := s.loadFindings(id)
	if err != nil {
		return nil, err
	}
	a.Findings = findings

	logs, err := s.loadStageLogs(id)
	if err != nil {
		return nil, err
	}
	a.StageLogs = logs

	extras, err := s.loadLinguisticDetails(id)
	if err != nil {
		return nil, err
	}
	a.LinguisticExtras = extras

	return a, nil
}

func (s *Store) loadFindings(analysisID string) ([]types.Finding, error) {
	rows, err := s.db.Query(
		`SELECT pattern, severity, confidence, description, location, fix_hint, detection_stage
		 FROM findings WHERE analysis_id = ? ORDER BY id`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("store: query findings: %w", err)
	}
	defer rows.Close()

	var out []types.Finding
	for rows.Next() {
		var f types.Finding
		var pattern, stage string
		var location, fixHint sql.NullString
		if err := rows.Scan(&pattern, &f.Severity, &f.Confidence, &f.Description, &location, &fixHint, &stage); err != nil {
			return nil, fmt.Errorf("store: scan finding: %w", err)
		}
		f.Pattern = types.Pattern(pattern)
		f.DetectionStage = types.DetectionStage(stage)
		f.Location = location.String
		f.FixHint = fixHint.String
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) loadStageLogs(analysisID string) ([]types.StageLog, error) {
	rows, err := s.db.Query(
		`SELECT stage_name, success, error, elapsed_s FROM stage_logs WHERE analysis_id = ? ORDER BY id`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("store: query stage logs: %w", err)
	}
	defer rows.Close()

	var out []types.StageLog
	for rows.Next() {
		var l types.StageLog
		var errText sql.NullString
		if err := rows.Scan(&l.StageName, &l.Success, &errText, &l.ElapsedS); err != nil {
			return nil, fmt.Errorf("store: scan stage log: %w", err)
		}
		l.Error = errText.String
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) loadLinguisticDetails(analysisID string) (types.LinguisticExtras, error) {
	var extras types.LinguisticExtras
	var unprompted, missing, hardcoded string
	row := s.db.QueryRow(
		`SELECT intent_match_score, unprompted_features, missing_features, hardcoded_values
		 FROM linguistic_details WHERE analysis_id = ?`, analysisID)
	if err := row.Scan(&extras.IntentMatchScore, &unprompted, &missing, &hardcoded); err != nil {
		if err == sql.ErrNoRows {
			return types.LinguisticExtras{}, nil
		}
		return types.LinguisticExtras{}, fmt.Errorf("store: scan linguistic details: %w", err)
	}
	_ = json.Unmarshal([]byte(unprompted), &extras.UnpromptedFeatures)
	_ = json.Unmarshal([]byte(missing), &extras.MissingFeatures)
	_ = json.Unmarshal([]byte(hardcoded), &extras.HardcodedValues)
	return extras, nil
}

// List returns the most recent analyses, newest first, bounded by
// limit.
func (s *Store) List(limit int) ([]types.Analysis, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id FROM analyses ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query list: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	out := make([]types.Analysis, 0, len(ids))
	for _, id := range ids {
		a, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

// Stats is the aggregate-statistics endpoint's payload: counts by
// pattern across every persisted analysis.
type Stats struct {
	TotalAnalyses int            `json:"total_analyses"`
	TotalFindings int            `json:"total_findings"`
	ByPattern     map[string]int `json:"by_pattern"`
}

// Stats computes aggregate counts across all persisted analyses.
func (s *Store) Stats() (Stats, error) {
	stats := Stats{ByPattern: make(map[string]int)}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM analyses").Scan(&stats.TotalAnalyses); err != nil {
		return stats, fmt.Errorf("store: count analyses: %w", err)
	}

	rows, err := s.db.Query("SELECT pattern, COUNT(*) FROM findings GROUP BY pattern")
	if err != nil {
		return stats, fmt.Errorf("store: query pattern counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pattern string
		var count int
		if err := rows.Scan(&pattern, &count); err != nil {
			return stats, fmt.Errorf("store: scan pattern count: %w", err)
		}
		stats.ByPattern[pattern] = count
		stats.TotalFindings += count
	}
	return stats, rows.Err()
}

// SaveFeedback records a caller's feedback on one analysis.
func (s *Store) SaveFeedback(analysisID string, rating int, comment string, helpful bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO feedback (analysis_id, rating, comment, helpful) VALUES (?, ?, ?, ?)`,
		analysisID, rating, comment, helpful,
	)
	if err != nil {
		return fmt.Errorf("store: insert feedback: %w", err)
	}
	return nil
}
