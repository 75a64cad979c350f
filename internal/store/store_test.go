package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentguard/intentguard/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleAnalysis(id string) *types.Analysis {
	a := &types.Analysis{
		ID:       id,
		Prompt:   "add two numbers",
		Code:     "def add(a,b):\n    return a+b",
		Language: "python",
		Status:   types.StatusProcessing,
		Findings: []types.Finding{
			types.NewFinding(types.PatternMissingCornerCase, 5, 0.6,
				"division by 'b' with no preceding zero check", types.StageStatic).WithLocation(2),
		},
		StageLogs: []types.StageLog{
			{StageName: "static", Success: true, ElapsedS: 0.01},
			{StageName: "dynamic", Success: true, ElapsedS: 0.35},
		},
		LinguisticExtras: types.LinguisticExtras{IntentMatchScore: 0.72},
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
	}
	a.Recompute()
	return a
}

func TestStore_CreateGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	a := sampleAnalysis("a-1")
	require.NoError(t, s.Create(a))

	got, err := s.Get("a-1")
	require.NoError(t, err)
	assert.Equal(t, a.Prompt, got.Prompt)
	assert.Equal(t, types.StatusProcessing, got.Status)
	assert.True(t, got.HasBugs)
	assert.Equal(t, 5, got.OverallSeverity)
	require.Len(t, got.Findings, 1)
	assert.Equal(t, types.PatternMissingCornerCase, got.Findings[0].Pattern)
	assert.Equal(t, "Line 2", got.Findings[0].Location)
	require.Len(t, got.StageLogs, 2)
	assert.InDelta(t, 0.72, got.LinguisticExtras.IntentMatchScore, 1e-9)
}

func TestStore_UpdateRewritesChildren(t *testing.T) {
	s := openTestStore(t)

	a := sampleAnalysis("a-2")
	require.NoError(t, s.Create(a))

	a.Status = types.StatusComplete
	a.Findings = append(a.Findings, types.NewFinding(types.PatternMisinterpretation, 7, 0.85,
		"returns sum instead of average", types.StageLinguistic))
	a.StageLogs = append(a.StageLogs, types.StageLog{StageName: "linguistic:misinterpretation", Success: true})
	a.LinguisticExtras.MissingFeatures = []string{"average"}
	a.Recompute()
	require.NoError(t, s.Update(a))

	got, err := s.Get("a-2")
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, got.Status)
	assert.Len(t, got.Findings, 2)
	assert.Equal(t, 7, got.OverallSeverity)
	assert.Equal(t, []string{"average"}, got.LinguisticExtras.MissingFeatures)
}

func TestStore_GetUnknownID(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStore_RejectsUnknownPattern(t *testing.T) {
	s := openTestStore(t)

	a := sampleAnalysis("a-3")
	a.Findings = []types.Finding{types.NewFinding("made_up_pattern", 5, 0.5, "x", types.StageStatic)}
	err := s.Create(a)
	require.Error(t, err)

	// The rejected transaction must leave no partial record behind.
	_, err = s.Get("a-3")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)

	first := sampleAnalysis("a-4")
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, s.Create(first))
	second := sampleAnalysis("a-5")
	second.CreatedAt = time.Now().UTC()
	require.NoError(t, s.Create(second))

	got, err := s.List(10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a-5", got[0].ID)
	assert.Equal(t, "a-4", got[1].ID)
}

func TestStore_Stats(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Create(sampleAnalysis("a-6")))
	require.NoError(t, s.Create(sampleAnalysis("a-7")))

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalAnalyses)
	assert.Equal(t, 2, stats.TotalFindings)
	assert.Equal(t, 2, stats.ByPattern["missing_corner_case"])
}

func TestStore_Feedback(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Create(sampleAnalysis("a-8")))
	require.NoError(t, s.SaveFeedback("a-8", 4, "useful", true))
}
