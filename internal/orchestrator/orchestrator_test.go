package orchestrator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/intentguard/intentguard/internal/config"
	"github.com/intentguard/intentguard/internal/linguistic/reasoner"
	"github.com/intentguard/intentguard/internal/store"
	"github.com/intentguard/intentguard/internal/types"
)

// TestMain verifies the Phase B background tasks never leak goroutines
// past the tests that wait for them.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	cfg := config.DefaultConfig()
	// The dynamic layer needs a python interpreter and is exercised in
	// its own package; here it is disabled so the orchestrator tests
	// stay hermetic.
	cfg.Sandbox.Backend = config.BackendDisabled

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	rsn, err := reasoner.New(context.Background(), cfg.LLM)
	require.NoError(t, err)

	return New(cfg, st, rsn)
}

// waitComplete polls until Phase B finishes, per the external polling
// contract: callers poll until status == complete.
func waitComplete(t *testing.T, o *Orchestrator, id string) *types.Analysis {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for {
		a, err := o.Get(id)
		require.NoError(t, err)
		if a.Status == types.StatusComplete && !o.InProgress(id) {
			return a
		}
		require.True(t, time.Now().Before(deadline), "analysis %s never completed", id)
		time.Sleep(20 * time.Millisecond)
	}
}

func TestSubmit_CleanCode(t *testing.T) {
	o := newTestOrchestrator(t)

	prelim, err := o.Submit(context.Background(), "add two numbers", "def add(a,b):\n    return a+b\n")
	require.NoError(t, err)
	assert.Equal(t, types.StatusProcessing, prelim.Status)
	assert.False(t, prelim.HasBugs)

	final := waitComplete(t, o, prelim.ID)
	assert.False(t, final.HasBugs)
	assert.Empty(t, final.Findings)
	assert.Equal(t, 0, final.OverallSeverity)
	assert.Equal(t, types.StatusComplete, final.Status)
}

func TestSubmit_SyntaxErrorSuppressesOthers(t *testing.T) {
	o := newTestOrchestrator(t)

	prelim, err := o.Submit(context.Background(), "add two numbers", "def add(a,b)\n    return a+b\n")
	require.NoError(t, err)
	require.Len(t, prelim.Findings, 1)
	assert.Equal(t, types.PatternSyntaxError, prelim.Findings[0].Pattern)
	assert.Contains(t, prelim.Findings[0].Location, "Line 1")
	assert.GreaterOrEqual(t, prelim.Findings[0].Severity, 8)

	final := waitComplete(t, o, prelim.ID)
	for _, f := range final.Findings {
		assert.Equal(t, types.PatternSyntaxError, f.Pattern,
			"syntax errors must suppress all other findings")
	}
}

func TestSubmit_Hallucination(t *testing.T) {
	o := newTestOrchestrator(t)

	prelim, err := o.Submit(context.Background(), "compute factorial", "def f(n):\n    return calc.factorial(n)\n")
	require.NoError(t, err)

	var halluc *types.Finding
	for i := range prelim.Findings {
		if prelim.Findings[i].Pattern == types.PatternHallucinatedObject {
			halluc = &prelim.Findings[i]
		}
	}
	require.NotNil(t, halluc, "expected a hallucinated_object finding for 'calc'")
	assert.GreaterOrEqual(t, halluc.Severity, 8)
	assert.Contains(t, halluc.Description, "calc")

	waitComplete(t, o, prelim.ID)
}

func TestSubmit_MisinterpretationViaLinguisticLayer(t *testing.T) {
	o := newTestOrchestrator(t)

	prelim, err := o.Submit(context.Background(),
		"return the average of a list of numbers", "def avg(nums):\n    return sum(nums)\n")
	require.NoError(t, err)

	final := waitComplete(t, o, prelim.ID)
	var misinterp *types.Finding
	for i := range final.Findings {
		if final.Findings[i].Pattern == types.PatternMisinterpretation {
			misinterp = &final.Findings[i]
		}
	}
	require.NotNil(t, misinterp, "expected a misinterpretation finding, got %+v", final.Findings)
	assert.Equal(t, types.StageLinguistic, misinterp.DetectionStage)

	// P7: the complete record keeps every preliminary pattern.
	prelimPatterns := make(map[types.Pattern]bool)
	for _, f := range prelim.Findings {
		prelimPatterns[f.Pattern] = true
	}
	finalPatterns := make(map[types.Pattern]bool)
	for _, f := range final.Findings {
		finalPatterns[f.Pattern] = true
	}
	for p := range prelimPatterns {
		assert.True(t, finalPatterns[p], "pattern %s lost between preliminary and complete", p)
	}
}

func TestSubmit_PromptBias(t *testing.T) {
	o := newTestOrchestrator(t)

	prelim, err := o.Submit(context.Background(),
		"sort the list, e.g., [3,1,2]", "def sort(x):\n    return [1,2,3]\n")
	require.NoError(t, err)

	final := waitComplete(t, o, prelim.ID)
	var bias *types.Finding
	for i := range final.Findings {
		if final.Findings[i].Pattern == types.PatternPromptBiasedCode {
			bias = &final.Findings[i]
		}
	}
	require.NotNil(t, bias, "expected a prompt_biased_code finding, got %+v", final.Findings)
	assert.Less(t, final.LinguisticExtras.IntentMatchScore, 0.5)
}

func TestSubmit_EmptyCode(t *testing.T) {
	o := newTestOrchestrator(t)

	prelim, err := o.Submit(context.Background(), "add two numbers", "")
	require.NoError(t, err)
	assert.False(t, prelim.HasBugs)

	final := waitComplete(t, o, prelim.ID)
	assert.False(t, final.HasBugs)
	assert.Equal(t, 0, final.OverallSeverity)
}

func TestSubmit_CallerCancellationDoesNotStopPhaseB(t *testing.T) {
	o := newTestOrchestrator(t)

	ctx, cancel := context.WithCancel(context.Background())
	prelim, err := o.Submit(ctx, "add two numbers", "def add(a,b):\n    return a+b\n")
	require.NoError(t, err)
	cancel() // caller disconnects right after Phase A returns

	final := waitComplete(t, o, prelim.ID)
	assert.Equal(t, types.StatusComplete, final.Status)
}

func TestSubmit_StageLogsRecorded(t *testing.T) {
	o := newTestOrchestrator(t)

	prelim, err := o.Submit(context.Background(), "add two numbers", "def add(a,b):\n    return a+b\n")
	require.NoError(t, err)

	final := waitComplete(t, o, prelim.ID)
	names := make(map[string]bool)
	for _, l := range final.StageLogs {
		names[l.StageName] = true
	}
	for _, want := range []string{"static", "dynamic", "classifier", "linguistic:misinterpretation"} {
		assert.True(t, names[want], "missing stage log %s in %+v", want, final.StageLogs)
	}
}
