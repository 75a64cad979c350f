// Package orchestrator sequences the analysis pipeline in two phases:
// Phase A runs the static and dynamic layers synchronously and
// returns a preliminary record; Phase B runs the linguistic layer in
// an independent background task and rewrites the record to
// status=complete. The record becomes visible as processing strictly
// before any poller can observe it, and the processing->complete
// transition happens exactly once.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/intentguard/intentguard/internal/classifier"
	"github.com/intentguard/intentguard/internal/config"
	"github.com/intentguard/intentguard/internal/dynamic"
	"github.com/intentguard/intentguard/internal/explainer"
	"github.com/intentguard/intentguard/internal/linguistic"
	"github.com/intentguard/intentguard/internal/linguistic/reasoner"
	"github.com/intentguard/intentguard/internal/logging"
	"github.com/intentguard/intentguard/internal/static"
	"github.com/intentguard/intentguard/internal/store"
	"github.com/intentguard/intentguard/internal/types"
)

// Orchestrator sequences the three analysis layers per analysis id and
// tracks which ids still have a Phase B task outstanding.
type Orchestrator struct {
	cfg   *config.Config
	store *store.Store
	rsn   *reasoner.Reasoner

	mu         sync.Mutex
	inProgress map[string]bool
}

// New builds an Orchestrator. rsn may be nil-backed (no API keys
// configured); the reasoner itself degrades to fallback verdicts in
// that case.
func New(cfg *config.Config, st *store.Store, rsn *reasoner.Reasoner) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		store:      st,
		rsn:        rsn,
		inProgress: make(map[string]bool),
	}
}

// InProgress reports whether an analysis id still has a Phase B task
// outstanding.
func (o *Orchestrator) InProgress(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inProgress[id]
}

// UpdateConfig swaps in a reloaded configuration. An in-flight
// analysis finishes Phase A with the config it started with; its
// Phase B reads the config current when Phase B starts, so a reload in
// between reaches that Phase B.
func (o *Orchestrator) UpdateConfig(cfg *config.Config) {
	o.mu.Lock()
	o.cfg = cfg
	o.mu.Unlock()
	logging.Infof(logging.CategoryOrchestrator, "configuration reloaded")
}

func (o *Orchestrator) config() *config.Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg
}

func (o *Orchestrator) markInProgress(id string) {
	o.mu.Lock()
	o.inProgress[id] = true
	o.mu.Unlock()
}

func (o *Orchestrator) clearInProgress(id string) {
	o.mu.Lock()
	delete(o.inProgress, id)
	o.mu.Unlock()
}

// Submit runs Phase A synchronously, persists the preliminary record,
// enqueues Phase B, and returns the record with status=processing.
// Cancelling ctx aborts Phase A but never Phase B: the background
// task is started with its own context derived from
// context.Background(), not from ctx.
func (o *Orchestrator) Submit(ctx context.Context, prompt, code string) (*types.Analysis, error) {
	timer := logging.StartTimer(logging.CategoryOrchestrator, "Submit")
	defer timer.Stop()

	cfg := o.config()
	id := uuid.NewString()
	a := &types.Analysis{
		ID:        id,
		Prompt:    prompt,
		Code:      code,
		Language:  "python",
		Status:    types.StatusProcessing,
		CreatedAt: time.Now(),
	}

	staticRes, err := static.Analyze(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: static analyze: %w", err)
	}
	a.StageLogs = append(a.StageLogs, staticRes.StageLog)

	dynStart := time.Now()
	dynRes, err := dynamic.Analyze(ctx, cfg.Sandbox, code)
	dynElapsed := time.Since(dynStart).Seconds()
	if err != nil {
		logging.Errorf(logging.CategoryOrchestrator, "dynamic analyze failed for %s: %v", id, err)
		a.StageLogs = append(a.StageLogs, types.StageLog{StageName: "dynamic", Success: false, Error: err.Error(), ElapsedS: dynElapsed})
	} else {
		dynLog := types.StageLog{StageName: "dynamic", Success: true, ElapsedS: dynElapsed}
		if dynRes.TimedOut {
			dynLog.Error = dynRes.RawMessage
		}
		a.StageLogs = append(a.StageLogs, dynLog)
	}

	classifyStart := time.Now()
	a.Findings = classifier.Classify(classifier.Input{
		Static:  staticRes.Findings,
		Dynamic: dynRes.Hypothesis,
	})
	a.Findings = explainer.ExplainAll(a.Findings)
	a.Summary = explainer.Summarize(a.Findings)
	a.Recompute()
	a.StageLogs = append(a.StageLogs, types.StageLog{StageName: "classifier", Success: true, ElapsedS: time.Since(classifyStart).Seconds()})

	if err := o.store.Create(a); err != nil {
		staticRes.Tree.Close()
		return nil, fmt.Errorf("orchestrator: persist preliminary record: %w", err)
	}

	o.markInProgress(id)
	o.enqueuePhaseB(id, prompt, code, staticRes, dynRes.Hypothesis)

	return a, nil
}

// enqueuePhaseB starts the background task that runs the linguistic
// layer and rewrites the record to status=complete. It never uses the
// caller's ctx: a disconnected caller must not cancel background
// work. dynHypothesis is the Phase A dynamic finding, carried
// forward rather than re-run, since the sandbox already produced it.
func (o *Orchestrator) enqueuePhaseB(id, prompt, code string, staticRes *static.Result, dynHypothesis *types.Finding) {
	go func() {
		budget := time.Duration(o.config().Execution.PhaseBBudgetS) * time.Second
		if budget <= 0 {
			budget = 120 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), budget)
		defer cancel()
		defer o.clearInProgress(id)

		o.runPhaseB(ctx, id, prompt, code, staticRes, dynHypothesis)
	}()
}

func (o *Orchestrator) runPhaseB(ctx context.Context, id, prompt, code string, staticRes *static.Result, dynHypothesis *types.Finding) {
	timer := logging.StartTimer(logging.CategoryOrchestrator, "PhaseB:"+id)
	defer timer.Stop()
	defer staticRes.Tree.Close() // ownership was handed to us by Submit for exactly this reuse

	root := staticRes.Tree.RootNode()
	result := linguistic.Run(ctx, o.config(), o.rsn, prompt, code, root, staticRes.Source)

	a, err := o.store.Get(id)
	if err != nil {
		logging.Errorf(logging.CategoryOrchestrator, "phase B: reload %s failed: %v", id, err)
		return
	}

	a.Findings = classifier.Classify(classifier.Input{
		Static:     staticRes.Findings,
		Dynamic:    dynHypothesis,
		Linguistic: result.Findings,
	})
	a.Findings = explainer.ExplainAll(a.Findings)
	a.Summary = explainer.Summarize(a.Findings)
	a.LinguisticExtras = result.Extras
	a.StageLogs = append(a.StageLogs, result.StageLogs...)
	a.Recompute()
	a.Status = types.StatusComplete

	if err := o.store.Update(a); err != nil {
		logging.Errorf(logging.CategoryOrchestrator, "phase B: persist %s failed: %v", id, err)
	}
}

// Get loads an analysis record for polling.
func (o *Orchestrator) Get(id string) (*types.Analysis, error) {
	return o.store.Get(id)
}
