package dynamic

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"

	"github.com/intentguard/intentguard/internal/config"
	"github.com/intentguard/intentguard/internal/logging"
	"github.com/intentguard/intentguard/internal/sandbox"
	"github.com/intentguard/intentguard/internal/types"
)

// harnessOutcome mirrors the JSON object the Python harness emits.
type harnessOutcome struct {
	Status        string `json:"status"`
	ExceptionKind string `json:"exception_kind"`
	Message       string `json:"message"`
	Line          int    `json:"line"`
}

// Result is the dynamic layer's contract result: at most one pattern
// hypothesis plus the raw signal the classifier reconciles against
// static findings. "other-error" and "execution-timeout" carry no
// closed-taxonomy pattern of their own; they surface only as
// RawException/RawMessage/RawSeverity on the Result, never as a
// Finding, and the classifier does not receive them.
type Result struct {
	Hypothesis   *types.Finding
	ParseError   bool
	Skipped      bool
	SkipReason   string
	TimedOut     bool
	RawException string
	RawMessage   string
	RawSeverity  int
}

// Analyze wraps source in the instrumented harness, runs it under the
// Sandbox Executor, and classifies the captured exception.
func Analyze(ctx context.Context, cfg config.SandboxConfig, source string) (Result, error) {
	timer := logging.StartTimer(logging.CategoryDynamic, "Analyze")
	defer timer.Stop()

	wrapped := buildHarness(source)
	out, err := sandbox.Run(ctx, cfg, wrapped, "")
	if err != nil {
		return Result{}, err
	}

	if out.Skipped {
		return Result{Skipped: true, SkipReason: out.SkipReason}, nil
	}
	if out.TimedOut {
		return Result{
			TimedOut:     true,
			RawException: "timed_out",
			RawMessage:   "execution timed out before producing output",
			RawSeverity:  executionTimeoutSeverity,
		}, nil
	}

	line, ok := lastJSONLine(out.Stdout)
	if !ok {
		logging.Infof(logging.CategoryDynamic, "harness produced no parseable JSON line")
		return Result{ParseError: true}, nil
	}

	var ho harnessOutcome
	if err := json.Unmarshal([]byte(line), &ho); err != nil {
		return Result{ParseError: true}, nil
	}
	if ho.Status != "exception" {
		return Result{}, nil
	}

	mapping, known := exceptionMappings[ho.ExceptionKind]
	if !known {
		return Result{
			RawException: "other",
			RawMessage:   ho.Message,
			RawSeverity:  otherErrorSeverity,
		}, nil
	}

	f := types.NewFinding(mapping.Pattern, mapping.Severity, 0.7,
		describeException(ho.ExceptionKind, ho.Message), types.StageDynamic)
	f.Evidence = map[string]string{"exception_kind": ho.ExceptionKind, "message": ho.Message}
	if ho.Line > 0 {
		f = f.WithLocation(ho.Line)
	}
	return Result{Hypothesis: &f, RawException: ho.ExceptionKind}, nil
}

func describeException(kind, message string) string {
	return "runtime " + kind + ": " + message
}

// lastJSONLine scans stdout from the last line upward and returns the
// first line that parses as a JSON object, tolerating arbitrary
// non-JSON output interleaved by user code.
func lastJSONLine(stdout string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		var v map[string]any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return trimmed, true
		}
	}
	return "", false
}
