package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/intentguard/intentguard/internal/types"
)

var (
	analyzePrompt      string
	analyzePromptFile  string
	analyzeCodeFile    string
	analyzeWait        bool
	analyzeWaitTimeout time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "submit a (prompt, code) pair for analysis",
	Long: `analyze runs Phase A (static + dynamic layers) synchronously and
prints the preliminary record. With --wait it keeps the process alive
until Phase B (the linguistic layer) completes and prints the final
record. Phase B is a goroutine in this same process, so the store
must stay open and the process must stay alive for it to finish.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzePrompt, "prompt", "", "the natural-language prompt")
	analyzeCmd.Flags().StringVar(&analyzePromptFile, "prompt-file", "", "path to a file containing the prompt")
	analyzeCmd.Flags().StringVar(&analyzeCodeFile, "code-file", "", "path to the code file to analyze (required)")
	analyzeCmd.Flags().BoolVar(&analyzeWait, "wait", false, "block until the analysis reaches status=complete")
	analyzeCmd.Flags().DurationVar(&analyzeWaitTimeout, "wait-timeout", 2*time.Minute, "max time to wait when --wait is set")
	analyzeCmd.MarkFlagFilename("prompt-file")
	analyzeCmd.MarkFlagFilename("code-file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	prompt, err := resolveText(analyzePrompt, analyzePromptFile)
	if err != nil {
		return fmt.Errorf("resolve prompt: %w", err)
	}
	if analyzeCodeFile == "" {
		return fmt.Errorf("--code-file is required")
	}
	codeBytes, err := os.ReadFile(analyzeCodeFile)
	if err != nil {
		return fmt.Errorf("read code file: %w", err)
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.orc.Submit(ctx, prompt, string(codeBytes))
	if err != nil {
		return fmt.Errorf("submit analysis: %w", err)
	}

	if analyzeWait {
		rec, err = waitForCompletion(a, rec.ID, analyzeWaitTimeout)
		if err != nil {
			return err
		}
	}
	return printJSON(rec)
}

// waitForCompletion polls the in-process orchestrator (not a fresh
// connection) so the same goroutine Submit spawned is the one being
// awaited, rather than racing a second store handle against Phase B's
// writes.
func waitForCompletion(a *app, id string, timeout time.Duration) (*types.Analysis, error) {
	deadline := time.Now().Add(timeout)
	for {
		rec, err := a.orc.Get(id)
		if err != nil {
			return nil, fmt.Errorf("poll analysis %s: %w", id, err)
		}
		if rec.Status == types.StatusComplete {
			return rec, nil
		}
		if time.Now().After(deadline) {
			return rec, fmt.Errorf("timed out after %s waiting for analysis %s to complete", timeout, id)
		}
		time.Sleep(250 * time.Millisecond)
	}
}

func resolveText(inline, path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return inline, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
