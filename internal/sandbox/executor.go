// Package sandbox runs the target Python program in a separate
// process, capturing stdout and stderr for the dynamic analysis layer.
// The container back-end applies memory, CPU, and network limits; the
// subprocess back-end applies only the wall timeout and the import
// deny-set.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/intentguard/intentguard/internal/config"
	"github.com/intentguard/intentguard/internal/logging"
)

// Outcome is the executor's contract result.
type Outcome struct {
	Stdout     string
	Stderr     string
	ExitCode   int
	TimedOut   bool
	Skipped    bool // refused before execution (deny-set hit)
	SkipReason string
	Degraded   bool // container backend fell back to subprocess
}

const maxOutputBytes = 50_000

// Run executes source under the configured back-end. stdin, when
// non-empty, is piped to the process.
func Run(ctx context.Context, cfg config.SandboxConfig, source, stdin string) (Outcome, error) {
	timer := logging.StartTimer(logging.CategorySandbox, "Run")
	defer timer.Stop()

	if cfg.Backend == config.BackendDisabled {
		return Outcome{Skipped: true, SkipReason: "sandbox disabled by configuration"}, nil
	}

	if reason, deny := deniedImport(source); deny {
		logging.Infof(logging.CategorySandbox, "refusing source: %s", reason)
		return Outcome{Skipped: true, SkipReason: reason}, nil
	}

	if cfg.Backend == config.BackendContainer {
		out, err := runContainer(ctx, cfg, source, stdin)
		if err == nil {
			return out, nil
		}
		logging.Infof(logging.CategorySandbox, "container backend unavailable (%v), degrading to subprocess", err)
		out, err = runSubprocess(ctx, cfg, source, stdin)
		out.Degraded = true
		return out, err
	}

	return runSubprocess(ctx, cfg, source, stdin)
}

func runSubprocess(ctx context.Context, cfg config.SandboxConfig, source, stdin string) (Outcome, error) {
	wall := time.Duration(cfg.WallTimeoutS) * time.Second
	if wall <= 0 {
		wall = 10 * time.Second
	}
	execCtx, cancel := context.WithTimeout(ctx, wall)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "python3", "-c", source)
	if stdin != "" {
		cmd.Stdin = bytes.NewBufferString(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	out := Outcome{
		Stdout:   truncate(stdout.String()),
		Stderr:   truncate(stderr.String()),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	if execCtx.Err() == context.DeadlineExceeded {
		out.TimedOut = true
		return out, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, nil // non-zero exit is a normal outcome, not a Go error
		}
		return out, fmt.Errorf("sandbox: subprocess: %w", err)
	}
	return out, nil
}

// runContainer shells out to `docker run` with hard resource limits:
// memory cap, CPU share, network disabled, read-only
// filesystem outside a scratch volume. If docker is unavailable the
// caller degrades to the subprocess back-end.
func runContainer(ctx context.Context, cfg config.SandboxConfig, source, stdin string) (Outcome, error) {
	wall := time.Duration(cfg.WallTimeoutS) * time.Second
	if wall <= 0 {
		wall = 10 * time.Second
	}
	execCtx, cancel := context.WithTimeout(ctx, wall)
	defer cancel()

	image := cfg.ContainerImage
	if image == "" {
		image = "python:3.12-slim"
	}
	memMB := cfg.MemoryBytes / (1024 * 1024)
	if memMB <= 0 {
		memMB = 128
	}

	args := []string{
		"run", "--rm", "-i",
		"--memory", fmt.Sprintf("%dm", memMB),
		"--cpus", "0.5",
		"--read-only",
		"--tmpfs", "/tmp:rw,size=16m",
	}
	if !cfg.Network {
		args = append(args, "--network", "none")
	}
	args = append(args, image, "python3", "-c", source)

	cmd := exec.CommandContext(execCtx, "docker", args...)
	if stdin != "" {
		cmd.Stdin = bytes.NewBufferString(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Outcome{}, fmt.Errorf("docker_unavailable: %w", err)
	}
	err := cmd.Wait()

	out := Outcome{
		Stdout:   truncate(stdout.String()),
		Stderr:   truncate(stderr.String()),
		ExitCode: cmd.ProcessState.ExitCode(),
	}
	if execCtx.Err() == context.DeadlineExceeded {
		out.TimedOut = true
		return out, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, nil
		}
		return out, fmt.Errorf("sandbox: container: %w", err)
	}
	return out, nil
}

func truncate(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	return s[:maxOutputBytes] + "\n...[truncated]"
}
