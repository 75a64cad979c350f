package sandbox

import (
	"context"
	"testing"

	"github.com/intentguard/intentguard/internal/config"
)

func TestRun_DisabledBackendSkips(t *testing.T) {
	out, err := Run(context.Background(), config.SandboxConfig{Backend: config.BackendDisabled}, "print(1)", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Skipped {
		t.Fatal("expected disabled backend to skip execution")
	}
}

func TestRun_DeniedImportRefusedBeforeLaunch(t *testing.T) {
	cfg := config.SandboxConfig{Backend: config.BackendSubprocess, WallTimeoutS: 5}
	out, err := Run(context.Background(), cfg, "import socket\ns = socket.socket()\n", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Skipped {
		t.Fatal("expected deny-set import to be refused")
	}
	if out.SkipReason == "" {
		t.Fatal("expected a structured skip reason")
	}
}
