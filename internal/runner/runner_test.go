package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesStdout(t *testing.T) {
	r := New(t.TempDir())

	result, err := r.Run(context.Background(), "echo hello")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !result.Success() {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if strings.TrimSpace(result.Stdout) != "hello" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
}

func TestRunCapturesStderrAndExitCode(t *testing.T) {
	r := New(t.TempDir())

	result, err := r.Run(context.Background(), "echo oops >&2; exit 3")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
	if strings.TrimSpace(result.Stderr) != "oops" {
		t.Errorf("Stderr = %q", result.Stderr)
	}
	if result.Success() {
		t.Error("Success() should be false for exit 3")
	}
}

func TestRunUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	r := New(dir)
	result, err := r.Run(context.Background(), "ls")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !strings.Contains(result.Stdout, "marker.txt") {
		t.Errorf("Stdout = %q, command should run in %s", result.Stdout, dir)
	}
}

func TestRunTimeout(t *testing.T) {
	r := New(t.TempDir())
	r.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := r.Run(context.Background(), "sleep 5")
	if err == nil {
		t.Fatal("Run() should fail on timeout")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout did not interrupt the command promptly")
	}
}

func TestRunCancelledContext(t *testing.T) {
	r := New(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx, "echo hi"); err == nil {
		t.Error("Run() should fail with a cancelled context")
	}
}

func TestTail(t *testing.T) {
	if got := Tail("abcdef", 3); got != "def" {
		t.Errorf("Tail() = %q", got)
	}
	if got := Tail("ab", 10); got != "ab" {
		t.Errorf("Tail() = %q, short input should pass through", got)
	}
}
