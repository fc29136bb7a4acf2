// Package runner executes project commands through the shell and
// captures their output for the fixer and builder.
package runner

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// Result captures a finished command execution
type Result struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports whether the command exited cleanly
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes shell commands in a working directory
type Runner struct {
	// Dir is the working directory for executed commands.
	Dir string
	// Timeout bounds a single command run; zero means no limit.
	Timeout time.Duration
}

// New creates a runner rooted at dir
func New(dir string) *Runner {
	return &Runner{Dir: dir}
}

// Run executes a command line through the shell and captures output.
// A non-zero exit status is reported in the result, not as an error;
// the error return covers failures to start or a cancelled context.
func (r *Runner) Run(ctx context.Context, command string) (Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Command:  command,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.ExitCode = -1
			return result, ctxErr
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		return result, err
	}

	return result, nil
}

// Tail returns the last n bytes of s, for log-sized excerpts
func Tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
