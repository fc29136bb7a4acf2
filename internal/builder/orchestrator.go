// Package builder grows a project incrementally: it plans small build
// steps, asks a model for file changes one step at a time, runs the
// project between steps and repairs failures before moving on.
package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dexmac221/AgentsTeam/internal/config"
	"github.com/dexmac221/AgentsTeam/internal/errors"
	"github.com/dexmac221/AgentsTeam/internal/extract"
	"github.com/dexmac221/AgentsTeam/internal/fixer"
	"github.com/dexmac221/AgentsTeam/internal/generator"
	"github.com/dexmac221/AgentsTeam/internal/llm"
	"github.com/dexmac221/AgentsTeam/internal/logging"
	"github.com/dexmac221/AgentsTeam/internal/prompts"
	"github.com/dexmac221/AgentsTeam/internal/runner"
)

const (
	summaryMaxFiles = 15
	summaryMaxBytes = 8000
	diffMaxLines    = 120
	recentDiffs     = 3
	introStderrTail = 800
	introStdoutTail = 400
)

// fallbackSteps is used when the model cannot produce a usable plan
var fallbackSteps = []string{
	"create a minimal runnable project scaffold",
	"add the core application logic",
	"add basic tests for the core logic",
	"handle errors and edge cases",
	"improve documentation and usage notes",
}

var stepPrefixRe = regexp.MustCompile(`^(?:\d+[.)]|[-*])\s*`)

// Reporter receives build progress. The terminal UI implements it.
type Reporter interface {
	Step(name string)
	Info(msg string)
	Success(msg string)
	Warning(msg string)
}

type nopReporter struct{}

func (nopReporter) Step(string)    {}
func (nopReporter) Info(string)    {}
func (nopReporter) Success(string) {}
func (nopReporter) Warning(string) {}

// FileChange is one file the model wants to create or rewrite
type FileChange struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Options configures a build session
type Options struct {
	Description string
	Dir         string
	// RunCommand overrides run command inference.
	RunCommand string
	// Expect is a substring the run output must contain to count as
	// passing.
	Expect string
	Resume bool
}

// Report summarizes a finished build session
type Report struct {
	SessionID      string
	StepsPlanned   int
	StepsCompleted int
	Succeeded      bool
	LastRun        runner.Result
}

// Builder drives the incremental build loop
type Builder struct {
	client   llm.Client
	model    string
	cfg      *config.Config
	prompts  *prompts.Manager
	fixer    *fixer.Fixer
	log      *logging.Logger
	reporter Reporter
}

// New creates a builder using the given model
func New(client llm.Client, model string, cfg *config.Config, pm *prompts.Manager, log *logging.Logger, reporter Reporter) *Builder {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Builder{
		client:   client,
		model:    model,
		cfg:      cfg,
		prompts:  pm,
		fixer:    fixer.New(client, model, pm, log),
		log:      log,
		reporter: reporter,
	}
}

// PlanSteps asks the model to break the project into small build steps.
// Unusable replies fall back to a generic plan.
func (b *Builder) PlanSteps(ctx context.Context, description string) ([]string, error) {
	rendered, err := b.prompts.Render("plan_steps", map[string]interface{}{
		"Description": description,
		"MaxSteps":    b.cfg.Builder.MaxSteps,
	})
	if err != nil {
		return nil, errors.NewGenerationError("failed to render step plan prompt", err)
	}

	resp, err := b.client.Complete(ctx, llm.CompletionRequest{
		Model:       b.model,
		Messages:    []llm.Message{{Role: "user", Content: rendered}},
		MaxTokens:   b.cfg.Gen.MaxTokens,
		Temperature: b.cfg.Gen.Temperature,
		TopP:        b.cfg.Gen.TopP,
	})
	if err != nil {
		return nil, err
	}

	steps := filterSteps(resp.Content, b.cfg.Builder.MaxSteps)
	if len(steps) == 0 {
		b.log.Warn("step plan unusable, using fallback")
		return fallbackSteps, nil
	}
	return steps, nil
}

// filterSteps keeps short imperative lines, drops duplicates and caps
// the plan length.
func filterSteps(response string, max int) []string {
	seen := make(map[string]bool)
	var steps []string

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(stepPrefixRe.ReplaceAllString(strings.TrimSpace(line), ""))
		words := len(strings.Fields(line))
		if words < 2 || words > 14 {
			continue
		}
		key := strings.ToLower(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		steps = append(steps, line)
		if len(steps) == max {
			break
		}
	}
	return steps
}

// Run executes the build loop: one model-proposed change set per step,
// a run of the project after each, and repair attempts on failure.
func (b *Builder) Run(ctx context.Context, opts Options) (*Report, error) {
	if strings.TrimSpace(opts.Description) == "" {
		return nil, errors.NewValidationError("description", "must not be empty")
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, errors.NewIOError("create directory", opts.Dir, err)
	}

	state, err := b.prepareState(ctx, opts)
	if err != nil {
		return nil, err
	}

	runCommand := opts.RunCommand
	if runCommand == "" {
		runCommand = state.RunCommand
	}

	report := &Report{SessionID: state.SessionID, StepsPlanned: len(state.Steps)}
	var lastDiffs []string
	stagnation := 0

	for i := state.NextStep(); i < len(state.Steps); i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		step := state.Steps[i]
		b.reporter.Step(step)

		changes, err := b.proposeChanges(ctx, opts.Description, step, opts.Dir, state, lastDiffs)
		if err != nil {
			return report, err
		}

		applied, diffs, err := b.applyChanges(opts.Dir, changes, state)
		if err != nil {
			return report, err
		}
		lastDiffs = diffs

		if len(applied) == 0 {
			stagnation++
			b.reporter.Warning(fmt.Sprintf("no new changes for step %q", step))
			if stagnation >= b.cfg.Builder.StagnationLimit {
				b.log.Warn("build stagnated, stopping",
					logging.Int("step", i), logging.String("name", step))
				break
			}
			state.RecordStep(i, step, nil, runner.Result{ExitCode: -1})
			if err := state.Save(opts.Dir); err != nil {
				return report, err
			}
			continue
		}
		stagnation = 0
		b.reporter.Info(fmt.Sprintf("updated %s", strings.Join(applied, ", ")))

		// An inferred command is re-derived each step as files appear.
		if opts.RunCommand == "" {
			if inferred := inferRunCommand(opts.Dir); inferred != "" && inferred != runCommand {
				runCommand = inferred
				state.RunCommand = runCommand
				b.reporter.Info(fmt.Sprintf("run command: %s", runCommand))
			}
		}

		result, stepOK := b.runStep(ctx, runCommand, opts, state, applied)
		report.LastRun = result

		state.RecordStep(i, step, applied, result)
		if err := state.Save(opts.Dir); err != nil {
			return report, err
		}

		report.Succeeded = stepOK
		if !stepOK {
			// A step the fixer could not repair stops the build; the
			// saved state lets --resume retry it.
			b.reporter.Warning(fmt.Sprintf("step %q left the project failing, stopping", step))
			break
		}
		report.StepsCompleted++
		b.reporter.Success(step)
	}

	if report.Succeeded {
		b.reporter.Success("build finished")
	}
	return report, nil
}

// prepareState resumes a prior session when asked, otherwise plans a
// fresh one.
func (b *Builder) prepareState(ctx context.Context, opts Options) (*State, error) {
	if opts.Resume {
		state, err := LoadState(opts.Dir)
		if err != nil {
			return nil, err
		}
		if state != nil && len(state.Steps) > 0 {
			b.reporter.Info(fmt.Sprintf("resuming session %s at step %d of %d",
				state.SessionID, state.NextStep()+1, len(state.Steps)))
			return state, nil
		}
	}

	state := NewState(opts.Description)
	steps, err := b.PlanSteps(ctx, opts.Description)
	if err != nil {
		return nil, err
	}
	state.Steps = steps
	return state, nil
}

// proposeChanges asks the model for this step's file changes
func (b *Builder) proposeChanges(ctx context.Context, description, step, dir string, state *State, lastDiffs []string) ([]FileChange, error) {
	rendered, err := b.prompts.Render("build_change", map[string]interface{}{
		"Description":   description,
		"Step":          step,
		"FileSummary":   fileSummary(dir),
		"Introspection": introspection(state, lastDiffs),
	})
	if err != nil {
		return nil, errors.NewGenerationError("failed to render build prompt", err)
	}

	resp, err := b.client.Complete(ctx, llm.CompletionRequest{
		Model:       b.model,
		Messages:    []llm.Message{{Role: "user", Content: rendered}},
		MaxTokens:   b.cfg.Gen.MaxTokens,
		Temperature: b.cfg.Gen.Temperature,
		TopP:        b.cfg.Gen.TopP,
	})
	if err != nil {
		return nil, err
	}

	payload := extract.JSONArray(resp.Content)
	if payload == "" {
		return nil, nil
	}
	var changes []FileChange
	if err := json.Unmarshal([]byte(payload), &changes); err != nil {
		b.log.Warn("change set not parseable", logging.Error(err))
		return nil, nil
	}
	return changes, nil
}

// applyChanges writes proposed files, skipping unchanged content and
// proposals that repeat a previously failed patch. It returns the
// applied paths and their unified diffs.
func (b *Builder) applyChanges(dir string, changes []FileChange, state *State) ([]string, []string, error) {
	var applied, diffs []string

	for _, change := range changes {
		target, err := generator.SafeJoin(dir, change.Path)
		if err != nil {
			return nil, nil, err
		}

		content := change.Content
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}

		old := ""
		if data, err := os.ReadFile(target); err == nil {
			old = string(data)
		}
		if old == content {
			continue
		}

		if repeatsFailure(state, change.Path, content, b.cfg.Builder.SimilarityThreshold) {
			b.log.Info("skipping change resembling an earlier failure",
				logging.String("path", change.Path))
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, nil, errors.NewIOError("create directory", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, []byte(content), 0644); err != nil {
			return nil, nil, errors.NewIOError("write file", target, err)
		}

		applied = append(applied, change.Path)
		diffs = append(diffs, unifiedDiff(old, content, change.Path))
	}
	return applied, diffs, nil
}

// runStep runs the project, repairing failures, and checks the
// expectation. A missing run command counts the step as passing since
// there is nothing to execute yet.
func (b *Builder) runStep(ctx context.Context, runCommand string, opts Options, state *State, applied []string) (runner.Result, bool) {
	if runCommand == "" {
		return runner.Result{}, true
	}

	rep, err := b.fixer.RunAndFix(ctx, runCommand, b.cfg.Builder.FixAttempts, opts.Dir, applied)
	result := rep.LastRun
	ok := err == nil && rep.Succeeded

	if ok && opts.Expect != "" && !strings.Contains(result.Stdout, opts.Expect) {
		b.log.Warn("run output missing expected text",
			logging.String("expect", opts.Expect))
		ok = false
	}

	if !ok {
		for _, path := range applied {
			if data, readErr := os.ReadFile(filepath.Join(opts.Dir, path)); readErr == nil {
				state.RememberFailure(path, string(data))
			}
		}
	}
	return result, ok
}

// skipDirs are never included in file summaries
var skipDirs = map[string]bool{
	".git":         true,
	".agentsteam":  true,
	"node_modules": true,
	"__pycache__":  true,
	"target":       true,
	"venv":         true,
	".venv":        true,
}

// fileSummary renders the project's current files with their leading
// lines, bounded in both file count and total size.
func fileSummary(dir string) string {
	var sb strings.Builder
	count := 0

	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if count >= summaryMaxFiles || sb.Len() >= summaryMaxBytes {
			return filepath.SkipAll
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil || strings.HasPrefix(filepath.Base(rel), ".") {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}

		count++
		fmt.Fprintf(&sb, "=== %s ===\n%s\n", rel, headLines(string(data), 20))
		return nil
	})

	if count == 0 {
		return "(empty directory)"
	}
	return strings.TrimSpace(sb.String())
}

// introspection summarizes recent activity for the next change prompt
func introspection(state *State, lastDiffs []string) string {
	var sb strings.Builder

	if n := len(state.Records); n > 0 {
		last := state.Records[n-1]
		if len(last.Files) > 0 {
			fmt.Fprintf(&sb, "Last step changed: %s\n", strings.Join(last.Files, ", "))
		}
		if !last.Success {
			if last.StderrTail != "" {
				fmt.Fprintf(&sb, "Last run stderr:\n%s\n", runner.Tail(last.StderrTail, introStderrTail))
			}
			if last.StdoutTail != "" {
				fmt.Fprintf(&sb, "Last run stdout:\n%s\n", runner.Tail(last.StdoutTail, introStdoutTail))
			}
		}
	}

	if len(lastDiffs) > recentDiffs {
		lastDiffs = lastDiffs[len(lastDiffs)-recentDiffs:]
	}
	for _, diff := range lastDiffs {
		sb.WriteString(diff)
		sb.WriteString("\n")
	}

	return strings.TrimSpace(sb.String())
}

// unifiedDiff renders a truncated unified diff between two versions
func unifiedDiff(old, updated, path string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(old),
		B:        difflib.SplitLines(updated),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	})
	if err != nil {
		return ""
	}

	lines := strings.Split(text, "\n")
	if len(lines) > diffMaxLines {
		lines = append(lines[:diffMaxLines], "... diff truncated ...")
	}
	return strings.Join(lines, "\n")
}

// headLines keeps the first n lines of a file for summaries
func headLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return strings.TrimRight(s, "\n")
	}
	return strings.Join(lines[:n], "\n") + "\n..."
}

// runCommandRules map marker files to conventional run commands
var runCommandRules = []struct {
	marker  string
	command string
}{
	{"main.py", "python3 main.py"},
	{"app.py", "python3 app.py"},
	{"go.mod", "go run ."},
	{"Cargo.toml", "cargo run"},
	{"index.js", "node index.js"},
	{"package.json", "npm start --silent"},
}

// inferRunCommand guesses how to run the project from its files. A test
// suite with an installed runner outranks plain entry points.
func inferRunCommand(dir string) string {
	if cmd := inferTestCommand(dir); cmd != "" {
		return cmd
	}
	for _, rule := range runCommandRules {
		if info, err := os.Stat(filepath.Join(dir, rule.marker)); err == nil && !info.IsDir() {
			return rule.command
		}
	}
	return ""
}

func inferTestCommand(dir string) string {
	if _, err := exec.LookPath("pytest"); err != nil {
		return ""
	}
	if matches, _ := filepath.Glob(filepath.Join(dir, "test_*.py")); len(matches) > 0 {
		return "pytest -q"
	}
	if matches, _ := filepath.Glob(filepath.Join(dir, "tests", "test_*.py")); len(matches) > 0 {
		return "pytest -q"
	}
	return ""
}
