package builder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dexmac221/AgentsTeam/internal/config"
	"github.com/dexmac221/AgentsTeam/internal/llm"
	"github.com/dexmac221/AgentsTeam/internal/prompts"
	"github.com/dexmac221/AgentsTeam/internal/runner"
)

// buildClient answers step planning and change requests separately
type buildClient struct {
	mu        sync.Mutex
	stepsBody string
	changes   []string
	planCalls int
	changeIdx int
}

func (c *buildClient) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prompt := req.Messages[0].Content
	if strings.Contains(prompt, "small build steps") {
		c.planCalls++
		return llm.CompletionResponse{Content: c.stepsBody}, nil
	}

	idx := c.changeIdx
	if idx >= len(c.changes) {
		idx = len(c.changes) - 1
	}
	c.changeIdx++
	return llm.CompletionResponse{Content: c.changes[idx]}, nil
}

func (c *buildClient) Provider() string { return "build" }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Builder.MaxSteps = 10
	cfg.Builder.FixAttempts = 1
	cfg.Builder.StagnationLimit = 2
	cfg.Builder.SimilarityThreshold = 0.92
	return cfg
}

func newTestBuilder(t *testing.T, client llm.Client) *Builder {
	t.Helper()
	pm, err := prompts.NewManager("")
	if err != nil {
		t.Fatal(err)
	}
	return New(client, "test-model", testConfig(), pm, nil, nil)
}

func TestRunBuildsAndPasses(t *testing.T) {
	dir := t.TempDir()
	client := &buildClient{
		stepsBody: "create the entry point\nadd a greeting function",
		changes: []string{
			`[{"path": "main.py", "content": "print('step one')"}]`,
			`[{"path": "main.py", "content": "print('step two')"}]`,
		},
	}

	b := newTestBuilder(t, client)
	report, err := b.Run(context.Background(), Options{
		Description: "a greeting tool",
		Dir:         dir,
		RunCommand:  "true",
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if !report.Succeeded {
		t.Error("report not successful")
	}
	if report.StepsPlanned != 2 || report.StepsCompleted != 2 {
		t.Errorf("steps planned/completed = %d/%d", report.StepsPlanned, report.StepsCompleted)
	}

	content, err := os.ReadFile(filepath.Join(dir, "main.py"))
	if err != nil {
		t.Fatalf("main.py not written: %v", err)
	}
	if !strings.Contains(string(content), "step two") {
		t.Errorf("main.py = %q, want the second step's content", content)
	}

	state, err := LoadState(dir)
	if err != nil || state == nil {
		t.Fatalf("state not persisted: %v", err)
	}
	if len(state.Records) != 2 {
		t.Errorf("got %d records, want 2", len(state.Records))
	}
}

func TestRunStopsOnStagnation(t *testing.T) {
	dir := t.TempDir()
	same := `[{"path": "main.py", "content": "print('same')"}]`
	client := &buildClient{
		stepsBody: "first step here\nsecond step here\nthird step here\nfourth step here",
		changes:   []string{same, same, same, same},
	}

	b := newTestBuilder(t, client)
	report, err := b.Run(context.Background(), Options{
		Description: "x",
		Dir:         dir,
		RunCommand:  "true",
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// Identical proposals stop making progress after the first write.
	if report.StepsCompleted != 1 {
		t.Errorf("StepsCompleted = %d, want 1", report.StepsCompleted)
	}
}

func TestRunStopsAtFailingStep(t *testing.T) {
	dir := t.TempDir()
	client := &buildClient{
		stepsBody: "create the entry point\nadd a greeting function",
		changes: []string{
			`[{"path": "main.py", "content": "print('step one')"}]`,
			`[{"path": "main.py", "content": "print('step two')"}]`,
		},
	}

	b := newTestBuilder(t, client)
	report, err := b.Run(context.Background(), Options{
		Description: "a greeting tool",
		Dir:         dir,
		RunCommand:  "false",
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if report.Succeeded {
		t.Error("report should not be successful")
	}
	if report.StepsCompleted != 0 {
		t.Errorf("StepsCompleted = %d, want 0", report.StepsCompleted)
	}
	// The second step must never be attempted once the first one fails.
	if client.changeIdx != 1 {
		t.Errorf("change requests = %d, want 1", client.changeIdx)
	}

	state, err := LoadState(dir)
	if err != nil || state == nil {
		t.Fatalf("state not persisted: %v", err)
	}
	if got := state.NextStep(); got != 0 {
		t.Errorf("NextStep() = %d, want the failed step retried on resume", got)
	}
}

func TestRunExpectMismatchFails(t *testing.T) {
	dir := t.TempDir()
	client := &buildClient{
		stepsBody: "only step here",
		changes:   []string{`[{"path": "notes.md", "content": "hello"}]`},
	}

	b := newTestBuilder(t, client)
	report, err := b.Run(context.Background(), Options{
		Description: "x",
		Dir:         dir,
		RunCommand:  "echo hello",
		Expect:      "goodbye",
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if report.Succeeded {
		t.Error("step should fail when expected output is missing")
	}

	state, _ := LoadState(dir)
	if len(state.FailedPatches) == 0 {
		t.Error("failing change not remembered")
	}
}

func TestRunResumeSkipsDoneSteps(t *testing.T) {
	dir := t.TempDir()

	prior := NewState("x")
	prior.Steps = []string{"done already", "still to do"}
	prior.RecordStep(0, "done already", []string{"main.py"}, runner.Result{ExitCode: 0})
	if err := prior.Save(dir); err != nil {
		t.Fatal(err)
	}

	client := &buildClient{
		stepsBody: "should not be used",
		changes:   []string{`[{"path": "second.py", "content": "print('resumed')"}]`},
	}

	b := newTestBuilder(t, client)
	report, err := b.Run(context.Background(), Options{
		Description: "x",
		Dir:         dir,
		RunCommand:  "true",
		Resume:      true,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if client.planCalls != 0 {
		t.Error("resume must not replan steps")
	}
	if report.SessionID != prior.SessionID {
		t.Errorf("SessionID = %q, want resumed %q", report.SessionID, prior.SessionID)
	}
	if _, err := os.Stat(filepath.Join(dir, "second.py")); err != nil {
		t.Error("resumed step did not run")
	}
}

func TestRunRejectsUnsafeChangePath(t *testing.T) {
	dir := t.TempDir()
	client := &buildClient{
		stepsBody: "only step here",
		changes:   []string{`[{"path": "../escape.py", "content": "x"}]`},
	}

	b := newTestBuilder(t, client)
	if _, err := b.Run(context.Background(), Options{
		Description: "x",
		Dir:         dir,
		RunCommand:  "true",
	}); err == nil {
		t.Error("Run() should reject paths escaping the project directory")
	}
}

func TestFilterSteps(t *testing.T) {
	response := `1. create the entry point
2) add a greeting function
- add a greeting function
* ok
a step with far too many words to be a reasonable single build increment at all
add tests for greeting`

	steps := filterSteps(response, 10)
	want := []string{
		"create the entry point",
		"add a greeting function",
		"add tests for greeting",
	}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v", steps)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("steps[%d] = %q, want %q", i, steps[i], want[i])
		}
	}
}

func TestFilterStepsCap(t *testing.T) {
	response := "step number one\nstep number two\nstep number three"
	if got := filterSteps(response, 2); len(got) != 2 {
		t.Errorf("got %d steps, want cap of 2", len(got))
	}
}

func TestSimilarity(t *testing.T) {
	if similarity("a\nb\nc\n", "a\nb\nc\n") != 1 {
		t.Error("identical content should be 1")
	}
	if s := similarity("a\nb\nc\nd\n", "a\nb\nc\ne\n"); s < 0.5 || s >= 1 {
		t.Errorf("near-identical similarity = %v", s)
	}
	if s := similarity("alpha\nbeta\n", "completely\ndifferent\nwords\nhere\n"); s > 0.5 {
		t.Errorf("unrelated similarity = %v", s)
	}
}

func TestRepeatsFailure(t *testing.T) {
	state := NewState("x")
	state.RememberFailure("main.py", "line one\nline two\nline three\n")

	if !repeatsFailure(state, "main.py", "line one\nline two\nline three\n", 0.92) {
		t.Error("identical failed patch should be detected")
	}
	if repeatsFailure(state, "other.py", "line one\nline two\nline three\n", 0.92) {
		t.Error("paths must match")
	}
	if repeatsFailure(state, "main.py", "entirely\nnew\napproach\n", 0.92) {
		t.Error("different content should pass")
	}
}

func TestInferRunCommand(t *testing.T) {
	dir := t.TempDir()
	if got := inferRunCommand(dir); got != "" {
		t.Errorf("empty dir inferred %q", got)
	}

	os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0644)
	if got := inferRunCommand(dir); got != "npm start --silent" {
		t.Errorf("inferRunCommand = %q", got)
	}

	// A python entry point outranks the manifest.
	os.WriteFile(filepath.Join(dir, "main.py"), []byte("print(1)"), 0644)
	if got := inferRunCommand(dir); got != "python3 main.py" {
		t.Errorf("inferRunCommand = %q", got)
	}
}

func TestFileSummary(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('hi')\n"), 0644)
	os.MkdirAll(filepath.Join(dir, "node_modules", "pkg"), 0755)
	os.WriteFile(filepath.Join(dir, "node_modules", "pkg", "index.js"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0644)

	summary := fileSummary(dir)
	if !strings.Contains(summary, "main.py") || !strings.Contains(summary, "print('hi')") {
		t.Errorf("summary missing source file:\n%s", summary)
	}
	if strings.Contains(summary, "node_modules") || strings.Contains(summary, ".hidden") {
		t.Errorf("summary includes excluded entries:\n%s", summary)
	}
}

func TestFileSummaryEmpty(t *testing.T) {
	if got := fileSummary(t.TempDir()); got != "(empty directory)" {
		t.Errorf("fileSummary = %q", got)
	}
}

func TestUnifiedDiff(t *testing.T) {
	diff := unifiedDiff("a\nb\n", "a\nc\n", "f.txt")
	if !strings.Contains(diff, "-b") || !strings.Contains(diff, "+c") {
		t.Errorf("diff = %q", diff)
	}
}
