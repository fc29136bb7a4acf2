// Package fixer repairs failing programs: it classifies error output,
// locates the offending file, asks a model for a corrected version and
// validates the result.
package fixer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dexmac221/AgentsTeam/internal/errors"
	"github.com/dexmac221/AgentsTeam/internal/extract"
	"github.com/dexmac221/AgentsTeam/internal/llm"
	"github.com/dexmac221/AgentsTeam/internal/logging"
	"github.com/dexmac221/AgentsTeam/internal/prompts"
	"github.com/dexmac221/AgentsTeam/internal/runner"
)

// backupTimeFormat stamps backup file names
const backupTimeFormat = "2006-01-02T15-04-05"

// FileFix describes an applied fix
type FileFix struct {
	Path        string
	BackupPath  string
	Explanation string
	Validated   bool
}

// RunReport summarizes a RunAndFix session
type RunReport struct {
	Attempts  int
	Fixes     []FileFix
	LastRun   runner.Result
	Succeeded bool
}

// Fixer drives the error correction loop
type Fixer struct {
	client  llm.Client
	model   string
	prompts *prompts.Manager
	log     *logging.Logger
}

// New creates a fixer using the given model
func New(client llm.Client, model string, pm *prompts.Manager, log *logging.Logger) *Fixer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Fixer{client: client, model: model, prompts: pm, log: log}
}

// FixFile repairs one file given the error output that implicates it.
// The original content is kept in a timestamped backup. The rewritten
// file is syntax-checked; one stricter retry is attempted before the
// backup is restored and an error returned.
func (f *Fixer) FixFile(ctx context.Context, path, errOutput string) (*FileFix, error) {
	language, ok := LanguageForFile(path)
	if !ok {
		return nil, errors.NewFixError(fmt.Sprintf("unsupported file type: %s", path), nil)
	}

	original, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("read file", path, err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format(backupTimeFormat))
	if err := os.WriteFile(backupPath, original, 0644); err != nil {
		return nil, errors.NewIOError("write backup", backupPath, err)
	}

	fix := &FileFix{Path: path, BackupPath: backupPath}

	response, err := f.requestFix(ctx, "fix_code", path, language, string(original), errOutput)
	if err != nil {
		return nil, err
	}
	fix.Explanation = extract.Explanation(response)

	code := extract.FixedCode(response, language)
	if strings.TrimSpace(code) == "" {
		return nil, errors.NewFixError("model returned no code", nil)
	}

	if err := f.applyAndValidate(ctx, path, language, code); err != nil {
		f.log.Warn("fixed file failed validation, retrying strict",
			logging.String("file", path), logging.Error(err))

		response, retryErr := f.requestFix(ctx, "fix_code_strict", path, language, code, err.Error())
		if retryErr != nil {
			f.restore(path, original)
			return nil, retryErr
		}
		code = extract.CodeBlock(response, language)
		if strings.TrimSpace(code) == "" || f.applyAndValidate(ctx, path, language, code) != nil {
			f.restore(path, original)
			return nil, errors.NewFixError(fmt.Sprintf("fix for %s did not validate", path), err)
		}
	}

	fix.Validated = true
	f.log.Info("applied fix",
		logging.String("file", path),
		logging.String("backup", backupPath))
	return fix, nil
}

// requestFix renders a fix prompt and sends it to the model
func (f *Fixer) requestFix(ctx context.Context, prompt, path, language, code, errOutput string) (string, error) {
	rendered, err := f.prompts.Render(prompt, map[string]interface{}{
		"Path":        path,
		"Language":    language,
		"Code":        code,
		"ErrorOutput": runner.Tail(errOutput, 2000),
	})
	if err != nil {
		return "", errors.NewFixError("failed to render fix prompt", err)
	}

	resp, err := f.client.Complete(ctx, llm.CompletionRequest{
		Model:    f.model,
		Messages: []llm.Message{{Role: "user", Content: rendered}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (f *Fixer) applyAndValidate(ctx context.Context, path, language, code string) error {
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	if err := os.WriteFile(path, []byte(code), 0644); err != nil {
		return errors.NewIOError("write file", path, err)
	}
	return ValidateSyntax(ctx, path, language)
}

func (f *Fixer) restore(path string, original []byte) {
	if err := os.WriteFile(path, original, 0644); err != nil {
		f.log.Error("failed to restore original file",
			logging.String("file", path), logging.Error(err))
	}
}

// RunAndFix runs a command and repairs failures until it succeeds or
// attempts are exhausted. candidates are extra files to consider when
// the error output names no file.
func (f *Fixer) RunAndFix(ctx context.Context, command string, maxAttempts int, dir string, candidates []string) (*RunReport, error) {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	run := runner.New(dir)
	report := &RunReport{}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		report.Attempts = attempt

		result, err := run.Run(ctx, command)
		report.LastRun = result
		if err != nil {
			return report, errors.NewFixError("command could not be executed", err)
		}
		if result.Success() {
			report.Succeeded = true
			return report, nil
		}

		if attempt == maxAttempts {
			break
		}

		output := result.Stderr
		if strings.TrimSpace(output) == "" {
			output = result.Stdout
		}

		target, diag := f.locate(output, dir, candidates)
		if target == "" {
			return report, errors.NewFixError("could not locate a file to fix", nil)
		}
		f.log.Info("fixing after failed run",
			logging.String("command", command),
			logging.String("file", target),
			logging.Int("attempt", attempt),
			logging.String("match", diag.Raw))

		fix, err := f.FixFile(ctx, target, output)
		if err != nil {
			return report, err
		}
		report.Fixes = append(report.Fixes, *fix)
	}

	return report, errors.NewFixError(
		fmt.Sprintf("command still failing after %d attempts", maxAttempts), nil)
}

// locate picks the file to fix: the one named in the error output,
// then the caller's candidates, then conventional entrypoints, then a
// recursive scan for sources of the diagnosed language.
func (f *Fixer) locate(output, dir string, candidates []string) (string, Diagnosis) {
	diag, classified := Classify(output)

	if classified && diag.File != "" {
		if path := resolveFile(diag.File, dir); path != "" {
			return path, diag
		}
	}

	for _, candidate := range candidates {
		if path := resolveFile(candidate, dir); path != "" {
			return path, diag
		}
	}

	if classified {
		for _, name := range commonEntrypoints[diag.Language] {
			if path := resolveFile(name, dir); path != "" {
				return path, diag
			}
		}
		if path := findSourceByLanguage(dir, diag.Language); path != "" {
			return path, diag
		}
	}

	return "", diag
}

// resolveFile checks a reported path as absolute, relative to dir, and
// finally by basename anywhere under dir.
func resolveFile(name, dir string) string {
	if filepath.IsAbs(name) {
		if fileExists(name) {
			return name
		}
		name = filepath.Base(name)
	}

	direct := filepath.Join(dir, name)
	if fileExists(direct) {
		return direct
	}

	base := filepath.Base(name)
	var found string
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || found != "" {
			return filepath.SkipAll
		}
		if !d.IsDir() && d.Name() == base {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// findSourceByLanguage returns the first source file of a language
func findSourceByLanguage(dir, language string) string {
	var found string
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || found != "" {
			return filepath.SkipAll
		}
		if d.IsDir() {
			return nil
		}
		if lang, ok := LanguageForFile(path); ok && lang == language {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// firstLines truncates output to its first n lines
func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) <= n {
		return strings.TrimSpace(s)
	}
	return strings.Join(lines[:n], "\n")
}
