// Package generator creates complete project scaffolds from a natural
// language description: it plans a file layout, generates every file
// concurrently and reports how to run the result.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dexmac221/AgentsTeam/internal/config"
	"github.com/dexmac221/AgentsTeam/internal/errors"
	"github.com/dexmac221/AgentsTeam/internal/extract"
	"github.com/dexmac221/AgentsTeam/internal/llm"
	"github.com/dexmac221/AgentsTeam/internal/logging"
	"github.com/dexmac221/AgentsTeam/internal/prompts"
	"github.com/dexmac221/AgentsTeam/internal/worker_pool"
)

// DefaultMaxFiles bounds the size of a generated plan
const DefaultMaxFiles = 25

// PlanFile is one entry of a project plan
type PlanFile struct {
	Path    string `json:"path"`
	Purpose string `json:"purpose"`
}

// Plan is the model's proposed file layout for a project
type Plan struct {
	Files []PlanFile `json:"files"`
}

// Request describes a project to generate
type Request struct {
	Description  string
	Technologies []string
	OutputDir    string
	MaxFiles     int
}

// Result summarizes a completed generation
type Result struct {
	Files        []string
	OutputDir    string
	Model        string
	Elapsed      time.Duration
	Instructions []string
}

// Generator plans and writes project files
type Generator struct {
	client  llm.Client
	model   string
	cfg     *config.Config
	prompts *prompts.Manager
	log     *logging.Logger
}

// New creates a generator using the given model
func New(client llm.Client, model string, cfg *config.Config, pm *prompts.Manager, log *logging.Logger) *Generator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Generator{client: client, model: model, cfg: cfg, prompts: pm, log: log}
}

// Generate plans a project and writes every planned file under the
// request's output directory.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	if strings.TrimSpace(req.Description) == "" {
		return nil, errors.NewValidationError("description", "must not be empty")
	}
	if req.OutputDir == "" {
		return nil, errors.NewValidationError("output", "must not be empty")
	}
	if req.MaxFiles <= 0 {
		req.MaxFiles = DefaultMaxFiles
	}

	plan, err := g.planProject(ctx, req)
	if err != nil {
		return nil, err
	}
	g.log.Info("project planned",
		logging.Int("files", len(plan.Files)),
		logging.String("model", g.model))

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, errors.NewIOError("create directory", req.OutputDir, err)
	}

	written, err := g.generateFiles(ctx, req, plan)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Files:     written,
		OutputDir: req.OutputDir,
		Model:     g.model,
		Elapsed:   time.Since(started),
	}

	// Instructions are best effort. The generated files already exist.
	if instructions, err := g.setupInstructions(ctx, req, written); err == nil {
		result.Instructions = instructions
	} else {
		g.log.Warn("setup instructions unavailable", logging.Error(err))
	}

	return result, nil
}

// planProject asks the model for a file plan and falls back to a
// minimal conventional layout when the reply cannot be parsed.
func (g *Generator) planProject(ctx context.Context, req Request) (*Plan, error) {
	rendered, err := g.prompts.Render("plan_project", map[string]interface{}{
		"Description":  req.Description,
		"Technologies": strings.Join(req.Technologies, ", "),
		"MaxFiles":     req.MaxFiles,
	})
	if err != nil {
		return nil, errors.NewGenerationError("failed to render plan prompt", err)
	}

	resp, err := g.client.Complete(ctx, llm.CompletionRequest{
		Model:       g.model,
		Messages:    []llm.Message{{Role: "user", Content: rendered}},
		MaxTokens:   g.cfg.Gen.MaxTokens,
		Temperature: g.cfg.Gen.Temperature,
		TopP:        g.cfg.Gen.TopP,
	})
	if err != nil {
		return nil, err
	}

	plan, err := parsePlan(resp.Content)
	if err != nil {
		g.log.Warn("plan not parseable, using fallback layout", logging.Error(err))
		return fallbackPlan(req), nil
	}
	if len(plan.Files) > req.MaxFiles {
		plan.Files = plan.Files[:req.MaxFiles]
	}
	return plan, nil
}

// parsePlan extracts and decodes the plan JSON from a model reply
func parsePlan(response string) (*Plan, error) {
	payload := extract.JSONObject(response)
	if payload == "" {
		return nil, errors.NewPlanParseError(fmt.Errorf("no JSON object in response"))
	}

	var plan Plan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, errors.NewPlanParseError(err)
	}
	if len(plan.Files) == 0 {
		return nil, errors.NewPlanParseError(fmt.Errorf("plan contains no files"))
	}
	return &plan, nil
}

// fallbackPlan builds a conventional minimal layout for the requested
// technologies so generation can proceed without a parseable plan.
func fallbackPlan(req Request) *Plan {
	plan := &Plan{Files: []PlanFile{
		{Path: "README.md", Purpose: "project overview and usage"},
	}}

	tech := strings.ToLower(strings.Join(req.Technologies, " "))
	switch {
	case strings.Contains(tech, "python"):
		plan.Files = append(plan.Files,
			PlanFile{Path: "main.py", Purpose: "application entry point"},
			PlanFile{Path: "requirements.txt", Purpose: "python dependencies"})
	case strings.Contains(tech, "typescript"):
		plan.Files = append(plan.Files,
			PlanFile{Path: "src/index.ts", Purpose: "application entry point"},
			PlanFile{Path: "package.json", Purpose: "project manifest"})
	case strings.Contains(tech, "node"), strings.Contains(tech, "javascript"):
		plan.Files = append(plan.Files,
			PlanFile{Path: "index.js", Purpose: "application entry point"},
			PlanFile{Path: "package.json", Purpose: "project manifest"})
	case strings.Contains(tech, "go"):
		plan.Files = append(plan.Files,
			PlanFile{Path: "main.go", Purpose: "application entry point"})
	case strings.Contains(tech, "rust"):
		plan.Files = append(plan.Files,
			PlanFile{Path: "src/main.rs", Purpose: "application entry point"},
			PlanFile{Path: "Cargo.toml", Purpose: "project manifest"})
	default:
		plan.Files = append(plan.Files,
			PlanFile{Path: "main.py", Purpose: "application entry point"})
	}
	return plan
}

// generateFiles produces every planned file concurrently and writes
// them to disk. The first failed file aborts the whole generation.
func (g *Generator) generateFiles(ctx context.Context, req Request, plan *Plan) ([]string, error) {
	pool := worker_pool.NewWorkerPool(g.cfg.Gen.Workers)

	tasks := make([]worker_pool.Task, len(plan.Files))
	for i, file := range plan.Files {
		file := file
		tasks[i] = func(ctx context.Context) (interface{}, error) {
			content, err := g.generateFileContent(ctx, req, file)
			if err != nil {
				return nil, err
			}
			return content, nil
		}
	}

	results := pool.Run(ctx, tasks)

	written := make([]string, 0, len(plan.Files))
	for i, res := range results {
		file := plan.Files[i]
		if res.Error != nil {
			return nil, errors.NewGenerationError(
				fmt.Sprintf("failed to generate %s", file.Path), res.Error)
		}

		target, err := SafeJoin(req.OutputDir, file.Path)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, errors.NewIOError("create directory", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, []byte(res.Value.(string)), 0644); err != nil {
			return nil, errors.NewIOError("write file", target, err)
		}

		g.log.Debug("wrote file", logging.String("path", file.Path))
		written = append(written, file.Path)
	}
	return written, nil
}

// generateFileContent asks the model for one file's full content
func (g *Generator) generateFileContent(ctx context.Context, req Request, file PlanFile) (string, error) {
	rendered, err := g.prompts.Render("file_content", map[string]interface{}{
		"Description":  req.Description,
		"Technologies": strings.Join(req.Technologies, ", "),
		"Path":         file.Path,
		"Purpose":      file.Purpose,
	})
	if err != nil {
		return "", errors.NewGenerationError("failed to render content prompt", err)
	}

	resp, err := g.client.Complete(ctx, llm.CompletionRequest{
		Model:       g.model,
		Messages:    []llm.Message{{Role: "user", Content: rendered}},
		MaxTokens:   g.cfg.Gen.MaxTokens,
		Temperature: g.cfg.Gen.Temperature,
		TopP:        g.cfg.Gen.TopP,
		CodeOnly:    true,
	})
	if err != nil {
		return "", err
	}

	content := stripFence(resp.Content)
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content, nil
}

// stripFence removes a surrounding markdown fence if the model ignored
// the raw-output instruction. Content without a leading fence is kept
// untouched.
func stripFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// setupInstructions asks the model how to install and run the project
func (g *Generator) setupInstructions(ctx context.Context, req Request, files []string) ([]string, error) {
	rendered, err := g.prompts.Render("setup_instructions", map[string]interface{}{
		"Description": req.Description,
		"Files":       files,
	})
	if err != nil {
		return nil, errors.NewGenerationError("failed to render setup prompt", err)
	}

	resp, err := g.client.Complete(ctx, llm.CompletionRequest{
		Model:       g.model,
		Messages:    []llm.Message{{Role: "user", Content: rendered}},
		MaxTokens:   g.cfg.Gen.MaxTokens,
		Temperature: g.cfg.Gen.Temperature,
		TopP:        g.cfg.Gen.TopP,
	})
	if err != nil {
		return nil, err
	}
	return extract.Instructions(resp.Content), nil
}

// SafeJoin resolves a plan-relative path under root and rejects
// absolute paths and anything escaping the root.
func SafeJoin(root, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", errors.NewUnsafePathError(name)
	}

	cleaned := filepath.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", errors.NewUnsafePathError(name)
	}
	return filepath.Join(root, cleaned), nil
}
