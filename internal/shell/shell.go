// Package shell is the interactive session: a small REPL mixing chat
// with a model, project navigation commands and shell escapes.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dexmac221/AgentsTeam/internal/analyzer"
	"github.com/dexmac221/AgentsTeam/internal/config"
	"github.com/dexmac221/AgentsTeam/internal/errors"
	"github.com/dexmac221/AgentsTeam/internal/llm"
	"github.com/dexmac221/AgentsTeam/internal/llmtypes"
	"github.com/dexmac221/AgentsTeam/internal/logging"
	"github.com/dexmac221/AgentsTeam/internal/prompts"
	"github.com/dexmac221/AgentsTeam/internal/router"
)

// historyLimit bounds the chat context sent with each message
const historyLimit = 20

// Shell is one interactive session
type Shell struct {
	cfg      *config.Config
	factory  *llm.Factory
	selector *router.Selector
	prompts  *prompts.Manager
	log      *logging.Logger

	scanner *bufio.Scanner
	out     io.Writer

	workDir string
	// providerMode is "auto", "ollama" or "openai".
	providerMode string
	// model, when set, pins every request to one model.
	model   llmtypes.ModelRef
	history []llm.Message
}

// New creates a shell reading commands from in and writing to out
func New(cfg *config.Config, pm *prompts.Manager, log *logging.Logger, in io.Reader, out io.Writer) *Shell {
	if log == nil {
		log = logging.NewNopLogger()
	}
	factory := llm.NewFactory(cfg)

	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}

	s := &Shell{
		cfg:          cfg,
		factory:      factory,
		selector:     router.NewSelector(cfg, factory.Ollama()),
		prompts:      pm,
		log:          log,
		scanner:      bufio.NewScanner(in),
		out:          out,
		workDir:      workDir,
		providerMode: "auto",
	}
	if cfg.Model != "" {
		s.model = router.Parse(cfg.Model)
	}
	return s
}

// Run reads and dispatches commands until exit or EOF
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "AgentsTeam shell. Type 'help' for commands, 'exit' to leave.")

	for {
		fmt.Fprint(s.out, "agentsteam> ")
		line, ok := s.readLine()
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}

		done, err := s.Dispatch(ctx, line)
		if err != nil {
			fmt.Fprintf(s.out, "error: %s\n", errors.UserMessage(err))
		}
		if done {
			return nil
		}
	}
}

func (s *Shell) readLine() (string, bool) {
	if !s.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.scanner.Text()), true
}

// Dispatch handles one input line. It returns true when the session
// should end.
func (s *Shell) Dispatch(ctx context.Context, line string) (bool, error) {
	switch {
	case line == "":
		return false, nil
	case line == "exit", line == "quit":
		fmt.Fprintln(s.out, "bye")
		return true, nil
	case strings.HasPrefix(line, "!"):
		return false, s.runEscape(ctx, strings.TrimSpace(line[1:]))
	case strings.HasPrefix(line, "/"):
		return false, s.runSlash(ctx, line)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "help":
		s.printHelp()
		return false, nil
	case "models":
		return false, s.printModels(ctx)
	case "config":
		s.printConfig()
		return false, nil
	case "pwd":
		fmt.Fprintln(s.out, s.workDir)
		return false, nil
	case "clear":
		fmt.Fprint(s.out, "\033[2J\033[H")
		return false, nil
	case "cd":
		return false, s.changeDir(fields[1:])
	case "ls":
		return false, s.listDir(fields[1:])
	case "cat":
		return false, s.showFile(fields[1:])
	}

	return false, s.chat(ctx, line)
}

// chat sends a message to the resolved model and offers to write any
// files the reply proposes.
func (s *Shell) chat(ctx context.Context, input string) error {
	ref, err := s.resolveModel(ctx, input)
	if err != nil {
		return err
	}
	client, err := s.factory.CreateClient(ref.Provider)
	if err != nil {
		return err
	}

	system, err := s.prompts.Render("chat_system", map[string]interface{}{
		"WorkDir":        s.workDir,
		"ProjectContext": s.projectContext(),
	})
	if err != nil {
		return err
	}

	messages := append(append([]llm.Message{}, s.history...),
		llm.Message{Role: "user", Content: input})

	fmt.Fprintf(s.out, "[%s]\n", ref)
	resp, err := client.Complete(ctx, llm.CompletionRequest{
		Model:        ref.Model,
		SystemPrompt: system,
		Messages:     messages,
		MaxTokens:    s.cfg.Gen.MaxTokens,
		Temperature:  s.cfg.Gen.Temperature,
		TopP:         s.cfg.Gen.TopP,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, resp.Content)

	s.history = append(s.history,
		llm.Message{Role: "user", Content: input},
		llm.Message{Role: "assistant", Content: resp.Content})
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}

	return s.offerFileWrites(resp.Content)
}

// resolveModel picks the model for a chat message: the pinned model if
// set, otherwise routed by the message's complexity and restricted by
// the provider mode.
func (s *Shell) resolveModel(ctx context.Context, input string) (llmtypes.ModelRef, error) {
	if s.model.Model != "" {
		return s.model, nil
	}

	assessment := analyzer.Analyze(input, nil)
	ref, err := s.selector.Select(ctx, assessment.Complexity)
	if err != nil {
		return llmtypes.ModelRef{}, err
	}

	switch s.providerMode {
	case "openai":
		if ref.Provider != "openai" {
			ref = llmtypes.ModelRef{Provider: "openai", Model: s.cfg.OpenAI.BalancedModel}
		}
	case "ollama":
		if ref.Provider != "ollama" {
			return llmtypes.ModelRef{}, errors.NewNoModelAvailableError()
		}
	}
	return ref, nil
}

// projectContext lists the working directory's files for the system
// prompt, bounded to keep the prompt small.
func (s *Shell) projectContext() string {
	const maxEntries = 30

	entries, err := os.ReadDir(s.workDir)
	if err != nil {
		return ""
	}

	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
		if len(names) == maxEntries {
			break
		}
	}
	return strings.Join(names, "\n")
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `Commands:
  help              show this help
  models            list reachable models
  config            show active configuration
  cd DIR, ls, pwd   navigate the project
  cat FILE          print a file
  clear             clear the screen
  exit              leave the shell

Slash commands:
  /model [NAME]     pin or show the model (provider:model or bare name)
  /use MODE         provider mode: ollama, openai or auto
  /status           provider reachability and session state
  /fix FILE         repair a file using the strongest model
  /tree             show the project layout

Anything else is sent to the model as chat. Prefix a line with ! to
run it in the system shell.`)
}

func (s *Shell) printModels(ctx context.Context) error {
	ollama := s.factory.Ollama()
	if ollama.Available(ctx) {
		models, err := ollama.ListModels(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, "ollama:")
		for _, m := range models {
			fmt.Fprintf(s.out, "  %s\n", m)
		}
	} else {
		fmt.Fprintln(s.out, "ollama: unreachable")
	}

	if s.cfg.OpenAI.APIKey != "" {
		fmt.Fprintf(s.out, "openai: %s, %s, %s\n",
			s.cfg.OpenAI.FastModel, s.cfg.OpenAI.BalancedModel, s.cfg.OpenAI.PowerfulModel)
	} else {
		fmt.Fprintln(s.out, "openai: no API key configured")
	}
	return nil
}

func (s *Shell) printConfig() {
	fmt.Fprintf(s.out, "ollama url:     %s\n", s.cfg.Ollama.BaseURL)
	fmt.Fprintf(s.out, "openai key:     %s\n", maskKey(s.cfg.OpenAI.APIKey))
	fmt.Fprintf(s.out, "provider mode:  %s\n", s.providerMode)
	if s.model.Model != "" {
		fmt.Fprintf(s.out, "pinned model:   %s\n", s.model)
	}
	fmt.Fprintf(s.out, "cache enabled:  %v\n", s.cfg.Cache.Enabled)
}

// maskKey hides all but the last four characters of a secret
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
