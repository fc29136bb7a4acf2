package shell

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/dexmac221/AgentsTeam/internal/errors"
	"github.com/dexmac221/AgentsTeam/internal/fixer"
	"github.com/dexmac221/AgentsTeam/internal/generator"
	"github.com/dexmac221/AgentsTeam/internal/llmtypes"
	"github.com/dexmac221/AgentsTeam/internal/logging"
	"github.com/dexmac221/AgentsTeam/internal/router"
	"github.com/dexmac221/AgentsTeam/internal/runner"
)

// dangerousFragments block shell escapes that could wreck the system.
// Matching is case-insensitive substring.
var dangerousFragments = []string{
	"rm -rf /",
	"rm -fr /",
	"mkfs",
	"dd if=",
	"> /dev/",
	":(){",
	"shutdown",
	"reboot",
	"poweroff",
	"halt",
	"chmod -r 777 /",
	"chown -r",
}

// IsDangerous reports whether a shell escape should be refused
func IsDangerous(command string) bool {
	lowered := strings.ToLower(command)
	for _, fragment := range dangerousFragments {
		if strings.Contains(lowered, fragment) {
			return true
		}
	}
	return false
}

// runEscape executes a raw shell command in the working directory
func (s *Shell) runEscape(ctx context.Context, command string) error {
	if command == "" {
		return nil
	}
	if IsDangerous(command) {
		return errors.NewValidationError("command", "refused: potentially destructive")
	}

	result, err := runner.New(s.workDir).Run(ctx, command)
	if err != nil {
		return err
	}
	if result.Stdout != "" {
		fmt.Fprint(s.out, result.Stdout)
	}
	if result.Stderr != "" {
		fmt.Fprint(s.out, result.Stderr)
	}
	if !result.Success() {
		fmt.Fprintf(s.out, "(exit %d)\n", result.ExitCode)
	}
	return nil
}

// runSlash dispatches /commands
func (s *Shell) runSlash(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/model":
		if len(fields) < 2 {
			if s.model.Model == "" {
				fmt.Fprintln(s.out, "model: auto")
			} else {
				fmt.Fprintf(s.out, "model: %s\n", s.model)
			}
			return nil
		}
		s.model = router.Parse(fields[1])
		fmt.Fprintf(s.out, "pinned %s\n", s.model)
		return nil

	case "/use":
		if len(fields) < 2 {
			return errors.NewValidationError("mode", "usage: /use ollama|openai|auto")
		}
		mode := strings.ToLower(fields[1])
		if mode != "ollama" && mode != "openai" && mode != "auto" {
			return errors.NewValidationError("mode", "must be ollama, openai or auto")
		}
		s.providerMode = mode
		// A pinned model from another provider cannot survive the switch.
		if s.model.Model != "" && mode != "auto" && s.model.Provider != mode {
			s.model = llmtypes.ModelRef{}
			fmt.Fprintln(s.out, "unpinned model")
		}
		fmt.Fprintf(s.out, "provider mode: %s\n", mode)
		return nil

	case "/status":
		s.printStatus(ctx)
		return nil

	case "/fix":
		if len(fields) < 2 {
			return errors.NewValidationError("file", "usage: /fix FILE")
		}
		return s.fixFile(ctx, fields[1])

	case "/tree":
		s.printTree()
		return nil
	}

	return errors.NewValidationError("command", fmt.Sprintf("unknown command %s", fields[0]))
}

func (s *Shell) printStatus(ctx context.Context) {
	if s.factory.Ollama().Available(ctx) {
		fmt.Fprintf(s.out, "ollama:   reachable at %s\n", s.cfg.Ollama.BaseURL)
	} else {
		fmt.Fprintf(s.out, "ollama:   unreachable at %s\n", s.cfg.Ollama.BaseURL)
	}
	if s.cfg.OpenAI.APIKey != "" {
		fmt.Fprintln(s.out, "openai:   key configured")
	} else {
		fmt.Fprintln(s.out, "openai:   no key")
	}
	fmt.Fprintf(s.out, "mode:     %s\n", s.providerMode)
	if s.model.Model != "" {
		fmt.Fprintf(s.out, "model:    %s\n", s.model)
	}
	fmt.Fprintf(s.out, "workdir:  %s\n", s.workDir)
	fmt.Fprintf(s.out, "history:  %d messages\n", len(s.history))
}

// fixFile validates a file and, when it is broken, repairs it with the
// strongest reachable model.
func (s *Shell) fixFile(ctx context.Context, name string) error {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.workDir, name)
	}
	language, ok := fixer.LanguageForFile(path)
	if !ok {
		return errors.NewFixError(fmt.Sprintf("unsupported file type: %s", name), nil)
	}

	validationErr := fixer.ValidateSyntax(ctx, path, language)
	if validationErr == nil {
		fmt.Fprintf(s.out, "%s has no detectable syntax errors\n", name)
		return nil
	}

	ref, err := s.selector.Best(ctx)
	if err != nil {
		return err
	}
	client, err := s.factory.CreateClient(ref.Provider)
	if err != nil {
		return err
	}

	fix, err := fixer.New(client, ref.Model, s.prompts, s.log).
		FixFile(ctx, path, validationErr.Error())
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "fixed %s (backup: %s)\n", name, filepath.Base(fix.BackupPath))
	if fix.Explanation != "" {
		fmt.Fprintln(s.out, fix.Explanation)
	}
	return nil
}

func (s *Shell) changeDir(args []string) error {
	if len(args) == 0 {
		return errors.NewValidationError("dir", "usage: cd DIR")
	}
	target := args[0]
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.workDir, target)
	}

	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return errors.NewIOError("change directory", args[0], err)
	}
	s.workDir = filepath.Clean(target)
	fmt.Fprintln(s.out, s.workDir)
	return nil
}

func (s *Shell) listDir(args []string) error {
	dir := s.workDir
	if len(args) > 0 {
		if filepath.IsAbs(args[0]) {
			dir = args[0]
		} else {
			dir = filepath.Join(s.workDir, args[0])
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.NewIOError("list directory", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(s.out, name)
	}
	return nil
}

func (s *Shell) showFile(args []string) error {
	if len(args) == 0 {
		return errors.NewValidationError("file", "usage: cat FILE")
	}
	path := args[0]
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.workDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewIOError("read file", args[0], err)
	}
	fmt.Fprint(s.out, string(data))
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(s.out)
	}
	return nil
}

// treeSkip directories never shown in /tree
var treeSkip = map[string]bool{
	".git":         true,
	".agentsteam":  true,
	"node_modules": true,
	"__pycache__":  true,
	"venv":         true,
	".venv":        true,
}

const treeMaxDepth = 3

func (s *Shell) printTree() {
	root := s.workDir
	fmt.Fprintln(s.out, filepath.Base(root)+"/")

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		depth := strings.Count(rel, string(filepath.Separator))
		if d.IsDir() && (treeSkip[d.Name()] || depth >= treeMaxDepth) {
			return filepath.SkipDir
		}

		name := d.Name()
		if d.IsDir() {
			name += "/"
		}
		fmt.Fprintf(s.out, "%s%s\n", strings.Repeat("  ", depth+1), name)
		return nil
	})
}

// fileProposalRe matches FILE: blocks in chat replies
var fileProposalRe = regexp.MustCompile("(?s)FILE:[ \t]*(\\S+)[ \t]*\n```[a-zA-Z0-9_+-]*[ \t]*\n(.*?)```")

// offerFileWrites scans a chat reply for proposed files and writes each
// one the user confirms.
func (s *Shell) offerFileWrites(response string) error {
	for _, match := range fileProposalRe.FindAllStringSubmatch(response, -1) {
		name, content := match[1], match[2]

		fmt.Fprintf(s.out, "write %s? [y/N]: ", name)
		answer, ok := s.readLine()
		if !ok || !isYes(answer) {
			continue
		}

		target, err := generator.SafeJoin(s.workDir, name)
		if err != nil {
			fmt.Fprintf(s.out, "refused %s: %s\n", name, errors.UserMessage(err))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.NewIOError("create directory", filepath.Dir(target), err)
		}
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		if err := os.WriteFile(target, []byte(content), 0644); err != nil {
			return errors.NewIOError("write file", target, err)
		}

		s.log.Info("wrote file from chat", logging.String("path", name))
		fmt.Fprintf(s.out, "wrote %s\n", name)
	}
	return nil
}

func isYes(answer string) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
