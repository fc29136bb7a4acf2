package fixer

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// validator describes how to syntax-check a file of one language.
// Commands are tried in order; the first whose binary exists is used.
type validator struct {
	commands [][]string
}

var validators = map[string]validator{
	"python":     {commands: [][]string{{"python3", "-m", "py_compile"}, {"python", "-m", "py_compile"}}},
	"javascript": {commands: [][]string{{"node", "--check"}}},
	"typescript": {commands: [][]string{{"tsc", "--noEmit"}}},
	"go":         {commands: [][]string{{"go", "build"}}},
	"java":       {commands: [][]string{{"javac"}}},
	"c":          {commands: [][]string{{"cc", "-fsyntax-only"}, {"gcc", "-fsyntax-only"}, {"clang", "-fsyntax-only"}}},
	"cpp":        {commands: [][]string{{"c++", "-fsyntax-only"}, {"g++", "-fsyntax-only"}, {"clang++", "-fsyntax-only"}}},
	"rust":       {commands: [][]string{{"rustc", "--emit=metadata"}}},
}

const validateTimeout = 30 * time.Second

// ValidateSyntax syntax-checks a file with the language's toolchain.
// A missing toolchain skips validation rather than failing the fix.
func ValidateSyntax(ctx context.Context, path, language string) error {
	v, ok := validators[language]
	if !ok {
		return nil
	}

	for _, command := range v.commands {
		if _, err := exec.LookPath(command[0]); err != nil {
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, validateTimeout)
		args := append(append([]string{}, command[1:]...), path)
		cmd := exec.CommandContext(checkCtx, command[0], args...)
		out, err := cmd.CombinedOutput()
		cancel()

		if err != nil {
			return fmt.Errorf("syntax check failed: %s", firstLines(string(out), 10))
		}
		return nil
	}

	// No validator installed for this language.
	return nil
}
