// Package prompts manages the prompt templates sent to models.
// Defaults are embedded; a project can override individual prompts by
// dropping YAML files into .agentsteam/prompts/.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var embeddedTemplates embed.FS

// OverrideDir is the project-relative directory for prompt overrides
const OverrideDir = ".agentsteam/prompts"

// requiredPrompts must exist after loading; a missing one indicates a
// broken override set.
var requiredPrompts = []string{
	"plan_project",
	"file_content",
	"setup_instructions",
	"plan_steps",
	"build_change",
	"fix_code",
	"fix_code_strict",
	"chat_system",
}

// Manager renders named prompt templates
type Manager struct {
	templates map[string]*template.Template
}

// NewManager loads the embedded prompt set and merges overrides from
// projectDir/.agentsteam/prompts/*.yaml over it.
func NewManager(projectDir string) (*Manager, error) {
	m := &Manager{templates: map[string]*template.Template{}}

	entries, err := embeddedTemplates.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("embedded templates missing: %w", err)
	}
	for _, entry := range entries {
		data, err := embeddedTemplates.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, err
		}
		if err := m.mergeYAML(data, "embedded:"+entry.Name()); err != nil {
			return nil, err
		}
	}

	if projectDir != "" {
		if err := m.loadOverrides(filepath.Join(projectDir, OverrideDir)); err != nil {
			return nil, err
		}
	}

	for _, name := range requiredPrompts {
		if _, ok := m.templates[name]; !ok {
			return nil, fmt.Errorf("prompt %q is not defined", name)
		}
	}

	return m, nil
}

// loadOverrides merges every *.yaml file in dir, if the dir exists
func (m *Manager) loadOverrides(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read prompt override %s: %w", path, err)
		}
		if err := m.mergeYAML(data, path); err != nil {
			return err
		}
	}
	return nil
}

// mergeYAML parses a name->template YAML document into the manager
func (m *Manager) mergeYAML(data []byte, source string) error {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid prompt file %s: %w", source, err)
	}

	for name, text := range raw {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
		if err != nil {
			return fmt.Errorf("invalid template %q in %s: %w", name, source, err)
		}
		m.templates[name] = tmpl
	}
	return nil
}

// Render executes the named template with the given data
func (m *Manager) Render(name string, data interface{}) (string, error) {
	tmpl, ok := m.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

// Names returns the loaded prompt names
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	return names
}
