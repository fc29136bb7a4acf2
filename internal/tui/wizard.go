package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dexmac221/AgentsTeam/internal/config"
)

// wizardField is one question of the configuration wizard
type wizardField struct {
	prompt  string
	current string
	secret  bool
	apply   func(cfg *config.Config, value string)
}

// Wizard collects configuration interactively. It is a plain
// line-editing model: type a value, enter accepts, a blank entry keeps
// the current value, esc aborts.
type Wizard struct {
	cfg     *config.Config
	fields  []wizardField
	answers []string
	index   int
	input   string
	// confirming is the final save/discard question.
	confirming bool
	confirmed  bool
	aborted    bool
}

// NewWizard creates a wizard editing a copy of the given configuration
func NewWizard(cfg *config.Config) *Wizard {
	return &Wizard{
		cfg: cfg,
		fields: []wizardField{
			{
				prompt:  "Ollama base URL",
				current: cfg.Ollama.BaseURL,
				apply:   func(c *config.Config, v string) { c.Ollama.BaseURL = v },
			},
			{
				prompt:  "OpenAI API key",
				current: cfg.OpenAI.APIKey,
				secret:  true,
				apply:   func(c *config.Config, v string) { c.OpenAI.APIKey = v },
			},
			{
				prompt:  "Default model (blank routes by task complexity)",
				current: cfg.Model,
				apply:   func(c *config.Config, v string) { c.Model = v },
			},
		},
	}
}

// Init implements tea.Model
func (w *Wizard) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return w, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		w.aborted = true
		return w, tea.Quit

	case tea.KeyEnter:
		if w.confirming {
			answer := strings.ToLower(strings.TrimSpace(w.input))
			w.confirmed = answer == "y" || answer == "yes"
			return w, tea.Quit
		}

		value := strings.TrimSpace(w.input)
		if value == "" {
			value = w.fields[w.index].current
		}
		w.answers = append(w.answers, value)
		w.input = ""
		w.index++
		if w.index == len(w.fields) {
			w.confirming = true
		}
		return w, nil

	case tea.KeyBackspace:
		if len(w.input) > 0 {
			runes := []rune(w.input)
			w.input = string(runes[:len(runes)-1])
		}
		return w, nil

	case tea.KeySpace:
		w.input += " "
		return w, nil

	case tea.KeyRunes:
		w.input += string(key.Runes)
		return w, nil
	}

	return w, nil
}

// View implements tea.Model
func (w *Wizard) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("AgentsTeam configuration"))
	sb.WriteString("\n\n")

	for i := 0; i < w.index; i++ {
		field := w.fields[i]
		sb.WriteString(fmt.Sprintf("%s %s\n",
			successStyle.Render("✓"),
			dimStyle.Render(field.prompt+": "+displayValue(w.answers[i], field.secret))))
	}

	if w.confirming {
		sb.WriteString(fmt.Sprintf("\nSave to the global config file? (y/N): %s", w.input))
		return sb.String()
	}

	field := w.fields[w.index]
	sb.WriteString(fmt.Sprintf("\n%s", field.prompt))
	if field.current != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf(" [%s]", displayValue(field.current, field.secret))))
	}
	sb.WriteString(fmt.Sprintf(": %s", displayValue(w.input, field.secret)))
	sb.WriteString(dimStyle.Render("\n\nenter accepts, blank keeps current, esc aborts"))
	return sb.String()
}

// displayValue masks secrets in rendered output
func displayValue(value string, secret bool) string {
	if !secret || value == "" {
		return value
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

// applyAnswers writes collected answers into the configuration
func (w *Wizard) applyAnswers() {
	for i, answer := range w.answers {
		w.fields[i].apply(w.cfg, answer)
	}
}

// RunWizard runs the wizard on the terminal and persists the result to
// the global config file when the user confirms. It reports whether
// anything was saved.
func RunWizard(cfg *config.Config) (bool, error) {
	model, err := tea.NewProgram(NewWizard(cfg)).Run()
	if err != nil {
		return false, err
	}

	w := model.(*Wizard)
	if w.aborted || !w.confirmed {
		return false, nil
	}

	w.applyAnswers()
	if err := config.SaveGlobal(cfg); err != nil {
		return false, err
	}
	return true, nil
}
