package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dexmac221/AgentsTeam/internal/errors"
)

// GlobalConfigPath returns the path of the per-user configuration file
func GlobalConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WrapError(err, "cannot determine home directory", errors.ExitConfigError)
	}
	return filepath.Join(homeDir, GlobalConfigName), nil
}

// SetValue persists a single dotted key (for example "openai.api_key")
// into the global configuration file, preserving existing settings.
func SetValue(key, value string) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}
	return setValueInFile(path, key, value)
}

func setValueInFile(path, key, value string) error {
	settings := map[string]interface{}{}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return errors.NewConfigFileError(path, err)
		}
	} else if !os.IsNotExist(err) {
		return errors.NewConfigFileError(path, err)
	}

	parts := strings.Split(key, ".")
	if err := setNested(settings, parts, value); err != nil {
		return err
	}

	return writeYAML(path, settings)
}

// setNested walks the dotted key path, creating maps as needed
func setNested(m map[string]interface{}, parts []string, value interface{}) error {
	if len(parts) == 0 || parts[0] == "" {
		return errors.NewValidationError("key", "must not be empty")
	}
	if len(parts) == 1 {
		m[parts[0]] = value
		return nil
	}

	child, ok := m[parts[0]].(map[string]interface{})
	if !ok {
		if _, exists := m[parts[0]]; exists {
			return errors.NewValidationError("key", fmt.Sprintf("%s is not a section", parts[0]))
		}
		child = map[string]interface{}{}
		m[parts[0]] = child
	}
	return setNested(child, parts[1:], value)
}

// SaveGlobal writes a full configuration to the global file.
// Used by the interactive configuration wizard.
func SaveGlobal(cfg *Config) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}
	return writeYAML(path, cfg)
}

func writeYAML(path string, doc interface{}) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.WrapError(err, "failed to marshal configuration", errors.ExitConfigError)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewIOError("create config directory", filepath.Dir(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return errors.NewIOError("write config file", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.NewIOError("save config file", path, err)
	}
	return nil
}
