package errors

import (
	"fmt"
)

// ConfigurationError is raised when configuration is invalid or missing
type ConfigurationError struct {
	*AgentsTeamError
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{
		AgentsTeamError: &AgentsTeamError{
			Message:  message,
			ExitCode: ExitConfigError,
		},
	}
}

// Unwrap exposes the embedded base error to errors.As chains
func (e *ConfigurationError) Unwrap() error { return e.AgentsTeamError }

// ConfigFileError is raised when a configuration file cannot be read or parsed
type ConfigFileError struct {
	*AgentsTeamError
}

// NewConfigFileError creates a new config file error
func NewConfigFileError(filePath string, cause error) *ConfigFileError {
	return &ConfigFileError{
		AgentsTeamError: &AgentsTeamError{
			Message: fmt.Sprintf("Failed to load configuration file: %s", filePath),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Loading configuration",
				Component: "Config File",
				Details: map[string]interface{}{
					"file_path": filePath,
				},
				Suggestions: []string{
					"Check that the file exists and is readable",
					"Validate YAML syntax",
					"Check file permissions",
				},
				Recoverable: false,
			},
			ExitCode: ExitConfigError,
		},
	}
}

// Unwrap exposes the embedded base error to errors.As chains
func (e *ConfigFileError) Unwrap() error { return e.AgentsTeamError }

// MissingAPIKeyError is raised when a cloud provider is requested without credentials
type MissingAPIKeyError struct {
	*AgentsTeamError
}

// NewMissingAPIKeyError creates a new missing API key error
func NewMissingAPIKeyError(provider, envVar string) *MissingAPIKeyError {
	return &MissingAPIKeyError{
		AgentsTeamError: &AgentsTeamError{
			Message: fmt.Sprintf("No API key configured for provider '%s'", provider),
			Context: &ErrorContext{
				Operation: "Creating LLM client",
				Component: "Configuration",
				Details: map[string]interface{}{
					"provider": provider,
					"variable": envVar,
				},
				Suggestions: []string{
					fmt.Sprintf("Export the variable: export %s='your-key'", envVar),
					"Run 'agentsteam config --set openai.api_key=...' to persist it",
					"Use a local model instead: --model ollama:<name>",
				},
				Recoverable: false,
			},
			ExitCode: ExitConfigError,
		},
	}
}

// Unwrap exposes the embedded base error to errors.As chains
func (e *MissingAPIKeyError) Unwrap() error { return e.AgentsTeamError }

// ValidationError is raised when user input fails validation
type ValidationError struct {
	*AgentsTeamError
}

// NewValidationError creates a new validation error
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{
		AgentsTeamError: &AgentsTeamError{
			Message: fmt.Sprintf("Invalid value for %s: %s", field, reason),
			Context: &ErrorContext{
				Operation: "Validating input",
				Component: "CLI",
				Details: map[string]interface{}{
					"field":  field,
					"reason": reason,
				},
				Recoverable: false,
			},
			ExitCode: ExitValidationError,
		},
	}
}

// Unwrap exposes the embedded base error to errors.As chains
func (e *ValidationError) Unwrap() error { return e.AgentsTeamError }
