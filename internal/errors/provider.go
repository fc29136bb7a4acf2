package errors

import (
	"fmt"
)

// ProviderError is raised when an LLM provider request fails
type ProviderError struct {
	*AgentsTeamError
}

// NewProviderError creates a new provider error
func NewProviderError(provider, reason string, cause error) *ProviderError {
	return &ProviderError{
		AgentsTeamError: &AgentsTeamError{
			Message: fmt.Sprintf("%s request failed: %s", provider, reason),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "LLM Completion",
				Component: provider,
				Suggestions: []string{
					"Check network connectivity to the provider",
					"Verify the model name with 'agentsteam models'",
					"Try with --debug flag for more information",
				},
				Recoverable: true,
			},
			ExitCode: ExitProviderError,
		},
	}
}

// Unwrap exposes the embedded base error to errors.As chains
func (e *ProviderError) Unwrap() error { return e.AgentsTeamError }

// InvalidAPIKeyError is raised on an authentication failure (HTTP 401)
type InvalidAPIKeyError struct {
	*AgentsTeamError
}

// NewInvalidAPIKeyError creates a new invalid API key error
func NewInvalidAPIKeyError(provider string) *InvalidAPIKeyError {
	return &InvalidAPIKeyError{
		AgentsTeamError: &AgentsTeamError{
			Message: fmt.Sprintf("Authentication failed for provider '%s'", provider),
			Context: &ErrorContext{
				Operation: "LLM Completion",
				Component: provider,
				Suggestions: []string{
					"Check that the API key is valid and not expired",
					"Run 'agentsteam config' to review configuration",
				},
				Recoverable: false,
			},
			ExitCode: ExitProviderError,
		},
	}
}

// Unwrap exposes the embedded base error to errors.As chains
func (e *InvalidAPIKeyError) Unwrap() error { return e.AgentsTeamError }

// RateLimitError is raised when the provider returns HTTP 429
type RateLimitError struct {
	*AgentsTeamError
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(provider string) *RateLimitError {
	return &RateLimitError{
		AgentsTeamError: &AgentsTeamError{
			Message: fmt.Sprintf("Rate limit exceeded for provider '%s'", provider),
			Context: &ErrorContext{
				Operation: "LLM Completion",
				Component: provider,
				Suggestions: []string{
					"Wait a few seconds and retry",
					"Switch to a local model with '/use ollama'",
				},
				Recoverable: true,
			},
			ExitCode: ExitProviderError,
		},
	}
}

// Unwrap exposes the embedded base error to errors.As chains
func (e *RateLimitError) Unwrap() error { return e.AgentsTeamError }

// NoModelAvailableError is raised when no usable model can be selected
type NoModelAvailableError struct {
	*AgentsTeamError
}

// NewNoModelAvailableError creates a new no-model-available error
func NewNoModelAvailableError() *NoModelAvailableError {
	return &NoModelAvailableError{
		AgentsTeamError: &AgentsTeamError{
			Message: "No usable model available",
			Context: &ErrorContext{
				Operation: "Model Selection",
				Component: "Router",
				Suggestions: []string{
					"Start Ollama: ollama serve",
					"Pull a model: ollama pull qwen2.5-coder:7b",
					"Or configure an OpenAI API key for cloud models",
				},
				Recoverable: false,
			},
			ExitCode: ExitProviderError,
		},
	}
}

// Unwrap exposes the embedded base error to errors.As chains
func (e *NoModelAvailableError) Unwrap() error { return e.AgentsTeamError }
