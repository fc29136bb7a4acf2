package errors

import (
	"fmt"
)

// GenerationError is raised when project generation fails
type GenerationError struct {
	*AgentsTeamError
}

// NewGenerationError creates a new generation error
func NewGenerationError(reason string, cause error) *GenerationError {
	return &GenerationError{
		AgentsTeamError: &AgentsTeamError{
			Message: fmt.Sprintf("Generation failed: %s", reason),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Project Generation",
				Component: "Generator",
				Suggestions: []string{
					"Try a more specific project description",
					"Try a larger model with --model",
					"Check logs in .agentsteam/logs/ for the raw response",
				},
				Recoverable: false,
			},
			ExitCode: ExitGenerationError,
		},
	}
}

// Unwrap exposes the embedded base error to errors.As chains
func (e *GenerationError) Unwrap() error { return e.AgentsTeamError }

// PlanParseError is raised when the model response cannot be parsed into a plan
type PlanParseError struct {
	*AgentsTeamError
}

// NewPlanParseError creates a new plan parse error
func NewPlanParseError(cause error) *PlanParseError {
	return &PlanParseError{
		AgentsTeamError: &AgentsTeamError{
			Message: "Could not parse project plan from model response",
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Plan Parsing",
				Component: "Generator",
				Suggestions: []string{
					"Retry; smaller models occasionally emit malformed JSON",
					"Try a larger model with --model",
				},
				Recoverable: true,
			},
			ExitCode: ExitGenerationError,
		},
	}
}

// Unwrap exposes the embedded base error to errors.As chains
func (e *PlanParseError) Unwrap() error { return e.AgentsTeamError }

// UnsafePathError is raised when a model-proposed path escapes the output directory
type UnsafePathError struct {
	*AgentsTeamError
}

// NewUnsafePathError creates a new unsafe path error
func NewUnsafePathError(path string) *UnsafePathError {
	return &UnsafePathError{
		AgentsTeamError: &AgentsTeamError{
			Message: fmt.Sprintf("Refusing to write outside the output directory: %s", path),
			Context: &ErrorContext{
				Operation: "Applying file changes",
				Component: "Generator",
				Details: map[string]interface{}{
					"path": path,
				},
				Recoverable: false,
			},
			ExitCode: ExitGenerationError,
		},
	}
}

// Unwrap exposes the embedded base error to errors.As chains
func (e *UnsafePathError) Unwrap() error { return e.AgentsTeamError }

// FixError is raised when error correction fails
type FixError struct {
	*AgentsTeamError
}

// NewFixError creates a new fix error
func NewFixError(reason string, cause error) *FixError {
	return &FixError{
		AgentsTeamError: &AgentsTeamError{
			Message: fmt.Sprintf("Fix failed: %s", reason),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Error Correction",
				Component: "Fixer",
				Suggestions: []string{
					"Inspect the backup file written next to the target",
					"Run the failing command manually for full output",
					"Try a larger model with --model",
				},
				Recoverable: false,
			},
			ExitCode: ExitFixError,
		},
	}
}

// Unwrap exposes the embedded base error to errors.As chains
func (e *FixError) Unwrap() error { return e.AgentsTeamError }

// IOError is raised when a filesystem operation fails
type IOError struct {
	*AgentsTeamError
}

// NewIOError creates a new IO error
func NewIOError(operation, path string, cause error) *IOError {
	return &IOError{
		AgentsTeamError: &AgentsTeamError{
			Message: fmt.Sprintf("Failed to %s: %s", operation, path),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: operation,
				Component: "Filesystem",
				Details: map[string]interface{}{
					"path": path,
				},
				Suggestions: []string{
					"Check file permissions",
					"Check available disk space",
				},
				Recoverable: false,
			},
			ExitCode: ExitIOError,
		},
	}
}

// Unwrap exposes the embedded base error to errors.As chains
func (e *IOError) Unwrap() error { return e.AgentsTeamError }
