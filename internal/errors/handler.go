package errors

import (
	"errors"
)

// ExitCodeFor maps any error to a CLI exit code.
// Unknown errors map to ExitGeneralError; nil maps to ExitSuccess.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}

	var appErr *AgentsTeamError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	return ExitGeneralError
}

// UserMessage returns the friendliest message available for an error
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AgentsTeamError
	if errors.As(err, &appErr) {
		return appErr.GetUserMessage()
	}

	return "ERROR: " + err.Error()
}
