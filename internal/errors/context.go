package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorContext carries the situational data shown alongside an error:
// where it happened, the values involved, and what the user can try next.
type ErrorContext struct {
	Operation   string
	Component   string
	Details     map[string]interface{}
	Suggestions []string
	Recoverable bool
	RetryCount  int
	MaxRetries  int
}

// Format renders the context as the indented block appended to user
// messages. Detail keys print in sorted order so output is stable.
func (ec *ErrorContext) Format() string {
	var b strings.Builder

	switch {
	case ec.Operation != "" && ec.Component != "":
		fmt.Fprintf(&b, "\nWhat happened:\n  %s failed in %s.\n", ec.Operation, ec.Component)
	case ec.Operation != "":
		fmt.Fprintf(&b, "\nWhat happened:\n  %s failed.\n", ec.Operation)
	case ec.Component != "":
		fmt.Fprintf(&b, "\nWhat happened:\n  Failure in %s.\n", ec.Component)
	}

	if len(ec.Details) > 0 {
		b.WriteString("\nDetails:\n")
		keys := make([]string, 0, len(ec.Details))
		for key := range ec.Details {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "  - %s: %v\n", key, ec.Details[key])
		}
	}

	if len(ec.Suggestions) > 0 {
		b.WriteString("\nWhat you can do:\n")
		for i, suggestion := range ec.Suggestions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, suggestion)
		}
	}

	if ec.Recoverable {
		fmt.Fprintf(&b, "\nRecoverable: Yes (retry %d/%d)\n", ec.RetryCount, ec.MaxRetries)
	}

	return b.String()
}
