package errors

type ExitCode int

const (
	ExitSuccess         ExitCode = 0
	ExitGeneralError    ExitCode = 1
	ExitConfigError     ExitCode = 2
	ExitValidationError ExitCode = 3
	ExitProviderError   ExitCode = 4
	ExitGenerationError ExitCode = 5
	ExitFixError        ExitCode = 6
	ExitIOError         ExitCode = 7
)

func (e ExitCode) Int() int {
	return int(e)
}
