// Package exitcode provides standardized exit codes for rulegen
package exitcode

// Exit codes for the rulegen CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	ValidationError = 3
	FileSystemError = 4
	Cancelled       = 5
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case FileSystemError:
		return "File system error"
	case Cancelled:
		return "Cancelled by user"
	default:
		return "Unknown error"
	}
}
