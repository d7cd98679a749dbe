package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"

	// Configuration errors
	ErrInvalidConfig    ErrorCode = "invalid_configuration"
	ErrMissingConfig    ErrorCode = "missing_configuration"
	ErrBindFlags        ErrorCode = "bind_flags_failed"
	ErrReadConfig       ErrorCode = "read_config_failed"
	ErrInvalidInterval  ErrorCode = "invalid_interval"
	ErrInvalidPortRange ErrorCode = "invalid_port_range"
	ErrInvalidCapacity  ErrorCode = "invalid_capacity"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"
	ErrOpenLogFile     ErrorCode = "open_log_file_failed"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Resource errors
	ErrResourceExhausted ErrorCode = "resource_exhausted"
	ErrAlreadyRunning    ErrorCode = "already_running"

	// Application errors
	ErrOpenPanel   ErrorCode = "open_panel_failed"
	ErrClosePanel  ErrorCode = "close_panel_failed"
	ErrSnapshot    ErrorCode = "snapshot_failed"
	ErrInvalidAddr ErrorCode = "invalid_address"

	// Operation errors
	ErrTimeout ErrorCode = "operation_timeout"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:          "Internal error occurred",
	ErrInvalidArgument:   "Invalid argument provided",
	ErrInvalidConfig:     "Invalid configuration",
	ErrMissingConfig:     "Missing configuration",
	ErrBindFlags:         "Failed to bind flags",
	ErrReadConfig:        "Failed to read config file",
	ErrInvalidInterval:   "Invalid interval value",
	ErrInvalidPortRange:  "Invalid port range",
	ErrInvalidCapacity:   "Invalid history capacity",
	ErrInvalidLogLevel:   "Invalid log level",
	ErrOpenLogFile:       "Failed to open log file",
	ErrInitFailed:        "Initialization failed",
	ErrShutdownFailed:    "Shutdown failed",
	ErrResourceExhausted: "Resource exhausted",
	ErrAlreadyRunning:    "Another instance is already running",
	ErrOpenPanel:         "Failed to open panel",
	ErrClosePanel:        "Failed to close panel",
	ErrSnapshot:          "Failed to write snapshot",
	ErrInvalidAddr:       "Invalid device address",
	ErrTimeout:           "Operation timed out",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
