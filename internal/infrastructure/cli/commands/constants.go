package commands

// Error messages
const (
	ErrHistoryDisabled = "history is disabled (set history.enabled in the config)"
	ErrRoleInvalid     = "--role must be router or executor"
	ErrDoctorFailed    = "doctor found problems"
)

// Success messages
const (
	MsgConfigurationValid = "Configuration valid"
	MsgNoHistoryRecorded  = "No history recorded yet."
	MsgHistoryCleared     = "History cleared."
)
