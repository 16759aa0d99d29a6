package domain

import "fmt"

// SafetyRejection is returned when the safety gate or a plugin validator
// refuses a command. It is never retried automatically.
type SafetyRejection struct {
	Command string
	Reason  string
}

func (r *SafetyRejection) Error() string {
	return fmt.Sprintf("command rejected by safety check: %s", r.Reason)
}
