package acquire

import "fmt"

// State is a step of the acquisition state machine.
type State int

const (
	StateIdle State = iota
	StateBypassReset
	StateLoginAttempt
	StateLoggedIn
	StatePasswordError
	StateTimeout
	StateMetadataRead
	StateRangeCompute
	StateBlockTransfer
	StateDone
	StateClosed
)

var stateNames = [...]string{
	StateIdle:          "idle",
	StateBypassReset:   "bypass-reset",
	StateLoginAttempt:  "login",
	StateLoggedIn:      "logged-in",
	StatePasswordError: "password-error",
	StateTimeout:       "timeout",
	StateMetadataRead:  "metadata",
	StateRangeCompute:  "range",
	StateBlockTransfer: "transfer",
	StateDone:          "done",
	StateClosed:        "closed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}
