package publish

import "errors"

// ValidationError reports bad caller input. It is terminal for the
// attempt; nothing downstream runs.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrNoSignerTab means no open tab is eligible to host a signer.
var ErrNoSignerTab = errors.New("Open any website tab with your signer extension enabled, then try again.")
