package signer

import "errors"

// Kind classifies signer bridge failures.
type Kind int

const (
	// KindNotFound means no signing capability is exposed in the tab.
	KindNotFound Kind = iota
	// KindIncompatible means a capability exists but lacks the required
	// NIP-07 operations, or returned a malformed result.
	KindIncompatible
	// KindDenied means the capability refused to reveal the public key.
	KindDenied
	// KindRejected means the user (or capability) declined to sign.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "signer_not_found"
	case KindIncompatible:
		return "signer_incompatible"
	case KindDenied:
		return "signer_denied"
	case KindRejected:
		return "signer_rejected"
	default:
		return "signer_error"
	}
}

// Error is a classified signer failure. Message carries the
// capability's own wording when it supplied one.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

// IsKind reports whether err is a signer Error of the given kind.
func IsKind(err error, k Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}

// ErrTabNotSignable is returned when a bridge operation targets a tab
// whose URL is not http(s). Tabs resolved by the coordinator never
// trigger it; it guards direct callers.
var ErrTabNotSignable = errors.New("tab is not eligible to host a signer")
