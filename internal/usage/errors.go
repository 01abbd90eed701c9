package usage

import "errors"

// Kind classifies a credential or fetch failure. Every kind is
// non-fatal: the panel shows the hint inline and the poll loop retries
// on the next interval.
type Kind int

const (
	KindNetwork Kind = iota
	KindCredentialMissing
	KindScopeInsufficient
	KindAuthExpired
	KindMalformed
	KindPlatformUnsupported
)

// Error is a classified provider failure with a user-facing recovery
// hint.
type Error struct {
	Kind Kind
	Hint string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Hint + ": " + e.Err.Error()
	}
	return e.Hint
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a classified error.
func E(kind Kind, hint string, err error) *Error {
	return &Error{Kind: kind, Hint: hint, Err: err}
}

// KindOf extracts the classification from an error chain. Anything
// unclassified is treated as a network failure, the retryable default.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindNetwork
}

// Hint returns the user-facing hint for an error, falling back to the
// raw error text.
func Hint(err error) string {
	var ue *Error
	if errors.As(err, &ue) && ue.Hint != "" {
		return ue.Hint
	}
	return err.Error()
}
