// Package errors defines the domain error taxonomy shared by the ledger engine,
// its store adapter and the HTTP layer.
package errors

// DomainError is a stable, client-facing error. Code is what handlers map to
// HTTP statuses; Message is safe to show to the caller.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	for err != nil {
		if de, ok := err.(*DomainError); ok {
			return de.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
