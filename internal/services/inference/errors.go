package inference

import "fmt"

// ErrorKind separates provider rejections from calls that never completed.
type ErrorKind int

const (
	ProviderRejected ErrorKind = iota + 1
	TransportFailure
)

// Error is returned by Client.Infer for every failed provider call.
type Error struct {
	Kind    ErrorKind
	Status  int // HTTP status, zero for transport failures
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == TransportFailure {
		return fmt.Sprintf("inference transport: %s", e.Message)
	}
	if e.Status != 0 {
		return fmt.Sprintf("inference provider rejected request (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("inference provider rejected request: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}
