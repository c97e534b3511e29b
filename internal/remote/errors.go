package remote

import (
	"errors"
	"fmt"
)

// Kind classifies a failed version fetch.
type Kind int

const (
	// KindNetwork covers connection, DNS and TLS failures.
	KindNetwork Kind = iota + 1
	// KindTimeout means no complete response arrived before the deadline.
	KindTimeout
	// KindBadResponse means a non-success status or an unusable body.
	KindBadResponse
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network_error"
	case KindTimeout:
		return "timeout"
	case KindBadResponse:
		return "bad_response"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against a *FetchError.
var (
	ErrNetwork     = errors.New("network error")
	ErrTimeout     = errors.New("timeout")
	ErrBadResponse = errors.New("bad response")
)

// FetchError is returned for every failed fetch.
type FetchError struct {
	Kind Kind
	// Status is the HTTP status code for status-driven BadResponse errors.
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return "fetch version: " + e.Kind.String()
	}
	return fmt.Sprintf("fetch version: %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrBadResponse:
		return e.Kind == KindBadResponse
	}
	return false
}

// KindOf returns the Kind of err, or 0 when err is not a *FetchError.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
