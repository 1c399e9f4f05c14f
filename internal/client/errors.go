package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by FetchOne when the backend reports the
	// product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrNetwork matches every transport or non-2xx failure that is not a
	// not-found.
	ErrNetwork = errors.New("inventory backend unavailable")
)

// FetchError is returned when reading products fails.
type FetchError struct {
	Op     string
	Status int // 0 for transport failures
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// SaveError is returned when creating or updating a product fails.
type SaveError struct {
	Op     string
	Status int // 0 for transport failures
	Detail string
	Err    error
}

func (e *SaveError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *SaveError) Unwrap() []error { return []error{ErrNetwork, e.Err} }
