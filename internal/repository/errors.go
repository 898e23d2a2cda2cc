package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 表示查询未返回数据。
	ErrNotFound = errors.New("not found")
	// ErrRejected marks writes the store refused (constraint or validation).
	ErrRejected = errors.New("rejected by store")
	// ErrUnavailable marks transport, auth or query failures.
	ErrUnavailable = errors.New("store unavailable")
)

// Kind classifies a StoreError.
type Kind int

const (
	KindUnavailable Kind = iota
	KindNotFound
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindRejected:
		return "rejected"
	default:
		return "unavailable"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindRejected:
		return ErrRejected
	default:
		return ErrUnavailable
	}
}

// StoreError is the only error kind store adapters return.
type StoreError struct {
	Op   string
	Kind Kind
	Err  error
}

// NewStoreError wraps err for operation op. A nil err yields the kind's
// sentinel as cause.
func NewStoreError(op string, kind Kind, err error) *StoreError {
	if err == nil {
		err = kind.sentinel()
	}
	return &StoreError{Op: op, Kind: kind, Err: err}
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("store %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the sentinel of the error's kind.
func (e *StoreError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// IsNotFound reports whether err is a not-found store failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// KindOf extracts the kind of a store failure; foreign errors are unavailable.
func KindOf(err error) Kind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindUnavailable
}

// Wrap converts any adapter failure into a StoreError, keeping existing ones.
func Wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se
	}
	return NewStoreError(op, kind, err)
}
