package crate

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindOpenCrate Kind = iota + 1
	KindReadCrate
	KindWriteVendor
	KindOpenChecksum
	KindWriteChecksum
)

func (k Kind) String() string {
	switch k {
	case KindOpenCrate:
		return "opening crate file"
	case KindReadCrate:
		return "reading crate"
	case KindWriteVendor:
		return "writing crate to the vendor-path"
	case KindOpenChecksum:
		return "opening vendor path checksum file"
	case KindWriteChecksum:
		return "writing vendor path checksum file"
	default:
		return fmt.Sprintf("crate error %d", int(k))
	}
}

// Error is the only error type AddCrate and Unpack return.
// The first one stops the run; nothing is rolled back.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// IsKind reports whether err carries a crate error of
// the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}
