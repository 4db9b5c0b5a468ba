package ref

import (
	"errors"
	"fmt"
)

// ErrKeyNotImplemented is returned for references that have no storage key.
var ErrKeyNotImplemented = errors.New("storage key not implemented")

// ErrInvalidReference is returned when parsing an unknown or malformed reference.
var ErrInvalidReference = errors.New("invalid reference")

// KeyError reports a reference whose storage key cannot be computed.
type KeyError struct {
	Ref ExecuteReference
}

// Error implements the error interface.
func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrKeyNotImplemented, e.Ref)
}

// Unwrap lets errors.Is match ErrKeyNotImplemented.
func (e *KeyError) Unwrap() error {
	return ErrKeyNotImplemented
}

// IsKeyNotImplemented returns true if err reports a missing storage key mapping.
func IsKeyNotImplemented(err error) bool {
	return errors.Is(err, ErrKeyNotImplemented)
}

// ErrEncodingMismatch is returned when a store was written with a different
// reference encoding than this build produces.
var ErrEncodingMismatch = errors.New("reference encoding mismatch")

// CheckEncoding compares the encoding version recorded by a store with
// EncodingVersion.
func CheckEncoding(stored string) error {
	if stored != EncodingVersion {
		return fmt.Errorf("%w: store has %q, want %q", ErrEncodingMismatch, stored, EncodingVersion)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidReference, fmt.Sprintf(format, args...))
}
