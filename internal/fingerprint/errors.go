package fingerprint

import "errors"

var (
	// ErrUnsupported means the value's shape cannot be canonicalised. Callers
	// must resolve such values through the slow path every time.
	ErrUnsupported = errors.New("cannot compute type fingerprint for value")

	// ErrOutOfMemory is returned when a fingerprint outgrows the writer limit.
	ErrOutOfMemory = errors.New("fingerprint: out of memory")

	// ErrMalformed is returned by Disassemble for byte strings that are not
	// well-formed fingerprints.
	ErrMalformed = errors.New("fingerprint: malformed encoding")
)
