// Package testkit holds invariant checks shared by tests and the replay
// command's self-check mode.
package testkit

import (
	"fmt"

	"shapekey/internal/fasttable"
	"shapekey/internal/fingerprint"
	"shapekey/internal/ndarray"
	"shapekey/internal/typecache"
	"shapekey/internal/typecode"
)

// CheckFingerprint runs the encoder invariants on v:
// 1) encoding is deterministic
// 2) the result is non-empty and disassembles as exactly one token tree
// 3) the hash is stable and never the all-ones sentinel
// Values without a fingerprint pass with an empty result.
func CheckFingerprint(enc *fingerprint.Encoder, v any) (fingerprint.Fingerprint, error) {
	if enc == nil {
		enc = fingerprint.Default
	}
	first, err := enc.Encode(v)
	if err != nil {
		return "", err
	}
	second, err := enc.Encode(v)
	if err != nil {
		return "", fmt.Errorf("second encoding failed: %w", err)
	}
	if first != second {
		return "", fmt.Errorf("encoding not deterministic: %x vs %x", string(first), string(second))
	}
	if len(first) == 0 {
		return "", fmt.Errorf("empty fingerprint for %T", v)
	}
	if _, err := fingerprint.Disassemble(first.Bytes()); err != nil {
		return "", err
	}
	h := first.Hash()
	if h != fingerprint.Hash(first.Bytes()) {
		return "", fmt.Errorf("hash differs between string and byte forms")
	}
	if h == ^uint64(0) {
		return "", fmt.Errorf("hash hit the reserved sentinel")
	}
	return first, nil
}

// CheckStable resolves v twice through c and reports a changed answer.
func CheckStable(c *typecache.Cache, v any, r typecode.Resolver) (typecode.Code, error) {
	a, err := c.Resolve(v, r)
	if err != nil {
		return typecode.Unresolved, err
	}
	b, err := c.Resolve(v, r)
	if err != nil {
		return typecode.Unresolved, err
	}
	if a != b {
		return typecode.Unresolved, fmt.Errorf("typecode for %T changed from %d to %d", v, a, b)
	}
	return a, nil
}

// CheckAgreement verifies that the table cell serving a, if any, holds the
// same code the cache stores for a's fingerprint. Arrays the table does not
// serve, and cells not filled yet, pass trivially.
func CheckAgreement(t *fasttable.Table, c *typecache.Cache, a *ndarray.Array) error {
	k, ok := fasttable.KeyOf(a)
	if !ok {
		return nil
	}
	cell := t.Cell(k)
	if cell == typecode.Unresolved {
		return nil
	}
	cached, ok := c.Lookup(a)
	if !ok {
		return fmt.Errorf("cell %s holds %d but the cache has no entry", k, cell)
	}
	if cached != cell {
		return fmt.Errorf("cell %s holds %d, cache holds %d", k, cell, cached)
	}
	return nil
}
