// Package fingerprint computes content-addressed identifiers for clipboard
// items. A Fingerprint is a 128-bit BLAKE3 digest of the item's canonical
// byte form; it is cheap enough to compute on every capture but collision
// resistant enough to key the classification cache and the warned-item set.
//
// A second, non-cryptographic hash (xxhash) backs the high-frequency
// "did the clipboard change since last tick?" check used by the browser
// watchdog (§4.9), which runs every ~150ms and has no need for BLAKE3's
// stronger guarantees.
package fingerprint

import (
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
	"lukechampine.com/blake3"
)

// Fingerprint is a 128-bit content digest, hex-encoded for easy use as a
// map key and in log lines.
type Fingerprint string

// Empty reports whether fp is the zero value (no fingerprint computed).
func (fp Fingerprint) Empty() bool { return fp == "" }

// Of returns the canonical Fingerprint of data: the first 128 bits of the
// BLAKE3-256 digest.
func Of(data []byte) Fingerprint {
	sum := blake3.Sum256(data)
	return Fingerprint(hex.EncodeToString(sum[:16]))
}

// QuickHash is a fast, non-cryptographic hash used only for clipboard
// change-detection polling, never for cache keys or security decisions.
type QuickHash uint64

// QuickHashOf hashes data with xxhash for cheap equality checks.
func QuickHashOf(data []byte) QuickHash {
	return QuickHash(xxhash.Sum64(data))
}
