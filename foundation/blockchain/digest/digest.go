// Package digest provides the content hashing used by the ledger. Every
// digest is a BLAKE2b-512 sum rendered as lowercase hex.
package digest

import (
	"encoding/hex"
	"hash"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// Size is the length in characters of a hex encoded digest.
const Size = blake2b.Size * 2

// New returns a hash.Hash computing the BLAKE2b-512 checksum. It can be
// handed to anything that wants a hash strategy.
func New() hash.Hash {

	// New512 only fails when a key longer than 64 bytes is provided.
	h, _ := blake2b.New512(nil)
	return h
}

// Sum hashes the data and returns the hex encoded digest.
func Sum(data []byte) string {
	sum := blake2b.Sum512(data)
	return hex.EncodeToString(sum[:])
}

// Combine produces the parent digest of two child digests. The input to the
// hash is the concatenation of the two hex strings, not the raw bytes.
func Combine(left string, right string) string {
	return Sum([]byte(left + right))
}

// Block returns the digest for a block's fields. The fields are rendered to
// text and concatenated in the fixed order index, timestamp, payload,
// previous hash.
func Block(index uint64, timestamp float64, payload string, prevHash string) string {
	h := New()

	h.Write([]byte(strconv.FormatUint(index, 10)))
	h.Write([]byte(FormatTimestamp(timestamp)))
	h.Write([]byte(payload))
	h.Write([]byte(prevHash))

	return hex.EncodeToString(h.Sum(nil))
}

// FormatTimestamp renders a timestamp using the shortest decimal form that
// round trips, so the same value always produces the same text.
func FormatTimestamp(timestamp float64) string {
	return strconv.FormatFloat(timestamp, 'f', -1, 64)
}
