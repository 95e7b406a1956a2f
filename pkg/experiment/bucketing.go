package experiment

import (
	"crypto/sha256"
	"encoding/binary"
)

// bucket maps a (caller, experiment) pair to a stable point in [0, 1).
// SHA-256 keeps the distribution uniform and platform-independent; the
// first 8 bytes of the digest are read as a big-endian integer and
// scaled by 2^64.
func bucket(callerID, experiment string) float64 {
	digest := sha256.Sum256([]byte(callerID + ":" + experiment))
	n := binary.BigEndian.Uint64(digest[:8])
	return float64(n) / (1 << 64)
}
