package normalization

import (
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// contentHash hashes the raw retained bytes exactly as received, not a
// re-serialized form of the parsed document — two payloads that differ
// only in field order or whitespace hash differently (SPEC_FULL.md
// §11.1).
func contentHash(raw []byte) string {
	sum := xxhash.Sum64(raw)
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (8 * (7 - i)))
	}
	return hex.EncodeToString(buf)
}
