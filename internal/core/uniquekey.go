package core

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// deriveUniqueKey produces the append-time idempotency token used when the
// caller supplies no EventUID.Key (a caller-supplied key wins outright in
// raiseOnce). The key is a deterministic hash of (StateId, TypeCode,
// PayloadBytes, Version), so identical events raised at successive versions
// get distinct keys and all commit. A retry issued after the original raise
// already committed is hashed at the next version and is not reported as a
// duplicate; only a caller-supplied EventUID.Key de-duplicates such a retry.
func deriveUniqueKey[ID StateID](stateId ID, typeCode string, payload []byte, version int64) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%v|%s|%d|", stateId, typeCode, version)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
