package calc

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// HashInputs computes the content hash persisted as calc_hash. encoding/json
// marshals map keys in lexicographic order at every nesting level, so two
// structurally equal input maps hash identically regardless of insertion
// order. SHA-256 over the UTF-8 bytes, lowercase hex.
func HashInputs(inputs map[string]any) string {
	raw, _ := json.Marshal(inputs)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
