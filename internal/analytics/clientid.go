package analytics

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// ClientID derives the analytics client id from a session id with a keyed
// BLAKE2b hash, so stored hits cannot be turned back into bearer sessions.
func ClientID(key []byte, sessionID string) string {
	if sessionID == "" {
		return ""
	}
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		return ""
	}
	h.Write([]byte(sessionID))
	return hex.EncodeToString(h.Sum(nil)[:16])
}
