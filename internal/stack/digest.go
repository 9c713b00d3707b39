package stack

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/imamik/proxcli/internal/config"
)

// Digest returns a hex SHA-256 of the JSON form of s. Declaration order
// is part of the form. A nil stack digests like an empty one.
func Digest(s *config.Stack) string {
	if s == nil {
		s = config.NewStack()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
