package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"shownames/internal/resolver"
)

// GenerateKey creates a cache key for decorating cooked with source.
// Inline users are part of the key because they change the output.
func GenerateKey(cooked string, source *resolver.SourceModel) string {
	h := sha256.New()
	h.Write([]byte(cooked))
	h.Write([]byte{0})

	if source != nil {
		users := make([]string, 0, len(source.MentionedUsers))
		for _, u := range source.MentionedUsers {
			users = append(users, strings.ToLower(u.Username)+"="+u.Name)
		}
		sort.Strings(users)
		for _, u := range users {
			h.Write([]byte(u))
			h.Write([]byte{0})
		}
	}

	sum := h.Sum(nil)
	return "decorate:" + hex.EncodeToString(sum[:16])
}
