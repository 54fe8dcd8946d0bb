package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// GroupKey derives a stable idempotency key from a set of addresses
// regardless of order or letter case.
func GroupKey(addresses []string) string {
	norm := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		a = strings.ToLower(strings.TrimSpace(a))
		if _, ok := seen[a]; ok || a == "" {
			continue
		}
		seen[a] = struct{}{}
		norm = append(norm, a)
	}
	sort.Strings(norm)

	hash := sha256.Sum256([]byte(strings.Join(norm, ",")))
	return "discountclaim:v1:" + hex.EncodeToString(hash[:])
}
