package model

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress parses a hex-encoded 20-byte address.
// All-lowercase and all-uppercase forms are accepted as-is; mixed case must
// carry a valid EIP-55 checksum.
func ParseAddress(raw string) (common.Address, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return common.Address{}, NewInputError("address is required")
	}
	if !common.IsHexAddress(s) || !strings.HasPrefix(s, "0x") {
		return common.Address{}, NewInputError("invalid address %q", raw)
	}

	addr := common.HexToAddress(s)
	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex() != s {
		return common.Address{}, NewInputError("address %q has an invalid checksum", raw)
	}
	return addr, nil
}
