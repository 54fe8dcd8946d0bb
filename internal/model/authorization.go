package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// IdentityGroup is the set of addresses treated as one claimant.
type IdentityGroup struct {
	IdempotencyKey  string           `json:"idempotencyKey"`
	LinkedAddresses []common.Address `json:"linkedAddresses"`
}

// Authorization is a signed discount entitlement for Claimer.
// Expiry is the validity window in seconds.
type Authorization struct {
	Claimer   common.Address
	Expiry    uint64
	Signature []byte
	// Encoded is the 0x-prefixed ABI encoding of (address, uint256, bytes).
	Encoded string
}

// ClaimRecord is what the claim store keeps per idempotency key.
type ClaimRecord struct {
	Address       string `json:"address"`
	SignedMessage string `json:"signedMessage"`
}

// HeldBy reports whether the record was issued to addr.
func (r *ClaimRecord) HeldBy(addr common.Address) bool {
	return common.HexToAddress(r.Address) == addr
}

// ClaimResponse is the body returned to callers.
type ClaimResponse struct {
	LinkedAddresses []common.Address      `json:"linkedAddresses,omitempty"`
	SignedMessage   string                `json:"signedMessage,omitempty"`
	Attestations    []VerifiedAccountFact `json:"attestations"`
}

// IneligibleResponse is the response for an address without attestations.
func IneligibleResponse() *ClaimResponse {
	return &ClaimResponse{Attestations: []VerifiedAccountFact{}}
}
