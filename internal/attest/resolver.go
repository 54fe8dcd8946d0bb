// Package attest decides eligibility from on-chain verification attestations.
package attest

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ppiankov/discountclaim/internal/model"
)

// Provider looks up attestations for a recipient under the given schemas.
type Provider interface {
	Fetch(ctx context.Context, recipient common.Address, chainID int64, schemas []common.Hash) ([]model.RawAttestation, error)
}

var schemaIDPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ParseSchemaID validates a 32-byte hex schema identifier.
func ParseSchemaID(s string) (common.Hash, error) {
	if !schemaIDPattern.MatchString(s) {
		return common.Hash{}, model.NewConfigError(fmt.Sprintf("malformed schema id %q", s), nil)
	}
	return common.HexToHash(s), nil
}

// Resolver returns the verified-account facts for an address.
type Resolver struct {
	provider Provider
	chainID  int64
	schemas  []common.Hash
	now      func() time.Time
}

// NewResolver validates both schema identifiers up front.
func NewResolver(provider Provider, network model.Network, verifiedAccountSchema, verifiedCB1Schema string) (*Resolver, error) {
	account, err := ParseSchemaID(verifiedAccountSchema)
	if err != nil {
		return nil, err
	}
	cb1, err := ParseSchemaID(verifiedCB1Schema)
	if err != nil {
		return nil, err
	}

	return &Resolver{
		provider: provider,
		chainID:  network.ChainID(),
		schemas:  []common.Hash{account, cb1},
		now:      time.Now,
	}, nil
}

// Resolve returns the decoded facts of every live attestation held by addr.
// An empty, non-nil slice means the address is not eligible.
func (r *Resolver) Resolve(ctx context.Context, addr common.Address) ([]model.VerifiedAccountFact, error) {
	raw, err := r.provider.Fetch(ctx, addr, r.chainID, r.schemas)
	if err != nil {
		return nil, fmt.Errorf("fetch attestations: %w", err)
	}

	facts := []model.VerifiedAccountFact{}
	now := r.now().Unix()
	for _, a := range raw {
		if a.Revoked || (a.ExpirationTime > 0 && a.ExpirationTime <= now) {
			continue
		}
		decoded, err := DecodeFacts(a.DecodedDataJSON)
		if err != nil {
			return nil, fmt.Errorf("attestation %s: %w", a.ID, err)
		}
		facts = append(facts, decoded...)
	}
	return facts, nil
}
