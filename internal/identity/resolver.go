// Package identity maps a claimer address to the group of addresses linked
// to the same person and a stable idempotency key for that group.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ppiankov/discountclaim/internal/model"
	"github.com/ppiankov/discountclaim/internal/upstream"
)

// Linker is an identity-linking provider.
type Linker interface {
	Resolve(ctx context.Context, addr common.Address) (model.IdentityGroup, error)
}

// ErrNoIdempotencyKey is returned when the provider omits the key.
var ErrNoIdempotencyKey = errors.New("identity provider returned no idempotency key")

// Resolver normalises provider output.
type Resolver struct {
	linker Linker
}

// NewResolver wraps linker.
func NewResolver(linker Linker) *Resolver {
	return &Resolver{linker: linker}
}

// Resolve returns claimer's group with the claimer first and no duplicates.
func (r *Resolver) Resolve(ctx context.Context, claimer common.Address) (model.IdentityGroup, error) {
	group, err := r.linker.Resolve(ctx, claimer)
	if err != nil {
		return model.IdentityGroup{}, fmt.Errorf("resolve linked addresses: %w", err)
	}
	if strings.TrimSpace(group.IdempotencyKey) == "" {
		return model.IdentityGroup{}, ErrNoIdempotencyKey
	}

	linked := make([]common.Address, 0, len(group.LinkedAddresses)+1)
	linked = append(linked, claimer)
	seen := map[common.Address]struct{}{claimer: {}}
	for _, a := range group.LinkedAddresses {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		linked = append(linked, a)
	}

	return model.IdentityGroup{
		IdempotencyKey:  group.IdempotencyKey,
		LinkedAddresses: linked,
	}, nil
}

// New builds the linker selected by cfg.
func New(cfg model.IdentityConfig, client *upstream.Client) (Linker, error) {
	switch strings.ToLower(cfg.Provider) {
	case "http":
		if cfg.BaseURL == "" {
			return nil, model.NewConfigError("identity.base_url is required for the http provider", nil)
		}
		return NewHTTPLinker(client, cfg.BaseURL, cfg.APIKey), nil
	case "", "static":
		return NewStaticLinker(cfg.Groups)
	default:
		return nil, model.NewConfigError(fmt.Sprintf("unknown identity provider %q (supported: http, static)", cfg.Provider), nil)
	}
}
