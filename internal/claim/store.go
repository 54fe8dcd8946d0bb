// Package claim keeps at most one issued authorization per identity group.
//
// A record moves from absent to claimed on the first successful commit and
// stays claimed until its TTL, which equals the authorization's validity
// window, elapses. Records are never updated in place.
//
// Commit uses the store's set-if-absent primitive, so two concurrent first
// claims for one group cannot both be stored: the loser receives the winning
// record together with ErrAlreadyClaimed.
package claim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/discountclaim/internal/cache"
	"github.com/ppiankov/discountclaim/internal/model"
)

// ErrAlreadyClaimed is returned by Commit when the key already holds a record.
var ErrAlreadyClaimed = errors.New("identity group already holds a claim")

// KeyPrefix namespaces claim records in the shared store.
const KeyPrefix = "claims:"

// Key returns the store key for an idempotency key.
func Key(idempotencyKey string) string {
	return KeyPrefix + idempotencyKey
}

// Store is the claim cache.
type Store struct {
	kv cache.Cache
}

// NewStore wraps a key/value backend.
func NewStore(kv cache.Cache) *Store {
	return &Store{kv: kv}
}

// Lookup returns the live record for idempotencyKey, or nil when absent.
func (s *Store) Lookup(ctx context.Context, idempotencyKey string) (*model.ClaimRecord, error) {
	raw, found, err := s.kv.Get(ctx, Key(idempotencyKey))
	if err != nil {
		return nil, fmt.Errorf("lookup claim: %w", err)
	}
	if !found {
		return nil, nil
	}

	var rec model.ClaimRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode claim record: %w", err)
	}
	return &rec, nil
}

// Commit stores rec for idempotencyKey with the given ttl if no record exists.
// When another record is already present it is returned with ErrAlreadyClaimed.
func (s *Store) Commit(ctx context.Context, idempotencyKey string, rec model.ClaimRecord, ttl time.Duration) (*model.ClaimRecord, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("commit claim: ttl must be positive, got %v", ttl)
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode claim record: %w", err)
	}

	added, err := s.kv.Add(ctx, Key(idempotencyKey), raw, ttl)
	if err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	if added {
		return &rec, nil
	}

	existing, err := s.Lookup(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// Expired between Add and Lookup; the caller may retry.
		return nil, fmt.Errorf("commit claim: record for %q vanished during commit", idempotencyKey)
	}
	return existing, ErrAlreadyClaimed
}
