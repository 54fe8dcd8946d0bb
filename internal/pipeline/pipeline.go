// Package pipeline orchestrates one discount claim: input validation,
// eligibility, identity resolution, claim lookup, signing and commit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/ppiankov/discountclaim/internal/attest"
	"github.com/ppiankov/discountclaim/internal/cache"
	"github.com/ppiankov/discountclaim/internal/claim"
	"github.com/ppiankov/discountclaim/internal/identity"
	"github.com/ppiankov/discountclaim/internal/model"
	"github.com/ppiankov/discountclaim/internal/signer"
	"github.com/ppiankov/discountclaim/internal/upstream"
)

// EligibilityResolver returns the verification facts held by an address.
type EligibilityResolver interface {
	Resolve(ctx context.Context, addr common.Address) ([]model.VerifiedAccountFact, error)
}

// IdentityResolver returns the linked-address group of an address.
type IdentityResolver interface {
	Resolve(ctx context.Context, addr common.Address) (model.IdentityGroup, error)
}

// ClaimStore persists one claim record per idempotency key.
type ClaimStore interface {
	Lookup(ctx context.Context, idempotencyKey string) (*model.ClaimRecord, error)
	Commit(ctx context.Context, idempotencyKey string, rec model.ClaimRecord, ttl time.Duration) (*model.ClaimRecord, error)
}

// Authorizer issues signed authorizations.
type Authorizer interface {
	Authorize(claimer common.Address) (model.Authorization, error)
	Expiry() uint64
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Eligibility EligibilityResolver
	Identity    IdentityResolver
	Claims      ClaimStore
	Signer      Authorizer
	Logger      zerolog.Logger
}

// Pipeline runs claims. It is safe for concurrent use.
type Pipeline struct {
	eligibility EligibilityResolver
	identity    IdentityResolver
	claims      ClaimStore
	signer      Authorizer
	log         zerolog.Logger

	// configErr, when set, fails every claim after input validation.
	configErr error
	closers   []io.Closer
}

// New creates a pipeline from explicit collaborators.
func New(deps Deps) *Pipeline {
	p := &Pipeline{
		eligibility: deps.Eligibility,
		identity:    deps.Identity,
		claims:      deps.Claims,
		signer:      deps.Signer,
		log:         deps.Logger,
	}
	if p.signer == nil {
		p.configErr = model.NewConfigError("signer is not configured", nil)
	}
	return p
}

// NewFromConfig wires the production collaborators described by cfg.
//
// It never fails: a configuration problem is kept and reported by ConfigErr
// and by every subsequent Claim, so callers decide whether to fail fast.
func NewFromConfig(cfg *model.Config, log zerolog.Logger) *Pipeline {
	p := &Pipeline{log: log}
	if err := p.wire(cfg); err != nil {
		p.configErr = err
		log.Error().Err(err).Str("kind", "config").Msg("pipeline configuration is invalid")
	}
	return p
}

func (p *Pipeline) wire(cfg *model.Config) error {
	network, err := model.ParseNetwork(cfg.Network)
	if err != nil {
		return err
	}

	s, err := signer.New(cfg.Signer.PrivateKey, cfg.Signer.Address, cfg.Claim.ExpirySeconds)
	if err != nil {
		return err
	}

	client := upstream.NewClient(cfg.HTTP, cfg.RateLimiting)

	endpoint := cfg.Attestations.Endpoint
	if endpoint == "" {
		endpoint = network.AttestationEndpoint()
	}
	eligibility, err := attest.NewResolver(
		attest.NewEASProvider(client, endpoint, network.ChainID()),
		network,
		cfg.Claim.VerifiedAccountSchema,
		cfg.Claim.VerifiedCB1AccountSchema,
	)
	if err != nil {
		return err
	}

	linker, err := identity.New(cfg.Identity, client)
	if err != nil {
		return err
	}

	kv, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	if closer, ok := kv.(io.Closer); ok {
		p.closers = append(p.closers, closer)
	}

	p.eligibility = eligibility
	p.identity = identity.NewResolver(linker)
	p.claims = claim.NewStore(kv)
	p.signer = s
	return nil
}

// ConfigErr returns the configuration error the pipeline was built with.
func (p *Pipeline) ConfigErr() error {
	return p.configErr
}

// Close releases store connections.
func (p *Pipeline) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Claim runs the claim flow for rawAddress.
//
// Errors are typed: *model.InputError, *model.ConflictError,
// *model.ConfigError or *model.UpstreamError. An address without
// attestations is not an error.
func (p *Pipeline) Claim(ctx context.Context, rawAddress string) (*model.ClaimResponse, error) {
	claimer, err := model.ParseAddress(rawAddress)
	if err != nil {
		return nil, err
	}

	if p.configErr != nil {
		p.log.Error().Err(p.configErr).Str("kind", "config").Str("address", claimer.Hex()).Msg("claim rejected")
		return nil, p.configErr
	}

	log := p.log.With().Str("address", claimer.Hex()).Logger()

	facts, err := p.eligibility.Resolve(ctx, claimer)
	if err != nil {
		return nil, p.upstreamFailure(log, "resolve attestations", err)
	}
	if len(facts) == 0 {
		log.Debug().Msg("address holds no verification attestations")
		return model.IneligibleResponse(), nil
	}

	group, err := p.identity.Resolve(ctx, claimer)
	if err != nil {
		return nil, p.upstreamFailure(log, "resolve identity", err)
	}
	log = log.With().Str("idempotency_key", group.IdempotencyKey).Logger()

	existing, err := p.claims.Lookup(ctx, group.IdempotencyKey)
	if err != nil {
		return nil, p.upstreamFailure(log, "lookup claim", err)
	}
	if existing != nil {
		return p.fromRecord(log, claimer, group, facts, existing)
	}

	auth, err := p.signer.Authorize(claimer)
	if err != nil {
		log.Error().Err(err).Str("kind", "sign").Msg("signing failed")
		return nil, fmt.Errorf("authorize %s: %w", claimer.Hex(), err)
	}

	rec := model.ClaimRecord{Address: claimer.Hex(), SignedMessage: auth.Encoded}
	ttl := time.Duration(p.signer.Expiry()) * time.Second

	winner, err := p.claims.Commit(ctx, group.IdempotencyKey, rec, ttl)
	switch {
	case errors.Is(err, claim.ErrAlreadyClaimed):
		log.Info().Str("claimed_by", winner.Address).Msg("lost concurrent claim race")
		return p.fromRecord(log, claimer, group, facts, winner)
	case err != nil:
		return nil, p.upstreamFailure(log, "commit claim", err)
	}

	log.Info().Uint64("expiry", auth.Expiry).Msg("authorization issued")
	return &model.ClaimResponse{
		LinkedAddresses: group.LinkedAddresses,
		SignedMessage:   auth.Encoded,
		Attestations:    facts,
	}, nil
}

// fromRecord applies the hit rules to an existing record.
func (p *Pipeline) fromRecord(log zerolog.Logger, claimer common.Address, group model.IdentityGroup, facts []model.VerifiedAccountFact, rec *model.ClaimRecord) (*model.ClaimResponse, error) {
	if !rec.HeldBy(claimer) {
		log.Info().Str("claimed_by", rec.Address).Msg("claim conflict")
		return nil, &model.ConflictError{IdempotencyKey: group.IdempotencyKey, ClaimedBy: rec.Address}
	}

	log.Debug().Msg("returning previously issued authorization")
	return &model.ClaimResponse{
		LinkedAddresses: group.LinkedAddresses,
		SignedMessage:   rec.SignedMessage,
		Attestations:    facts,
	}, nil
}

func (p *Pipeline) upstreamFailure(log zerolog.Logger, op string, err error) error {
	log.Error().Err(err).Str("kind", "upstream").Str("op", op).Msg("collaborator call failed")
	return model.NewUpstreamError(op, err)
}
