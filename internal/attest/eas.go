package attest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ppiankov/discountclaim/internal/model"
	"github.com/ppiankov/discountclaim/internal/upstream"
)

const attestationsQuery = `query Attestations($where: AttestationWhereInput) {
  attestations(where: $where) {
    id
    schemaId
    recipient
    attester
    revoked
    expirationTime
    decodedDataJson
  }
}`

// EASProvider queries an Ethereum Attestation Service GraphQL indexer.
type EASProvider struct {
	client   *upstream.Client
	endpoint string
	chainID  int64
}

// NewEASProvider creates a provider bound to one chain's indexer endpoint.
func NewEASProvider(client *upstream.Client, endpoint string, chainID int64) *EASProvider {
	return &EASProvider{client: client, endpoint: endpoint, chainID: chainID}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type attestationsResponse struct {
	Data struct {
		Attestations []model.RawAttestation `json:"attestations"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// Fetch returns the non-revoked attestations for recipient under schemas.
func (p *EASProvider) Fetch(ctx context.Context, recipient common.Address, chainID int64, schemas []common.Hash) ([]model.RawAttestation, error) {
	if chainID != p.chainID {
		return nil, fmt.Errorf("eas endpoint serves chain %d, requested %d", p.chainID, chainID)
	}

	ids := make([]string, len(schemas))
	for i, s := range schemas {
		ids[i] = s.Hex()
	}

	req := graphQLRequest{
		Query: attestationsQuery,
		Variables: map[string]any{
			"where": map[string]any{
				"recipient": map[string]any{"equals": recipient.Hex()},
				"schemaId":  map[string]any{"in": ids},
				"revoked":   map[string]any{"equals": false},
			},
		},
	}

	var resp attestationsResponse
	if err := p.client.Do(ctx, upstream.Request{Method: http.MethodPost, URL: p.endpoint, Body: req}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return nil, errors.New("eas query: " + strings.Join(msgs, "; "))
	}

	return resp.Data.Attestations, nil
}
