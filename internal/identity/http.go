package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ppiankov/discountclaim/internal/model"
	"github.com/ppiankov/discountclaim/internal/upstream"
)

// HTTPLinker asks a remote linking service for an address's group.
//
//	GET {baseURL}/linked-addresses?address=0x...
//	{"linkedAddresses": ["0x..."], "idempotencyKey": "..."}
type HTTPLinker struct {
	client  *upstream.Client
	baseURL string
	apiKey  string
}

// NewHTTPLinker creates a linker for the service at baseURL.
func NewHTTPLinker(client *upstream.Client, baseURL, apiKey string) *HTTPLinker {
	return &HTTPLinker{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type linkedAddressesResponse struct {
	LinkedAddresses []string `json:"linkedAddresses"`
	IdempotencyKey  string   `json:"idempotencyKey"`
}

// Resolve implements Linker.
func (l *HTTPLinker) Resolve(ctx context.Context, addr common.Address) (model.IdentityGroup, error) {
	req := upstream.Request{
		Method: http.MethodGet,
		URL:    l.baseURL + "/linked-addresses?address=" + url.QueryEscape(addr.Hex()),
	}
	if l.apiKey != "" {
		req.Headers = map[string]string{"Authorization": "Bearer " + l.apiKey}
	}

	var resp linkedAddressesResponse
	if err := l.client.Do(ctx, req, &resp); err != nil {
		return model.IdentityGroup{}, err
	}

	linked := make([]common.Address, 0, len(resp.LinkedAddresses))
	for _, a := range resp.LinkedAddresses {
		if !common.IsHexAddress(a) {
			return model.IdentityGroup{}, fmt.Errorf("identity provider returned invalid address %q", a)
		}
		linked = append(linked, common.HexToAddress(a))
	}

	return model.IdentityGroup{
		IdempotencyKey:  resp.IdempotencyKey,
		LinkedAddresses: linked,
	}, nil
}
