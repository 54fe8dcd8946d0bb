package upstream

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"

	"github.com/ppiankov/discountclaim/internal/model"
)

// proxyFunc returns the transport proxy selector. Configured values replace
// the matching HTTP_PROXY / HTTPS_PROXY / NO_PROXY environment variables.
func proxyFunc(cfg model.HTTPConfig) func(*http.Request) (*url.URL, error) {
	pc := httpproxy.FromEnvironment()
	if cfg.HTTPProxy != "" {
		pc.HTTPProxy = cfg.HTTPProxy
	}
	if cfg.HTTPSProxy != "" {
		pc.HTTPSProxy = cfg.HTTPSProxy
	}
	if cfg.NoProxy != "" {
		pc.NoProxy = cfg.NoProxy
	}

	fn := pc.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return fn(req.URL)
	}
}
