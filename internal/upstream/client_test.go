package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/discountclaim/internal/model"
)

func newClient() *Client {
	return NewClient(model.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test-agent", MaxBodyBytes: 1 << 20},
		model.RateLimitingConfig{RequestsPerSecond: 100, BurstSize: 10})
}

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ping", in["q"])

		_, _ = w.Write([]byte(`{"answer":"pong"}`))
	}))
	defer server.Close()

	var out struct {
		Answer string `json:"answer"`
	}
	err := newClient().Do(context.Background(), Request{
		Method:  http.MethodPost,
		URL:     server.URL,
		Headers: map[string]string{"Authorization": "Bearer k"},
		Body:    map[string]string{"q": "ping"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "pong", out.Answer)
}

func TestClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := newClient().Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL}, nil)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, "unexpected status: 503 Service Unavailable", err.Error())
}

func TestClient_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	var out map[string]any
	err := newClient().Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL}, &out)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "decode response"))
}

func TestClient_BodyLimit(t *testing.T) {
	bodies := map[string]string{
		"/fits": `{"a":"01234567"}`,
		"/over": `{"a":"012345678"}`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(bodies[r.URL.Path]))
	}))
	defer server.Close()

	c := NewClient(model.HTTPConfig{Timeout: 5 * time.Second, MaxBodyBytes: 16},
		model.RateLimitingConfig{RequestsPerSecond: 100, BurstSize: 10})

	var out map[string]string
	err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL + "/fits"}, &out)
	require.NoError(t, err, "a body of exactly the limit must decode")
	assert.Equal(t, "01234567", out["a"])

	err = c.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL + "/over"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response exceeds 16 bytes")
	assert.NotContains(t, err.Error(), "decode response")
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := newClient().Do(ctx, Request{Method: http.MethodGet, URL: server.URL}, nil)
	assert.Error(t, err)
}

func TestProxyFunc(t *testing.T) {
	fn := proxyFunc(model.HTTPConfig{
		HTTPProxy:  "http://proxy.internal:3128",
		HTTPSProxy: "http://tls-proxy.internal:3128",
		NoProxy:    "identity.internal",
	})

	get := func(raw string) string {
		req, err := http.NewRequest(http.MethodGet, raw, nil)
		require.NoError(t, err)
		u, err := fn(req)
		require.NoError(t, err)
		if u == nil {
			return ""
		}
		return u.Host
	}

	assert.Equal(t, "proxy.internal:3128", get("http://base.easscan.org/graphql"))
	assert.Equal(t, "tls-proxy.internal:3128", get("https://base.easscan.org/graphql"))
	assert.Empty(t, get("https://identity.internal/linked-addresses"))
	assert.Empty(t, get("http://127.0.0.1:8080/"), "loopback is never proxied")
}
