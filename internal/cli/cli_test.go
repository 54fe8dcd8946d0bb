package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/discountclaim/internal/model"
	"github.com/ppiankov/discountclaim/internal/signer"
	"github.com/ppiankov/discountclaim/internal/worker"
)

const (
	testKey        = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testSignerAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testClaimer    = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func TestSetDefaults_EnvOverridesNestedKeys(t *testing.T) {
	t.Setenv("DISCOUNTCLAIM_SIGNER_PRIVATE_KEY", "deadbeef")
	t.Setenv("DISCOUNTCLAIM_SERVER_ADDR", ":9999")
	t.Setenv("DISCOUNTCLAIM_CLAIM_EXPIRY_SECONDS", "600")

	v := viper.New()
	require.NoError(t, setDefaults(v, model.DefaultConfig()))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := model.DefaultConfig()
	require.NoError(t, v.Unmarshal(cfg))

	assert.Equal(t, "deadbeef", cfg.Signer.PrivateKey)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, uint64(600), cfg.Claim.ExpirySeconds)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, model.DefaultVerifiedAccountSchema, cfg.Claim.VerifiedAccountSchema)
}

func TestRedact(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Signer.PrivateKey = testKey
	cfg.Identity.APIKey = "secret"

	out := redact(cfg)
	assert.Equal(t, "********", out.Signer.PrivateKey)
	assert.Equal(t, "********", out.Identity.APIKey)
	assert.Empty(t, out.Cache.RedisPassword)
	assert.Equal(t, testKey, cfg.Signer.PrivateKey, "original must not change")
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "DISCOUNTCLAIM_SIGNER_PRIVATE_KEY")

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(raw, &cfg))
	assert.Equal(t, *model.DefaultConfig(), cfg)

	assert.Error(t, writeDefaultConfig(path), "existing file must not be overwritten")
}

func TestWriteBatchResults(t *testing.T) {
	results := []*worker.ClaimResult{
		{Address: "0x1", Response: &model.ClaimResponse{SignedMessage: "0xab", Attestations: []model.VerifiedAccountFact{}}},
		{Address: "nope", Error: model.NewInputError("invalid address")},
		{Address: "0x2", Error: model.NewUpstreamError("resolve attestations", errors.New("down"))},
	}

	var buf bytes.Buffer
	require.NoError(t, writeBatchResults(&buf, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var first, second, third batchLine
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &third))

	assert.Equal(t, 200, first.Status)
	assert.Equal(t, "authorized", first.Outcome)
	assert.Equal(t, 400, second.Status)
	assert.Equal(t, "invalid", second.Outcome)
	assert.Equal(t, 500, third.Status)
	assert.Nil(t, third.Response)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, worker.Summary{"authorized": 2, "conflict": 1}, 3)

	out := buf.String()
	assert.Contains(t, out, "Total:       3 addresses")
	assert.Less(t, strings.Index(out, "authorized"), strings.Index(out, "conflict"))
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVerifyCommand(t *testing.T) {
	s, err := signer.New(testKey, testSignerAddr, model.DefaultExpirySeconds)
	require.NoError(t, err)
	auth, err := s.Authorize(common.HexToAddress(testClaimer))
	require.NoError(t, err)

	out, err := runRoot(t, "verify", testClaimer, auth.Encoded, "--signer", testSignerAddr)
	require.NoError(t, err)
	assert.Contains(t, out, "recovered: "+testSignerAddr)
	assert.Contains(t, out, "✓ valid")

	_, err = runRoot(t, "verify", testSignerAddr, auth.Encoded, "--signer", testSignerAddr)
	assert.ErrorContains(t, err, "was issued to")

	_, err = runRoot(t, "verify", testClaimer, auth.Encoded, "--signer", testClaimer)
	assert.ErrorContains(t, err, "not produced by")

	_, err = runRoot(t, "verify", testClaimer, "0xzz", "--signer", testSignerAddr)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}
