package message

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	signerAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	claimerAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestEncode_Layout(t *testing.T) {
	b := Encode(signerAddr, claimerAddr, 300)
	require.Len(t, b, Length)

	assert.Equal(t, []byte{0x19, 0x00}, b[:2])
	assert.Equal(t, signerAddr.Bytes(), b[2:22])
	assert.Equal(t, claimerAddr.Bytes(), b[22:42])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0x01, 0x2c}, b[42:])
}

func TestHash_Deterministic(t *testing.T) {
	h1 := Hash(signerAddr, claimerAddr, 300)
	h2 := Hash(signerAddr, claimerAddr, 300)
	assert.Equal(t, h1, h2)
	assert.Equal(t, crypto.Keccak256Hash(Encode(signerAddr, claimerAddr, 300)), h1)
}

func TestHash_EachFieldMatters(t *testing.T) {
	base := Hash(signerAddr, claimerAddr, 300)
	other := common.HexToAddress("0x3333333333333333333333333333333333333333")

	assert.NotEqual(t, base, Hash(other, claimerAddr, 300), "signer")
	assert.NotEqual(t, base, Hash(signerAddr, other, 300), "claimer")
	assert.NotEqual(t, base, Hash(signerAddr, claimerAddr, 301), "expiry")
	assert.NotEqual(t, base, Hash(claimerAddr, signerAddr, 300), "order")
}
