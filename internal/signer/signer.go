// Package signer holds the trusted signing key and turns claim hashes into
// ABI-encoded authorizations.
package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ppiankov/discountclaim/internal/message"
	"github.com/ppiankov/discountclaim/internal/model"
)

// SignatureLength is the size of an r||s||v signature.
const SignatureLength = crypto.SignatureLength

// authorizationArgs is the ABI tuple (address, uint256, bytes).
var authorizationArgs = mustArguments("address", "uint256", "bytes")

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}

// Signer signs discount authorizations with one long-lived key.
// It is safe for concurrent use; nothing is mutated after New.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	expiry  uint64
}

// New parses hexKey and returns a Signer issuing authorizations valid for
// expiry seconds. If wantAddress is non-empty it must match the key.
func New(hexKey, wantAddress string, expiry uint64) (*Signer, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, model.NewConfigError("signer private key is not set", nil)
	}
	if expiry == 0 {
		return nil, model.NewConfigError("claim expiry must be positive", nil)
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, model.NewConfigError("malformed signer private key", err)
	}

	addr := crypto.PubkeyToAddress(key.PublicKey)
	if wantAddress != "" {
		if !common.IsHexAddress(wantAddress) {
			return nil, model.NewConfigError(fmt.Sprintf("malformed signer address %q", wantAddress), nil)
		}
		if common.HexToAddress(wantAddress) != addr {
			return nil, model.NewConfigError(fmt.Sprintf("signer address %s does not match private key (%s)", wantAddress, addr.Hex()), nil)
		}
	}

	return &Signer{key: key, address: addr, expiry: expiry}, nil
}

// Address returns the signer's address.
func (s *Signer) Address() common.Address { return s.address }

// Expiry returns the validity window in seconds.
func (s *Signer) Expiry() uint64 { return s.expiry }

// Sign produces an EIP-191 personal signature over hash with v in {27, 28}.
func (s *Signer) Sign(hash common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(hash.Bytes()), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Authorize builds the signed authorization for claimer.
func (s *Signer) Authorize(claimer common.Address) (model.Authorization, error) {
	hash := message.Hash(s.address, claimer, s.expiry)
	sig, err := s.Sign(hash)
	if err != nil {
		return model.Authorization{}, err
	}

	encoded, err := Encode(claimer, s.expiry, sig)
	if err != nil {
		return model.Authorization{}, err
	}

	return model.Authorization{
		Claimer:   claimer,
		Expiry:    s.expiry,
		Signature: sig,
		Encoded:   encoded,
	}, nil
}

// Encode ABI-encodes (claimer, expiry, signature) as a 0x-prefixed hex string.
func Encode(claimer common.Address, expiry uint64, sig []byte) (string, error) {
	packed, err := authorizationArgs.Pack(claimer, new(big.Int).SetUint64(expiry), sig)
	if err != nil {
		return "", fmt.Errorf("abi encode authorization: %w", err)
	}
	return hexutil.Encode(packed), nil
}

// Decode parses an encoded authorization.
func Decode(encoded string) (model.Authorization, error) {
	raw, err := hexutil.Decode(encoded)
	if err != nil {
		return model.Authorization{}, fmt.Errorf("decode hex: %w", err)
	}

	values, err := authorizationArgs.Unpack(raw)
	if err != nil {
		return model.Authorization{}, fmt.Errorf("abi decode authorization: %w", err)
	}
	if len(values) != 3 {
		return model.Authorization{}, fmt.Errorf("abi decode authorization: expected 3 values, got %d", len(values))
	}

	claimer, ok1 := values[0].(common.Address)
	expiry, ok2 := values[1].(*big.Int)
	sig, ok3 := values[2].([]byte)
	if !ok1 || !ok2 || !ok3 {
		return model.Authorization{}, errors.New("abi decode authorization: unexpected value types")
	}
	if !expiry.IsUint64() {
		return model.Authorization{}, errors.New("abi decode authorization: expiry overflows uint64")
	}

	return model.Authorization{
		Claimer:   claimer,
		Expiry:    expiry.Uint64(),
		Signature: sig,
		Encoded:   encoded,
	}, nil
}

// Recover returns the address that signed auth, assuming it was produced by a
// signer whose address is claimedSigner. The message hash binds the signer's
// address, so a mismatch recovers a different (random) address.
func Recover(auth model.Authorization, claimedSigner common.Address) (common.Address, error) {
	if len(auth.Signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("signature has invalid length: expected %d, got %d", SignatureLength, len(auth.Signature))
	}

	sig := make([]byte, SignatureLength)
	copy(sig, auth.Signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	hash := message.Hash(claimedSigner, auth.Claimer, auth.Expiry)
	pub, err := crypto.SigToPub(accounts.TextHash(hash.Bytes()), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify reports whether auth carries a valid signature by signer.
func Verify(auth model.Authorization, signer common.Address) bool {
	got, err := Recover(auth, signer)
	return err == nil && got == signer
}
