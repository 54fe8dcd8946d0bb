// Package message builds the byte sequence the trusted signer signs for a
// discount claim.
package message

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Prefix is the EIP-191 version 0x00 header ("data with intended validator").
var Prefix = [2]byte{0x19, 0x00}

// Length is the size of an encoded message.
const Length = len(Prefix) + common.AddressLength*2 + 8

// Encode packs prefix ‖ signer ‖ claimer ‖ expiry (uint64, big-endian).
func Encode(signer, claimer common.Address, expiry uint64) []byte {
	buf := make([]byte, 0, Length)
	buf = append(buf, Prefix[:]...)
	buf = append(buf, signer.Bytes()...)
	buf = append(buf, claimer.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, expiry)
	return buf
}

// Hash returns keccak256(Encode(signer, claimer, expiry)).
func Hash(signer, claimer common.Address, expiry uint64) common.Hash {
	return crypto.Keccak256Hash(Encode(signer, claimer, expiry))
}
