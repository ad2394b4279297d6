package util

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// EthereumAddress is a validated 20-byte account or contract address.
type EthereumAddress struct {
	addr common.Address
}

// NewEthereumAddressFromString parses a 0x-prefixed, 40 hex digit address.
// Checksum casing is not enforced.
func NewEthereumAddressFromString(s string) (EthereumAddress, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) || !strings.HasPrefix(strings.ToLower(s), "0x") {
		return EthereumAddress{}, errors.Errorf("invalid ethereum address: %q", s)
	}
	return EthereumAddress{addr: common.HexToAddress(s)}, nil
}

// MustNewEthereumAddressFromString is like NewEthereumAddressFromString but panics on error.
func MustNewEthereumAddressFromString(s string) EthereumAddress {
	a, err := NewEthereumAddressFromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// NewEthereumAddress wraps an already decoded address.
func NewEthereumAddress(a common.Address) EthereumAddress {
	return EthereumAddress{addr: a}
}

// Address returns the lowercase hex representation, the form upstream
// indexers key their records by.
func (e EthereumAddress) Address() string {
	return strings.ToLower(e.addr.Hex())
}

// Hex returns the EIP-55 checksummed representation.
func (e EthereumAddress) Hex() string {
	return e.addr.Hex()
}

func (e EthereumAddress) String() string {
	return e.Hex()
}

// Common returns the go-ethereum representation, for ABI packing.
func (e EthereumAddress) Common() common.Address {
	return e.addr
}

func (e EthereumAddress) IsZero() bool {
	return e.addr == (common.Address{})
}

// Equal compares addresses byte-wise, so casing differences never matter.
func (e EthereumAddress) Equal(other EthereumAddress) bool {
	return e.addr == other.addr
}

// Short returns the first 10 characters of the lowercase form, e.g. "0x1234abcd".
func (e EthereumAddress) Short() string {
	return e.Address()[:10]
}
