package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEthereumAddressFromString(t *testing.T) {
	a, err := NewEthereumAddressFromString(" 0x5A0E6B7E4A5E0B2E6B3E6C5F1F4C3B2A1D0E9F8A ")
	require.NoError(t, err)
	b := MustNewEthereumAddressFromString("0x5a0e6b7e4a5e0b2e6b3e6c5f1f4c3b2a1d0e9f8a")
	assert.True(t, a.Equal(b), "case is ignored")
	assert.Equal(t, "0x5a0e6b7e4a5e0b2e6b3e6c5f1f4c3b2a1d0e9f8a", a.Address())
	assert.Equal(t, "0x5a0e6b7e", a.Short())
	assert.Equal(t, a.Hex(), a.String())
	assert.False(t, a.IsZero())
	assert.True(t, EthereumAddress{}.IsZero())

	for _, bad := range []string{"", "0x12", "5a0e6b7e4a5e0b2e6b3e6c5f1f4c3b2a1d0e9f8a", "0xzz0e6b7e4a5e0b2e6b3e6c5f1f4c3b2a1d0e9f8a"} {
		_, err := NewEthereumAddressFromString(bad)
		assert.Error(t, err, bad)
	}
	assert.Panics(t, func() { MustNewEthereumAddressFromString("nope") })
}

func TestUniqueAddresses(t *testing.T) {
	a := MustNewEthereumAddressFromString("0x0000000000000000000000000000000000000001")
	b := MustNewEthereumAddressFromString("0x0000000000000000000000000000000000000002")
	got := UniqueAddresses([]EthereumAddress{b, a, b, a})
	assert.Equal(t, []EthereumAddress{b, a}, got)
	assert.Equal(t, []string{b.Address(), a.Address()}, EthereumAddressesToStrings(got))
}
