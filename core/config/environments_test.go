package config

import (
	"testing"

	"github.com/rain-one/sdk-go/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, env := range []Environment{Development, Stage, Production} {
		p, err := Lookup(env)
		require.NoError(t, err, env)
		assert.NotEmpty(t, p.APIURL)
		assert.False(t, p.MarketFactoryAddress.IsZero())
	}
	p, _ := Lookup(Production)
	assert.Equal(t, "https://prod-api.rain.one", p.APIURL)

	_, err := Lookup("mainnet")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestRandomRPC(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Contains(t, DefaultRPCs, RandomRPC())
	}
}
