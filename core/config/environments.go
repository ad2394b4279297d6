// Package config holds the protocol's deployment presets.
package config

import (
	"math/rand/v2"

	"github.com/rain-one/sdk-go/core/types"
	"github.com/rain-one/sdk-go/core/util"
)

// Environment names one protocol deployment.
type Environment string

const (
	Development Environment = "development"
	Stage       Environment = "stage"
	Production  Environment = "production"
)

// Preset is the fixed configuration of an Environment.
type Preset struct {
	APIURL               string
	MarketFactoryAddress util.EthereumAddress
}

var presets = map[Environment]Preset{
	Development: {
		APIURL:               "https://dev-api.rain.one",
		MarketFactoryAddress: util.MustNewEthereumAddressFromString("0x148DA7F2039B2B00633AC2ab566f59C8a4C86313"),
	},
	Stage: {
		APIURL:               "https://stg-api.rain.one",
		MarketFactoryAddress: util.MustNewEthereumAddressFromString("0x6109c9f28FE3Ad84c51368f7Ef2d487ca020c561"),
	},
	Production: {
		APIURL:               "https://prod-api.rain.one",
		MarketFactoryAddress: util.MustNewEthereumAddressFromString("0xccCB3C03D9355B01883779EF15C1Be09cf3623F1"),
	},
}

// DefaultRPCs are public Arbitrum One endpoints.
var DefaultRPCs = []string{
	"https://arb1.arbitrum.io/rpc",
	"https://arbitrum-one.publicnode.com",
	"https://rpc.sentio.xyz/arbitrum-one",
}

// Lookup returns the preset of env.
func Lookup(env Environment) (Preset, error) {
	p, ok := presets[env]
	if !ok {
		return Preset{}, types.ValidationErrorf("unknown environment %q, expected one of development, stage, production", env)
	}
	return p, nil
}

// RandomRPC picks one of DefaultRPCs.
func RandomRPC() string {
	return DefaultRPCs[rand.IntN(len(DefaultRPCs))]
}
