package types

import (
	"context"
	"math/big"

	"github.com/rain-one/sdk-go/core/util"
)

// IPortfolio values a wallet: token balances plus projected market payouts.
type IPortfolio interface {
	GetPortfolioValue(ctx context.Context, input GetPortfolioValueInput) (*PortfolioValue, error)
}

type GetPortfolioValueInput struct {
	Address        string   `validate:"required,eth_addr"`
	TokenAddresses []string `validate:"required,min=1,dive,eth_addr"`
}

func (i GetPortfolioValueInput) Validate() error {
	return validateStruct(i)
}

// TokenBalance is one ERC-20 balance. Decimals defaults to 18 and Symbol to
// "UNKNOWN" when the token does not answer.
type TokenBalance struct {
	TokenAddress     util.EthereumAddress
	Symbol           string
	Decimals         uint8
	Balance          *big.Int
	FormattedBalance string
}

type MarketPositionValue struct {
	MarketID           string
	Title              string
	Status             MarketStatus
	ContractAddress    util.EthereumAddress
	DynamicPayout      []*big.Int
	TotalPositionValue *big.Int
}

type PortfolioValue struct {
	Address                util.EthereumAddress
	NativeBalance          *big.Int
	FormattedNativeBalance string
	TokenBalances          []TokenBalance
	Positions              []MarketPositionValue
	TotalPositionValue     *big.Int
}
