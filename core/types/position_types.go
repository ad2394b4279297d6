package types

import (
	"context"
	"math/big"

	"github.com/rain-one/sdk-go/core/util"
)

// ═══════════════════════════════════════════════════════════════
// INTERFACES
// ═══════════════════════════════════════════════════════════════

// IPositions reconstructs a wallet's live holdings from on-chain state.
type IPositions interface {
	// GetPositions scans the whole catalog and returns every market in which
	// the wallet holds liquidity, shares, or escrowed shares/funds.
	GetPositions(ctx context.Context, input GetPositionsInput) (*PositionsResult, error)

	// GetPositionByMarket returns the wallet's holding in one market, even if
	// it is empty.
	GetPositionByMarket(ctx context.Context, input GetPositionByMarketInput) (*MarketPosition, error)

	// GetLPPosition returns the wallet's liquidity-provider stake in one market.
	GetLPPosition(ctx context.Context, input GetLPPositionInput) (*LPPosition, error)
}

// ═══════════════════════════════════════════════════════════════
// INPUT TYPES
// ═══════════════════════════════════════════════════════════════

type GetPositionsInput struct {
	Address string `validate:"required,eth_addr"`
}

func (i GetPositionsInput) Validate() error {
	return validateStruct(i)
}

type GetPositionByMarketInput struct {
	Address  string `validate:"required,eth_addr"`
	MarketID string `validate:"required"`
}

func (i GetPositionByMarketInput) Validate() error {
	return validateStruct(i)
}

type GetLPPositionInput struct {
	Address  string `validate:"required,eth_addr"`
	MarketID string `validate:"required"`
}

func (i GetLPPositionInput) Validate() error {
	return validateStruct(i)
}

// ═══════════════════════════════════════════════════════════════
// RESULT TYPES
// ═══════════════════════════════════════════════════════════════

// OptionPosition is the wallet's holding in one option. All amounts are
// fixed-point integers in the market's base-token decimals.
type OptionPosition struct {
	ChoiceIndex    int
	OptionName     string
	Shares         *big.Int // held balance
	SharesInEscrow *big.Int // locked in open sell orders
	AmountInEscrow *big.Int // base token locked in open buy orders
	CurrentPrice   *big.Int
}

// HasExposure reports whether any of the wallet-owned quantities is positive.
// CurrentPrice is a market quote and does not count.
func (o OptionPosition) HasExposure() bool {
	return isPositive(o.Shares) || isPositive(o.SharesInEscrow) || isPositive(o.AmountInEscrow)
}

// MarketPosition is the wallet's aggregate holding in one market.
//
// DynamicPayout is the protocol's projected payout per option, indexed like
// Options; it may be shorter than Options (or empty) when the read failed.
type MarketPosition struct {
	MarketID        string
	Title           string
	Status          MarketStatus
	ContractAddress util.EthereumAddress
	Options         []OptionPosition
	UserLiquidity   *big.Int
	Claimed         bool
	DynamicPayout   []*big.Int
}

// HasPosition is the inclusion rule for GetPositions: liquidity, or exposure
// in at least one option. Claimed alone does not count.
func (m MarketPosition) HasPosition() bool {
	if isPositive(m.UserLiquidity) {
		return true
	}
	for _, o := range m.Options {
		if o.HasExposure() {
			return true
		}
	}
	return false
}

// PayoutFor returns the projected payout of option i, or zero when the
// payout vector does not cover it.
func (m MarketPosition) PayoutFor(i int) *big.Int {
	if i < 0 || i >= len(m.DynamicPayout) || m.DynamicPayout[i] == nil {
		return new(big.Int)
	}
	return m.DynamicPayout[i]
}

type PositionsResult struct {
	Address util.EthereumAddress
	Markets []MarketPosition
}

// LPPosition is a wallet's liquidity stake in one market.
type LPPosition struct {
	MarketID          string
	Title             string
	Status            MarketStatus
	ContractAddress   util.EthereumAddress
	UserLiquidity     *big.Int
	TotalLiquidity    *big.Int
	PoolShareBps      int64 // userLiquidity / totalLiquidity in basis points
	LiquidityShareBps int64 // protocol-configured LP fee share in basis points
}

func isPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
