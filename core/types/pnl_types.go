package types

import (
	"context"
	"math/big"

	"github.com/rain-one/sdk-go/core/util"
)

// ═══════════════════════════════════════════════════════════════
// INTERFACES
// ═══════════════════════════════════════════════════════════════

// IPnL computes a wallet's profit and loss by replaying its trade history
// against live on-chain state.
type IPnL interface {
	GetPnL(ctx context.Context, input GetPnLInput) (*PnLResult, error)
}

// GetPnLInput restricts the computation to one market when MarketAddress is set.
type GetPnLInput struct {
	Address       string `validate:"required,eth_addr"`
	MarketAddress string `validate:"omitempty,eth_addr"`
}

func (i GetPnLInput) Validate() error {
	return validateStruct(i)
}

// ═══════════════════════════════════════════════════════════════
// CLASSIFICATION
// ═══════════════════════════════════════════════════════════════

// TradeDirection is the effect of one event on the wallet's books.
type TradeDirection string

const (
	DirectionBuy          TradeDirection = "buy"
	DirectionSell         TradeDirection = "sell"
	DirectionClaim        TradeDirection = "claim"
	DirectionAddLiquidity TradeDirection = "add_liquidity"
	// DirectionIgnore covers events that do not touch cost basis (order
	// placement, cancellation) and fills the wallet was not party to.
	DirectionIgnore TradeDirection = "ignore"
)

// SnapshotKind tells whether a market's PnL was computed against live
// on-chain state or against a synthetic all-zero stub for a market the
// wallet has fully exited.
type SnapshotKind string

const (
	SnapshotLive     SnapshotKind = "live"
	SnapshotExitStub SnapshotKind = "exit_stub"
)

// ═══════════════════════════════════════════════════════════════
// RESULT TYPES
// ═══════════════════════════════════════════════════════════════

// OptionPnL is the cost-basis accounting of one option. All values are
// integers in the market's base-token decimals.
type OptionPnL struct {
	ChoiceIndex   int
	OptionName    string
	BuyShares     *big.Int
	BuyCost       *big.Int
	SellShares    *big.Int
	SellProceeds  *big.Int
	CurrentShares *big.Int
	CurrentValue  *big.Int // projected payout from the live snapshot
	CostBasis     *big.Int // remaining cost basis of still-held shares
	RealizedPnL   *big.Int // from sells only; claims realise at market level
	UnrealizedPnL *big.Int
	Formatted     *OptionPnLFormatted
}

type OptionPnLFormatted struct {
	BuyCost       string
	SellProceeds  string
	CurrentValue  string
	CostBasis     string
	RealizedPnL   string
	UnrealizedPnL string
}

// MarketPnL aggregates one market. RealizedPnL + UnrealizedPnL == TotalPnL.
type MarketPnL struct {
	MarketID          string
	Title             string
	Status            MarketStatus
	ContractAddress   util.EthereumAddress
	Source            SnapshotKind
	BaseTokenDecimals *uint8 // nil when the decimals read failed
	Options           []OptionPnL
	Claimed           bool
	ClaimReward       *big.Int
	LiquidityCost     *big.Int
	LiquidityReward   *big.Int
	TotalCostBasis    *big.Int
	TotalCurrentValue *big.Int
	RealizedPnL       *big.Int
	UnrealizedPnL     *big.Int
	TotalPnL          *big.Int
	EventsReplayed    int
	Formatted         *MarketPnLFormatted
}

type MarketPnLFormatted struct {
	ClaimReward       string
	LiquidityCost     string
	LiquidityReward   string
	TotalCostBasis    string
	TotalCurrentValue string
	RealizedPnL       string
	UnrealizedPnL     string
	TotalPnL          string
}

// PnLResult is the wallet-level sum over markets.
type PnLResult struct {
	Address            util.EthereumAddress
	Markets            []MarketPnL
	TotalRealizedPnL   *big.Int
	TotalUnrealizedPnL *big.Int
	TotalPnL           *big.Int
	// Formatted is set only when every market shares one known decimals value.
	Formatted *PnLFormatted
}

type PnLFormatted struct {
	TotalRealizedPnL   string
	TotalUnrealizedPnL string
	TotalPnL           string
}
