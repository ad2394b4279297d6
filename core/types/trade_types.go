package types

import (
	"context"
	"math/big"
	"time"

	"github.com/golang-sql/civil"
	"github.com/rain-one/sdk-go/core/util"
)

// ═══════════════════════════════════════════════════════════════
// INTERFACES
// ═══════════════════════════════════════════════════════════════

// ITradeLedger reads the append-only trade event log (subgraph).
type ITradeLedger interface {
	// GetTransactions returns a window (First/Skip) of a wallet's events.
	GetTransactions(ctx context.Context, input GetTransactionsInput) (*TransactionsResult, error)

	// GetTradeHistory returns a wallet's complete event history, oldest first.
	GetTradeHistory(ctx context.Context, input TradeHistoryInput) (*TransactionsResult, error)
}

// ═══════════════════════════════════════════════════════════════
// EVENT TYPES
// ═══════════════════════════════════════════════════════════════

// TradeEventType is the closed set of ledger event kinds.
type TradeEventType string

const (
	TradeEventBuy             TradeEventType = "buy"
	TradeEventLimitBuyPlaced  TradeEventType = "limit_buy_placed"
	TradeEventLimitSellPlaced TradeEventType = "limit_sell_placed"
	TradeEventLimitBuyFilled  TradeEventType = "limit_buy_filled"
	TradeEventLimitSellFilled TradeEventType = "limit_sell_filled"
	TradeEventCancelBuy       TradeEventType = "cancel_buy"
	TradeEventCancelSell      TradeEventType = "cancel_sell"
	TradeEventAddLiquidity    TradeEventType = "add_liquidity"
	TradeEventClaim           TradeEventType = "claim"
)

// AllTradeEventTypes enumerates every TradeEventType. It is an array so that
// its length is a compile-time constant.
var AllTradeEventTypes = [...]TradeEventType{
	TradeEventBuy,
	TradeEventLimitBuyPlaced,
	TradeEventLimitSellPlaced,
	TradeEventLimitBuyFilled,
	TradeEventLimitSellFilled,
	TradeEventCancelBuy,
	TradeEventCancelSell,
	TradeEventAddLiquidity,
	TradeEventClaim,
}

// PnLEventTypes are the event kinds that move cost basis or realise value.
var PnLEventTypes = []TradeEventType{
	TradeEventBuy,
	TradeEventLimitBuyFilled,
	TradeEventLimitSellFilled,
	TradeEventClaim,
	TradeEventAddLiquidity,
}

func (t TradeEventType) Valid() bool {
	for _, known := range AllTradeEventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// OrderDirection orders ledger results by time.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

// TradeEvent is one immutable ledger row. Optional fields are nil when the
// event kind does not carry them (e.g. Option on a claim).
type TradeEvent struct {
	Type            TradeEventType
	ID              string
	MarketAddress   util.EthereumAddress
	TransactionHash string
	BlockNumber     uint64
	Timestamp       int64
	Wallet          util.EthereumAddress

	// Trading fields
	Option       *int
	BaseAmount   *big.Int
	OptionAmount *big.Int
	Price        *big.Int
	OrderID      *int64

	// Order execution fields, zero when absent
	Maker util.EthereumAddress
	Taker util.EthereumAddress

	// Claim fields
	WinnerOption    *int
	Reward          *big.Int
	LiquidityReward *big.Int
	TotalReward     *big.Int
}

// Before is the replay ordering: ascending timestamp, ties broken by id.
func (e TradeEvent) Before(other TradeEvent) bool {
	if e.Timestamp != other.Timestamp {
		return e.Timestamp < other.Timestamp
	}
	return e.ID < other.ID
}

// ═══════════════════════════════════════════════════════════════
// INPUT TYPES
// ═══════════════════════════════════════════════════════════════

// GetTransactionsInput selects a window of a wallet's events. First defaults
// to 20 and OrderDirection to desc.
type GetTransactionsInput struct {
	Address        string `validate:"required,eth_addr"`
	MarketAddress  string `validate:"omitempty,eth_addr"`
	Types          []TradeEventType
	FromTimestamp  *int64
	ToTimestamp    *int64
	First          int            `validate:"gte=0,lte=1000"`
	Skip           int            `validate:"gte=0"`
	OrderDirection OrderDirection `validate:"omitempty,oneof=asc desc"`
}

func (i GetTransactionsInput) Validate() error {
	if err := validateStruct(i); err != nil {
		return err
	}
	return validateEventTypes(i.Types)
}

// TradeHistoryInput selects a wallet's full history. Calendar bounds are
// inclusive UTC days and combine with the timestamp bounds (tighter wins).
type TradeHistoryInput struct {
	Address       string `validate:"required,eth_addr"`
	MarketAddress string `validate:"omitempty,eth_addr"`
	Types         []TradeEventType
	FromTimestamp *int64
	ToTimestamp   *int64
	FromDate      *civil.Date
	ToDate        *civil.Date
}

func (i TradeHistoryInput) Validate() error {
	if err := validateStruct(i); err != nil {
		return err
	}
	if i.FromDate != nil && !i.FromDate.IsValid() {
		return ValidationErrorf("fromDate is not a valid date")
	}
	if i.ToDate != nil && !i.ToDate.IsValid() {
		return ValidationErrorf("toDate is not a valid date")
	}
	from, to := i.TimestampBounds()
	if from != nil && to != nil && *from > *to {
		return ValidationErrorf("time range is empty: from %d is after to %d", *from, *to)
	}
	return validateEventTypes(i.Types)
}

// TimestampBounds folds the date bounds into unix-second bounds.
func (i TradeHistoryInput) TimestampBounds() (from, to *int64) {
	from, to = i.FromTimestamp, i.ToTimestamp
	if i.FromDate != nil {
		ts := i.FromDate.In(time.UTC).Unix()
		if from == nil || ts > *from {
			from = &ts
		}
	}
	if i.ToDate != nil {
		ts := i.ToDate.AddDays(1).In(time.UTC).Unix() - 1
		if to == nil || ts < *to {
			to = &ts
		}
	}
	return from, to
}

func validateEventTypes(ts []TradeEventType) error {
	for _, t := range ts {
		if !t.Valid() {
			return ValidationErrorf("unknown trade event type %q", t)
		}
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════
// RESULT TYPES
// ═══════════════════════════════════════════════════════════════

type TransactionsResult struct {
	Address      util.EthereumAddress
	Transactions []TradeEvent
	// Total is the number of distinct events fetched before windowing.
	Total int
}
