package contractsapi

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/rain-one/sdk-go/core/types"
	"github.com/rain-one/sdk-go/core/util"
	"go.uber.org/zap"
)

// costScale is the fixed-point scale of the weighted-average cost per share.
const costScale = 1_000_000

var bigCostScale = big.NewInt(costScale)

// Fails to compile when a trade event type is added or removed, so that
// classifyTrade is revisited alongside it.
var _ = [1]struct{}{}[len(types.AllTradeEventTypes)-9]

// classifyTrade maps a ledger event to its effect on the wallet's books.
// It panics on a type outside types.AllTradeEventTypes; callers filter
// with TradeEventType.Valid first.
// For fills the direction depends on which side of the order the wallet was:
// the maker of a buy order and the taker of a sell order receive shares.
func classifyTrade(e types.TradeEvent, wallet util.EthereumAddress) types.TradeDirection {
	switch e.Type {
	case types.TradeEventBuy:
		return types.DirectionBuy
	case types.TradeEventAddLiquidity:
		return types.DirectionAddLiquidity
	case types.TradeEventClaim:
		return types.DirectionClaim
	case types.TradeEventLimitBuyFilled:
		switch {
		case e.Maker.Equal(wallet):
			return types.DirectionBuy
		case e.Taker.Equal(wallet):
			return types.DirectionSell
		}
		return types.DirectionIgnore
	case types.TradeEventLimitSellFilled:
		switch {
		case e.Taker.Equal(wallet):
			return types.DirectionBuy
		case e.Maker.Equal(wallet):
			return types.DirectionSell
		}
		return types.DirectionIgnore
	case types.TradeEventLimitBuyPlaced,
		types.TradeEventLimitSellPlaced,
		types.TradeEventCancelBuy,
		types.TradeEventCancelSell:
		return types.DirectionIgnore
	}
	panic(fmt.Sprintf("contractsapi: unclassified trade event type %q", e.Type))
}

// ═══════════════════════════════════════════════════════════════
// SNAPSHOTS
// ═══════════════════════════════════════════════════════════════

// marketSnapshot is the on-chain state a market's history is replayed
// against: either a live read or a synthetic stub for a market the wallet
// has left entirely.
type marketSnapshot struct {
	kind     types.SnapshotKind
	position types.MarketPosition
}

func liveSnapshot(p types.MarketPosition) marketSnapshot {
	return marketSnapshot{kind: types.SnapshotLive, position: p}
}

// maxStubOptions bounds the width of an exit stub. Markets list a handful
// of options; an index past this is a corrupt ledger row.
const maxStubOptions = 256

// exitStub builds an all-zero snapshot wide enough for every option the
// events reference. Indexes at or above maxStubOptions are left out, so
// their events fall outside the snapshot during replay.
func exitStub(market util.EthereumAddress, events []types.TradeEvent, logger *zap.Logger) marketSnapshot {
	n := 0
	for _, e := range events {
		if e.Option == nil {
			continue
		}
		if *e.Option >= maxStubOptions {
			logger.Warn("option index out of bounds for exit stub",
				zap.String("id", e.ID),
				zap.String("market", market.Address()),
				zap.Int("option", *e.Option))
			continue
		}
		if *e.Option+1 > n {
			n = *e.Option + 1
		}
	}
	options := make([]types.OptionPosition, n)
	for i := range options {
		options[i] = types.OptionPosition{
			ChoiceIndex:    i,
			OptionName:     fmt.Sprintf("Option %d", i),
			Shares:         new(big.Int),
			SharesInEscrow: new(big.Int),
			AmountInEscrow: new(big.Int),
			CurrentPrice:   new(big.Int),
		}
	}
	return marketSnapshot{
		kind: types.SnapshotExitStub,
		position: types.MarketPosition{
			Title:           fmt.Sprintf("Market %s...", market.Short()),
			Status:          types.MarketStatusUnknown,
			ContractAddress: market,
			Options:         options,
			UserLiquidity:   new(big.Int),
			DynamicPayout:   []*big.Int{},
		},
	}
}

// ═══════════════════════════════════════════════════════════════
// REPLAY
// ═══════════════════════════════════════════════════════════════

type optionBook struct {
	buyShares    *big.Int
	buyCost      *big.Int
	sellShares   *big.Int
	sellProceeds *big.Int
}

func newOptionBook() optionBook {
	return optionBook{
		buyShares:    new(big.Int),
		buyCost:      new(big.Int),
		sellShares:   new(big.Int),
		sellProceeds: new(big.Int),
	}
}

type marketBook struct {
	options         []optionBook
	slot            map[int]int // choice index -> position in options
	claimReward     *big.Int
	liquidityReward *big.Int
	liquidityCost   *big.Int
	replayed        int
}

func newMarketBook(options []types.OptionPosition) *marketBook {
	b := &marketBook{
		options:         make([]optionBook, len(options)),
		slot:            make(map[int]int, len(options)),
		claimReward:     new(big.Int),
		liquidityReward: new(big.Int),
		liquidityCost:   new(big.Int),
	}
	for i, o := range options {
		b.options[i] = newOptionBook()
		b.slot[o.ChoiceIndex] = i
	}
	return b
}

func (b *marketBook) option(e types.TradeEvent) (*optionBook, bool) {
	if e.Option == nil {
		return nil, false
	}
	i, ok := b.slot[*e.Option]
	if !ok {
		return nil, false
	}
	return &b.options[i], true
}

// replayMarket folds the market's events, oldest first, into a MarketPnL.
// It is deterministic for a given snapshot and event list.
func replayMarket(snap marketSnapshot, events []types.TradeEvent, wallet util.EthereumAddress, logger *zap.Logger) types.MarketPnL {
	ordered := slices.Clone(events)
	slices.SortStableFunc(ordered, func(a, b types.TradeEvent) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})

	book := newMarketBook(snap.position.Options)
	for _, e := range ordered {
		if !e.Type.Valid() {
			logger.Warn("unknown trade event type skipped",
				zap.String("id", e.ID),
				zap.String("type", string(e.Type)))
			continue
		}
		dir := classifyTrade(e, wallet)
		switch dir {
		case types.DirectionBuy, types.DirectionSell:
			ob, ok := book.option(e)
			if !ok {
				logger.Debug("trade outside option range ignored",
					zap.String("id", e.ID),
					zap.String("market", e.MarketAddress.Address()))
				continue
			}
			shares, amount := util.BigOrZero(e.OptionAmount), util.BigOrZero(e.BaseAmount)
			if dir == types.DirectionBuy {
				ob.buyShares.Add(ob.buyShares, shares)
				ob.buyCost.Add(ob.buyCost, amount)
			} else {
				ob.sellShares.Add(ob.sellShares, shares)
				ob.sellProceeds.Add(ob.sellProceeds, amount)
			}
		case types.DirectionClaim:
			book.claimReward.Set(util.BigOrZero(e.TotalReward))
			book.liquidityReward.Set(util.BigOrZero(e.LiquidityReward))
		case types.DirectionAddLiquidity:
			book.liquidityCost.Add(book.liquidityCost, util.BigOrZero(e.BaseAmount))
		case types.DirectionIgnore:
			if e.Type == types.TradeEventLimitBuyFilled || e.Type == types.TradeEventLimitSellFilled {
				logger.Warn("fill does not involve wallet",
					zap.String("id", e.ID),
					zap.String("wallet", wallet.Address()),
					zap.String("maker", e.Maker.Address()),
					zap.String("taker", e.Taker.Address()))
			}
			continue
		}
		book.replayed++
	}

	return settleMarket(snap, book)
}

// settleMarket applies weighted-average cost accounting to the books.
// A claimed market realises claimReward against the remaining cost basis
// once, at market level, and carries no unrealized PnL.
func settleMarket(snap marketSnapshot, book *marketBook) types.MarketPnL {
	pos := snap.position
	out := types.MarketPnL{
		MarketID:          pos.MarketID,
		Title:             pos.Title,
		Status:            pos.Status,
		ContractAddress:   pos.ContractAddress,
		Source:            snap.kind,
		Options:           make([]types.OptionPnL, len(pos.Options)),
		Claimed:           pos.Claimed,
		ClaimReward:       book.claimReward,
		LiquidityCost:     book.liquidityCost,
		LiquidityReward:   book.liquidityReward,
		TotalCostBasis:    new(big.Int),
		TotalCurrentValue: new(big.Int),
		RealizedPnL:       new(big.Int),
		UnrealizedPnL:     new(big.Int),
		TotalPnL:          new(big.Int),
		EventsReplayed:    book.replayed,
	}

	for i, o := range pos.Options {
		op := settleOption(book.options[i], pos.PayoutFor(o.ChoiceIndex), pos.Claimed)
		op.ChoiceIndex = o.ChoiceIndex
		op.OptionName = o.OptionName
		op.CurrentShares = new(big.Int).Set(util.BigOrZero(o.Shares))
		out.Options[i] = op

		out.TotalCostBasis.Add(out.TotalCostBasis, op.CostBasis)
		out.TotalCurrentValue.Add(out.TotalCurrentValue, op.CurrentValue)
		out.RealizedPnL.Add(out.RealizedPnL, op.RealizedPnL)
	}

	if pos.Claimed {
		settled := new(big.Int).Sub(book.claimReward, out.TotalCostBasis)
		out.RealizedPnL.Add(out.RealizedPnL, settled)
	} else {
		out.UnrealizedPnL.Sub(out.TotalCurrentValue, out.TotalCostBasis)
	}
	out.TotalPnL.Add(out.RealizedPnL, out.UnrealizedPnL)
	return out
}

func settleOption(book optionBook, payout *big.Int, claimed bool) types.OptionPnL {
	avgCost := new(big.Int)
	if book.buyShares.Sign() > 0 {
		avgCost.Mul(book.buyCost, bigCostScale)
		avgCost.Quo(avgCost, book.buyShares)
	}

	soldCost := new(big.Int).Mul(avgCost, book.sellShares)
	soldCost.Quo(soldCost, bigCostScale)
	realized := new(big.Int).Sub(book.sellProceeds, soldCost)

	remaining := new(big.Int).Sub(book.buyShares, book.sellShares)
	if remaining.Sign() < 0 {
		remaining.SetInt64(0)
	}
	costBasis := new(big.Int).Mul(avgCost, remaining)
	costBasis.Quo(costBasis, bigCostScale)

	current := new(big.Int).Set(payout)
	unrealized := new(big.Int)
	if !claimed {
		unrealized.Sub(current, costBasis)
	}

	return types.OptionPnL{
		BuyShares:     book.buyShares,
		BuyCost:       book.buyCost,
		SellShares:    book.sellShares,
		SellProceeds:  book.sellProceeds,
		CurrentValue:  current,
		CostBasis:     costBasis,
		RealizedPnL:   realized,
		UnrealizedPnL: unrealized,
	}
}
