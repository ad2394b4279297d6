package contractsapi

import (
	"context"
	"math"
	"math/big"

	"github.com/pkg/errors"
	"github.com/rain-one/sdk-go/core/contracts"
	"github.com/rain-one/sdk-go/core/logging"
	"github.com/rain-one/sdk-go/core/types"
	"github.com/rain-one/sdk-go/core/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PnLEngine replays a wallet's trade history against its live positions.
type PnLEngine struct {
	positions types.IPositions
	catalog   types.IMarketCatalog
	ledger    types.ITradeLedger
	reader    types.IBatchReader
	logger    *zap.Logger
}

// Compile-time check that PnLEngine implements IPnL
var _ types.IPnL = (*PnLEngine)(nil)

// NewPnLEngineOptions contains options for creating a PnLEngine instance
type NewPnLEngineOptions struct {
	Positions types.IPositions
	Catalog   types.IMarketCatalog
	Ledger    types.ITradeLedger
	Reader    types.IBatchReader
	Logger    *zap.Logger
}

// LoadPnLEngine creates a new PnLEngine instance with the given options
func LoadPnLEngine(options NewPnLEngineOptions) (*PnLEngine, error) {
	switch {
	case options.Positions == nil:
		return nil, types.ValidationErrorf("positions reader is required")
	case options.Catalog == nil:
		return nil, types.ValidationErrorf("market catalog is required")
	case options.Ledger == nil:
		return nil, types.ValidationErrorf("trade ledger is required")
	case options.Reader == nil:
		return nil, types.ValidationErrorf("batch reader is required")
	}
	return &PnLEngine{
		positions: options.Positions,
		catalog:   options.Catalog,
		ledger:    options.Ledger,
		reader:    options.Reader,
		logger:    logging.OrDefault(options.Logger),
	}, nil
}

// GetPnL computes realized and unrealized PnL per market and for the wallet.
// The positions read and the history fetch run concurrently; if either fails
// no result is returned.
func (e *PnLEngine) GetPnL(ctx context.Context, input types.GetPnLInput) (*types.PnLResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	wallet := util.MustNewEthereumAddressFromString(input.Address)

	var (
		positions []types.MarketPosition
		history   []types.TradeEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		positions, err = e.fetchPositions(gctx, input)
		return err
	})
	g.Go(func() error {
		res, err := e.ledger.GetTradeHistory(gctx, types.TradeHistoryInput{
			Address:       input.Address,
			MarketAddress: input.MarketAddress,
			Types:         types.PnLEventTypes,
		})
		if err != nil {
			return errors.Wrap(err, "failed to fetch trade history")
		}
		history = res.Transactions
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshots, groups := unionMarkets(positions, history, e.logger)

	result := &types.PnLResult{
		Address:            wallet,
		Markets:            []types.MarketPnL{},
		TotalRealizedPnL:   new(big.Int),
		TotalUnrealizedPnL: new(big.Int),
		TotalPnL:           new(big.Int),
	}
	for _, snap := range snapshots {
		events := groups[snap.position.ContractAddress]
		if len(events) == 0 && !holdsShares(snap.position) {
			continue
		}
		m := replayMarket(snap, events, wallet, e.logger)
		result.Markets = append(result.Markets, m)
		result.TotalRealizedPnL.Add(result.TotalRealizedPnL, m.RealizedPnL)
		result.TotalUnrealizedPnL.Add(result.TotalUnrealizedPnL, m.UnrealizedPnL)
	}
	result.TotalPnL.Add(result.TotalRealizedPnL, result.TotalUnrealizedPnL)

	e.attachDecimals(ctx, result)

	e.logger.Debug("pnl computed",
		zap.String("wallet", wallet.Address()),
		zap.Int("positions", len(positions)),
		zap.Int("events", len(history)),
		zap.Int("markets", len(result.Markets)))
	return result, nil
}

func (e *PnLEngine) fetchPositions(ctx context.Context, input types.GetPnLInput) ([]types.MarketPosition, error) {
	if input.MarketAddress == "" {
		res, err := e.positions.GetPositions(ctx, types.GetPositionsInput{Address: input.Address})
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch positions")
		}
		return res.Markets, nil
	}

	marketID, err := e.catalog.GetMarketID(ctx, input.MarketAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve market %s", input.MarketAddress)
	}
	pos, err := e.positions.GetPositionByMarket(ctx, types.GetPositionByMarketInput{
		Address:  input.Address,
		MarketID: marketID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch position")
	}
	return []types.MarketPosition{*pos}, nil
}

// unionMarkets pairs every market seen in either source with its snapshot.
// Live positions come first in their own order, then markets known only
// from history in first-seen order.
func unionMarkets(positions []types.MarketPosition, history []types.TradeEvent, logger *zap.Logger) ([]marketSnapshot, map[util.EthereumAddress][]types.TradeEvent) {
	groups := make(map[util.EthereumAddress][]types.TradeEvent)
	var tradedOrder []util.EthereumAddress
	for _, ev := range history {
		if _, seen := groups[ev.MarketAddress]; !seen {
			tradedOrder = append(tradedOrder, ev.MarketAddress)
		}
		groups[ev.MarketAddress] = append(groups[ev.MarketAddress], ev)
	}

	snapshots := make([]marketSnapshot, 0, len(positions)+len(tradedOrder))
	live := make(map[util.EthereumAddress]struct{}, len(positions))
	for _, p := range positions {
		if _, dup := live[p.ContractAddress]; dup {
			continue
		}
		live[p.ContractAddress] = struct{}{}
		snapshots = append(snapshots, liveSnapshot(p))
	}
	for _, addr := range tradedOrder {
		if _, ok := live[addr]; ok {
			continue
		}
		snapshots = append(snapshots, exitStub(addr, groups[addr], logger))
	}
	return snapshots, groups
}

func holdsShares(p types.MarketPosition) bool {
	for _, o := range p.Options {
		if o.Shares != nil && o.Shares.Sign() != 0 {
			return true
		}
	}
	return false
}

// ═══════════════════════════════════════════════════════════════
// FORMATTING
// ═══════════════════════════════════════════════════════════════

// attachDecimals reads baseTokenDecimals() of every reported market in one
// batch and fills the Formatted views. Amounts stay exact either way; a
// failed read only leaves the view unset.
func (e *PnLEngine) attachDecimals(ctx context.Context, result *types.PnLResult) {
	if len(result.Markets) == 0 {
		return
	}

	var b batchBuilder
	spans := make([]span, len(result.Markets))
	for i, m := range result.Markets {
		start := b.begin()
		b.add(m.ContractAddress, contracts.TradePoolABI, contracts.MethodBaseTokenDecimals)
		spans[i] = b.end(start)
	}

	outcomes, err := e.reader.Execute(ctx, b.requests)
	if err != nil {
		e.logger.Warn("base token decimals unavailable", zap.Error(err))
		return
	}

	var shared *uint8
	uniform := true
	for i := range result.Markets {
		m := &result.Markets[i]
		cur, err := newCursor(outcomes, spans[i])
		if err != nil {
			e.logger.Warn("base token decimals unavailable", zap.Error(err))
			return
		}
		if d, ok := cur.Uint64(); ok && d <= math.MaxUint8 {
			dec := uint8(d)
			m.BaseTokenDecimals = &dec
			formatMarket(m, dec)
		}

		switch {
		case m.BaseTokenDecimals == nil:
			uniform = false
		case shared == nil:
			shared = m.BaseTokenDecimals
		case *shared != *m.BaseTokenDecimals:
			uniform = false
		}
	}

	if uniform && shared != nil {
		result.Formatted = &types.PnLFormatted{
			TotalRealizedPnL:   util.FormatUnits(result.TotalRealizedPnL, *shared),
			TotalUnrealizedPnL: util.FormatUnits(result.TotalUnrealizedPnL, *shared),
			TotalPnL:           util.FormatUnits(result.TotalPnL, *shared),
		}
	}
}

func formatMarket(m *types.MarketPnL, decimals uint8) {
	m.Formatted = &types.MarketPnLFormatted{
		ClaimReward:       util.FormatUnits(m.ClaimReward, decimals),
		LiquidityCost:     util.FormatUnits(m.LiquidityCost, decimals),
		LiquidityReward:   util.FormatUnits(m.LiquidityReward, decimals),
		TotalCostBasis:    util.FormatUnits(m.TotalCostBasis, decimals),
		TotalCurrentValue: util.FormatUnits(m.TotalCurrentValue, decimals),
		RealizedPnL:       util.FormatUnits(m.RealizedPnL, decimals),
		UnrealizedPnL:     util.FormatUnits(m.UnrealizedPnL, decimals),
		TotalPnL:          util.FormatUnits(m.TotalPnL, decimals),
	}
	for i := range m.Options {
		o := &m.Options[i]
		o.Formatted = &types.OptionPnLFormatted{
			BuyCost:       util.FormatUnits(o.BuyCost, decimals),
			SellProceeds:  util.FormatUnits(o.SellProceeds, decimals),
			CurrentValue:  util.FormatUnits(o.CurrentValue, decimals),
			CostBasis:     util.FormatUnits(o.CostBasis, decimals),
			RealizedPnL:   util.FormatUnits(o.RealizedPnL, decimals),
			UnrealizedPnL: util.FormatUnits(o.UnrealizedPnL, decimals),
		}
	}
}
