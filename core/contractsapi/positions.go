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
)

// Positions reconstructs wallet holdings from market contracts, reading every
// market of a call in a single batch.
type Positions struct {
	catalog types.IMarketCatalog
	reader  types.IBatchReader
	logger  *zap.Logger
}

// Compile-time check that Positions implements IPositions
var _ types.IPositions = (*Positions)(nil)

// NewPositionsOptions contains options for creating a Positions instance
type NewPositionsOptions struct {
	Catalog types.IMarketCatalog
	Reader  types.IBatchReader
	Logger  *zap.Logger
}

// LoadPositions creates a new Positions instance with the given options
func LoadPositions(options NewPositionsOptions) (*Positions, error) {
	if options.Catalog == nil {
		return nil, types.ValidationErrorf("market catalog is required")
	}
	if options.Reader == nil {
		return nil, types.ValidationErrorf("batch reader is required")
	}
	return &Positions{
		catalog: options.Catalog,
		reader:  options.Reader,
		logger:  logging.OrDefault(options.Logger),
	}, nil
}

// ═══════════════════════════════════════════════════════════════
// POSITIONS
// ═══════════════════════════════════════════════════════════════

// GetPositions reads every deployed market of the catalog and keeps those in
// which the wallet holds liquidity or option exposure.
func (p *Positions) GetPositions(ctx context.Context, input types.GetPositionsInput) (*types.PositionsResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	wallet := util.MustNewEthereumAddressFromString(input.Address)

	markets, err := p.catalog.ListAllMarkets(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list markets")
	}

	deployed := make([]types.Market, 0, len(markets))
	for _, m := range markets {
		if m.HasContract() {
			deployed = append(deployed, m)
		}
	}

	snapshots, err := p.readMarkets(ctx, wallet, deployed)
	if err != nil {
		return nil, err
	}

	result := &types.PositionsResult{Address: wallet, Markets: []types.MarketPosition{}}
	for _, s := range snapshots {
		if s.HasPosition() {
			result.Markets = append(result.Markets, s)
		}
	}

	p.logger.Debug("positions reconstructed",
		zap.String("wallet", wallet.Address()),
		zap.Int("catalog", len(markets)),
		zap.Int("deployed", len(deployed)),
		zap.Int("held", len(result.Markets)))
	return result, nil
}

// GetPositionByMarket reads one market directly. The result is returned
// even when the wallet holds nothing in it.
func (p *Positions) GetPositionByMarket(ctx context.Context, input types.GetPositionByMarketInput) (*types.MarketPosition, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	wallet := util.MustNewEthereumAddressFromString(input.Address)

	market, err := p.catalog.GetMarket(ctx, input.MarketID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get market %s", input.MarketID)
	}
	if !market.HasContract() {
		return nil, types.DataShapeErrorf("market %s has no contract address", input.MarketID)
	}

	snapshots, err := p.readMarkets(ctx, wallet, []types.Market{*market})
	if err != nil {
		return nil, err
	}
	return &snapshots[0], nil
}

// readMarkets issues one batch covering all markets: three market-level
// reads followed by four reads per option, in catalog option order.
func (p *Positions) readMarkets(ctx context.Context, wallet util.EthereumAddress, markets []types.Market) ([]types.MarketPosition, error) {
	if len(markets) == 0 {
		return []types.MarketPosition{}, nil
	}

	var b batchBuilder
	spans := make([]span, len(markets))
	for i, m := range markets {
		spans[i] = addMarketReads(&b, m, wallet)
	}

	outcomes, err := p.reader.Execute(ctx, b.requests)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read market positions")
	}

	positions := make([]types.MarketPosition, len(markets))
	for i, m := range markets {
		cur, err := newCursor(outcomes, spans[i])
		if err != nil {
			return nil, err
		}
		positions[i] = readMarketPosition(cur, m)
		if n := cur.Failures(); n > 0 {
			p.logger.Debug("market reads defaulted",
				zap.String("market", m.ContractAddress.Address()),
				zap.Int("failed", n))
		}
	}
	return positions, nil
}

func addMarketReads(b *batchBuilder, m types.Market, wallet util.EthereumAddress) span {
	pool := contracts.TradePoolABI
	user := wallet.Common()

	start := b.begin()
	b.add(m.ContractAddress, pool, contracts.MethodUserLiquidity, user)
	b.add(m.ContractAddress, pool, contracts.MethodClaimed, user)
	b.add(m.ContractAddress, pool, contracts.MethodGetDynamicPayout, user)
	for _, o := range m.Options {
		idx := big.NewInt(int64(o.ChoiceIndex))
		b.add(m.ContractAddress, pool, contracts.MethodUserVotes, idx, user)
		b.add(m.ContractAddress, pool, contracts.MethodUserVotesInEscrow, idx, user)
		b.add(m.ContractAddress, pool, contracts.MethodUserAmountInEscrow, idx, user)
		b.add(m.ContractAddress, pool, contracts.MethodGetCurrentPrice, idx)
	}
	return b.end(start)
}

// readMarketPosition consumes a span in the order addMarketReads built it.
func readMarketPosition(cur *readCursor, m types.Market) types.MarketPosition {
	pos := types.MarketPosition{
		MarketID:        m.ID,
		Title:           m.Title,
		Status:          m.Status,
		ContractAddress: m.ContractAddress,
		UserLiquidity:   cur.Uint(),
		Claimed:         cur.Bool(),
		DynamicPayout:   cur.UintSlice(),
		Options:         make([]types.OptionPosition, len(m.Options)),
	}
	for i, o := range m.Options {
		pos.Options[i] = types.OptionPosition{
			ChoiceIndex:    o.ChoiceIndex,
			OptionName:     o.OptionName,
			Shares:         cur.Uint(),
			SharesInEscrow: cur.Uint(),
			AmountInEscrow: cur.Uint(),
			CurrentPrice:   cur.Uint(),
		}
	}
	return pos
}

// ═══════════════════════════════════════════════════════════════
// LIQUIDITY
// ═══════════════════════════════════════════════════════════════

const basisPoints = 10_000

// GetLPPosition reads the wallet's liquidity stake and the pool totals in a
// single batch. Failed reads default to zero.
func (p *Positions) GetLPPosition(ctx context.Context, input types.GetLPPositionInput) (*types.LPPosition, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	wallet := util.MustNewEthereumAddressFromString(input.Address)

	market, err := p.catalog.GetMarket(ctx, input.MarketID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get market %s", input.MarketID)
	}
	if !market.HasContract() {
		return nil, types.DataShapeErrorf("market %s has no contract address", input.MarketID)
	}

	var b batchBuilder
	start := b.begin()
	b.add(market.ContractAddress, contracts.TradePoolABI, contracts.MethodUserLiquidity, wallet.Common())
	b.add(market.ContractAddress, contracts.TradePoolABI, contracts.MethodTotalLiquidity)
	b.add(market.ContractAddress, contracts.TradePoolABI, contracts.MethodLiquidityShare)
	s := b.end(start)

	outcomes, err := p.reader.Execute(ctx, b.requests)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read liquidity position")
	}
	cur, err := newCursor(outcomes, s)
	if err != nil {
		return nil, err
	}

	user := cur.Uint()
	total := cur.Uint()
	share := cur.Uint()

	return &types.LPPosition{
		MarketID:          market.ID,
		Title:             market.Title,
		Status:            market.Status,
		ContractAddress:   market.ContractAddress,
		UserLiquidity:     user,
		TotalLiquidity:    total,
		PoolShareBps:      poolShareBps(user, total),
		LiquidityShareBps: clampInt64(share),
	}, nil
}

// poolShareBps is user/total in basis points, truncated; 0 for an empty pool.
func poolShareBps(user, total *big.Int) int64 {
	if total.Sign() <= 0 {
		return 0
	}
	bps := new(big.Int).Mul(user, big.NewInt(basisPoints))
	bps.Quo(bps, total)
	return clampInt64(bps)
}

func clampInt64(v *big.Int) int64 {
	if v.IsInt64() {
		return v.Int64()
	}
	if v.Sign() < 0 {
		return 0
	}
	return math.MaxInt64
}
