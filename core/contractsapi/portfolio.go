package contractsapi

import (
	"context"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rain-one/sdk-go/core/contracts"
	"github.com/rain-one/sdk-go/core/logging"
	"github.com/rain-one/sdk-go/core/types"
	"github.com/rain-one/sdk-go/core/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTokenDecimals  = 18
	defaultTokenSymbol    = "UNKNOWN"
	nativeBalanceDecimals = 18
)

// Portfolio values a wallet's token balances and projected market payouts.
type Portfolio struct {
	positions types.IPositions
	reader    types.IBatchReader
	multicall util.EthereumAddress
	logger    *zap.Logger
}

var _ types.IPortfolio = (*Portfolio)(nil)

// NewPortfolioOptions contains options for creating a Portfolio instance
type NewPortfolioOptions struct {
	Positions types.IPositions
	Reader    types.IBatchReader
	// MulticallAddress answers getEthBalance; defaults to contracts.Multicall3Address
	MulticallAddress *common.Address
	Logger           *zap.Logger
}

// LoadPortfolio creates a new Portfolio instance with the given options
func LoadPortfolio(options NewPortfolioOptions) (*Portfolio, error) {
	if options.Positions == nil {
		return nil, types.ValidationErrorf("positions reader is required")
	}
	if options.Reader == nil {
		return nil, types.ValidationErrorf("batch reader is required")
	}
	addr := contracts.Multicall3Address
	if options.MulticallAddress != nil {
		addr = *options.MulticallAddress
	}
	return &Portfolio{
		positions: options.Positions,
		reader:    options.Reader,
		multicall: util.NewEthereumAddress(addr),
		logger:    logging.OrDefault(options.Logger),
	}, nil
}

// GetPortfolioValue fetches positions and balances concurrently. A market's
// value is the sum of its projected payouts.
func (p *Portfolio) GetPortfolioValue(ctx context.Context, input types.GetPortfolioValueInput) (*types.PortfolioValue, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	wallet := util.MustNewEthereumAddressFromString(input.Address)

	tokens := make([]util.EthereumAddress, len(input.TokenAddresses))
	for i, t := range input.TokenAddresses {
		tokens[i] = util.MustNewEthereumAddressFromString(t)
	}
	tokens = util.UniqueAddresses(tokens)

	var (
		positions *types.PositionsResult
		value     = &types.PortfolioValue{Address: wallet}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		positions, err = p.positions.GetPositions(gctx, types.GetPositionsInput{Address: input.Address})
		return errors.Wrap(err, "failed to fetch positions")
	})
	g.Go(func() error {
		return p.readBalances(gctx, wallet, tokens, value)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	value.Positions = make([]types.MarketPositionValue, 0, len(positions.Markets))
	totals := make([]*big.Int, 0, len(positions.Markets))
	for _, m := range positions.Markets {
		total := util.SumBig(m.DynamicPayout...)
		value.Positions = append(value.Positions, types.MarketPositionValue{
			MarketID:           m.MarketID,
			Title:              m.Title,
			Status:             m.Status,
			ContractAddress:    m.ContractAddress,
			DynamicPayout:      m.DynamicPayout,
			TotalPositionValue: total,
		})
		totals = append(totals, total)
	}
	value.TotalPositionValue = util.SumBig(totals...)
	return value, nil
}

// readBalances reads every token's balanceOf, decimals and symbol plus the
// native balance in one batch.
func (p *Portfolio) readBalances(ctx context.Context, wallet util.EthereumAddress, tokens []util.EthereumAddress, value *types.PortfolioValue) error {
	var b batchBuilder
	spans := make([]span, len(tokens))
	for i, t := range tokens {
		start := b.begin()
		b.add(t, contracts.ERC20ABI, contracts.MethodBalanceOf, wallet.Common())
		b.add(t, contracts.ERC20ABI, contracts.MethodDecimals)
		b.add(t, contracts.ERC20ABI, contracts.MethodSymbol)
		spans[i] = b.end(start)
	}
	start := b.begin()
	b.add(p.multicall, contracts.Multicall3ABI, contracts.MethodGetEthBalance, wallet.Common())
	nativeSpan := b.end(start)

	p.logger.Debug("reading balances",
		zap.String("wallet", wallet.Address()),
		zap.Strings("tokens", util.EthereumAddressesToStrings(tokens)))
	outcomes, err := p.reader.Execute(ctx, b.requests)
	if err != nil {
		return errors.Wrap(err, "failed to read balances")
	}

	value.TokenBalances = make([]types.TokenBalance, len(tokens))
	for i, t := range tokens {
		cur, err := newCursor(outcomes, spans[i])
		if err != nil {
			return err
		}
		balance := cur.Uint()
		decimals := uint8(defaultTokenDecimals)
		if d, ok := cur.Uint64(); ok && d <= math.MaxUint8 {
			decimals = uint8(d)
		}
		symbol := cur.String(defaultTokenSymbol)
		if cur.Failures() > 0 {
			p.logger.Debug("token reads defaulted",
				zap.String("token", t.Address()),
				zap.Int("failed", cur.Failures()))
		}
		value.TokenBalances[i] = types.TokenBalance{
			TokenAddress:     t,
			Symbol:           symbol,
			Decimals:         decimals,
			Balance:          balance,
			FormattedBalance: util.FormatUnits(balance, decimals),
		}
	}

	cur, err := newCursor(outcomes, nativeSpan)
	if err != nil {
		return err
	}
	value.NativeBalance = cur.Uint()
	value.FormattedNativeBalance = util.FormatUnits(value.NativeBalance, nativeBalanceDecimals)
	return nil
}
