package contractsapi

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rain-one/sdk-go/core/contracts"
	"github.com/rain-one/sdk-go/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pnlFixture struct {
	positions *fakePositions
	catalog   *fakeCatalog
	ledger    *fakeLedger
	reader    *fakeBatchReader
}

func newPnLFixture(positions []types.MarketPosition, history []types.TradeEvent) *pnlFixture {
	return &pnlFixture{
		positions: &fakePositions{getPositionsFunc: func(context.Context, types.GetPositionsInput) (*types.PositionsResult, error) {
			return &types.PositionsResult{Address: walletAddr, Markets: positions}, nil
		}},
		catalog: &fakeCatalog{},
		ledger: &fakeLedger{historyFunc: func(context.Context, types.TradeHistoryInput) (*types.TransactionsResult, error) {
			return &types.TransactionsResult{Address: walletAddr, Transactions: history, Total: len(history)}, nil
		}},
		reader: &fakeBatchReader{},
	}
}

func (f *pnlFixture) engine(t *testing.T) *PnLEngine {
	t.Helper()
	e, err := LoadPnLEngine(NewPnLEngineOptions{
		Positions: f.positions,
		Catalog:   f.catalog,
		Ledger:    f.ledger,
		Reader:    f.reader,
	})
	require.NoError(t, err)
	return e
}

// decimalsBy answers every baseTokenDecimals read from the given table; a
// missing entry fails.
func decimalsBy(table map[int]uint8) func(context.Context, []types.ReadRequest) ([]types.ReadOutcome, error) {
	return func(_ context.Context, requests []types.ReadRequest) ([]types.ReadOutcome, error) {
		out := make([]types.ReadOutcome, len(requests))
		for i, r := range requests {
			out[i] = failedRead()
			for n, d := range table {
				if r.Method == contracts.MethodBaseTokenDecimals && r.Target.Equal(marketAt(n)) {
					out[i] = succeeded(d)
				}
			}
		}
		return out, nil
	}
}

func positionAt(n int, payout []int64, shares ...int64) types.MarketPosition {
	p := livePosition(false, payout, shares...)
	p.ContractAddress = marketAt(n)
	p.MarketID = testMarket(n).ID
	p.Title = testMarket(n).Title
	return p
}

func buyIn(n int, ts int64, option int, shares, cost int64) types.TradeEvent {
	e := buy(ts, option, shares, cost)
	e.MarketAddress = marketAt(n)
	return e
}

// ═══════════════════════════════════════════════════════════════
// MARKET UNION
// ═══════════════════════════════════════════════════════════════

func TestGetPnL_UnionOfPositionsAndHistory(t *testing.T) {
	f := newPnLFixture(
		[]types.MarketPosition{
			positionAt(1, []int64{70, 0}, 100, 0), // held and traded
			positionAt(2, []int64{5, 0}, 10, 0),   // held, no history in range
			positionAt(3, []int64{0, 0}, 0, 0),    // nothing held, never traded
		},
		[]types.TradeEvent{
			buyIn(4, 1, 1, 50, 20), // fully exited market
			buyIn(1, 2, 0, 100, 40),
			buyIn(5, 3, 0, 10, 10),
		},
	)

	res, err := f.engine(t).GetPnL(context.Background(), types.GetPnLInput{Address: testWallet})
	require.NoError(t, err)

	require.Len(t, res.Markets, 4)
	var order []string
	for _, m := range res.Markets {
		order = append(order, m.ContractAddress.Short())
	}
	assert.Equal(t, []string{marketAt(1).Short(), marketAt(2).Short(), marketAt(4).Short(), marketAt(5).Short()}, order)

	assert.Equal(t, types.SnapshotLive, res.Markets[0].Source)
	assert.Equal(t, types.SnapshotLive, res.Markets[1].Source)
	assert.Equal(t, types.SnapshotExitStub, res.Markets[2].Source)
	assert.Equal(t, types.SnapshotExitStub, res.Markets[3].Source)

	assertBig(t, 30, res.Markets[0].UnrealizedPnL)
	assertBig(t, 5, res.Markets[1].UnrealizedPnL, "held shares with no history have zero cost basis")
	assertBig(t, -20, res.Markets[2].UnrealizedPnL)
	require.Len(t, res.Markets[2].Options, 2)
	assert.Equal(t, types.MarketStatusUnknown, res.Markets[2].Status)

	assertBig(t, 0, res.TotalRealizedPnL)
	assertBig(t, 30+5-20-10, res.TotalUnrealizedPnL)
	assertBig(t, 5, res.TotalPnL)
	assert.True(t, res.Address.Equal(walletAddr))
}

func TestGetPnL_RequestsPnLEventTypes(t *testing.T) {
	f := newPnLFixture(nil, nil)
	var got types.TradeHistoryInput
	f.ledger.historyFunc = func(_ context.Context, in types.TradeHistoryInput) (*types.TransactionsResult, error) {
		got = in
		return &types.TransactionsResult{}, nil
	}

	res, err := f.engine(t).GetPnL(context.Background(), types.GetPnLInput{Address: testWallet})
	require.NoError(t, err)
	assert.Empty(t, res.Markets)
	assertBig(t, 0, res.TotalPnL)
	assert.Nil(t, res.Formatted)
	assert.Empty(t, f.reader.batches, "no decimals read without markets")

	assert.Equal(t, testWallet, got.Address)
	assert.Empty(t, got.MarketAddress)
	assert.ElementsMatch(t, types.PnLEventTypes, got.Types)
}

func TestGetPnL_MarketAddressFilter(t *testing.T) {
	f := newPnLFixture(nil, []types.TradeEvent{buyIn(2, 1, 0, 10, 4)})
	market := marketAt(2).Hex()

	f.positions.getPositionsFunc = func(context.Context, types.GetPositionsInput) (*types.PositionsResult, error) {
		return nil, errors.New("full scan not expected")
	}
	f.catalog.getIDFunc = func(_ context.Context, addr string) (string, error) {
		assert.Equal(t, market, addr)
		return "market-2", nil
	}
	f.positions.getByMarketFunc = func(_ context.Context, in types.GetPositionByMarketInput) (*types.MarketPosition, error) {
		assert.Equal(t, "market-2", in.MarketID)
		assert.Equal(t, testWallet, in.Address)
		p := positionAt(2, []int64{6}, 10)
		return &p, nil
	}
	var ledgerMarket string
	f.ledger.historyFunc = func(_ context.Context, in types.TradeHistoryInput) (*types.TransactionsResult, error) {
		ledgerMarket = in.MarketAddress
		return &types.TransactionsResult{Transactions: []types.TradeEvent{buyIn(2, 1, 0, 10, 4)}}, nil
	}

	res, err := f.engine(t).GetPnL(context.Background(), types.GetPnLInput{Address: testWallet, MarketAddress: market})
	require.NoError(t, err)
	assert.Equal(t, market, ledgerMarket)
	require.Len(t, res.Markets, 1)
	assert.Equal(t, "market-2", res.Markets[0].MarketID)
	assertBig(t, 2, res.TotalPnL)
}

func TestGetPnL_UnknownMarketAddress(t *testing.T) {
	f := newPnLFixture(nil, nil)
	_, err := f.engine(t).GetPnL(context.Background(), types.GetPnLInput{
		Address:       testWallet,
		MarketAddress: marketAt(7).Hex(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDataShape)
}

// ═══════════════════════════════════════════════════════════════
// CONCURRENCY AND FAILURES
// ═══════════════════════════════════════════════════════════════

func TestGetPnL_FetchesConcurrently(t *testing.T) {
	f := newPnLFixture(nil, nil)
	var once sync.Once
	historyStarted := make(chan struct{})

	f.ledger.historyFunc = func(context.Context, types.TradeHistoryInput) (*types.TransactionsResult, error) {
		once.Do(func() { close(historyStarted) })
		return &types.TransactionsResult{}, nil
	}
	f.positions.getPositionsFunc = func(ctx context.Context, _ types.GetPositionsInput) (*types.PositionsResult, error) {
		select {
		case <-historyStarted:
			return &types.PositionsResult{}, nil
		case <-time.After(2 * time.Second):
			return nil, errors.New("history fetch never started while positions were in flight")
		}
	}

	_, err := f.engine(t).GetPnL(context.Background(), types.GetPnLInput{Address: testWallet})
	require.NoError(t, err)
}

func TestGetPnL_EitherFetchFailing(t *testing.T) {
	boom := errors.New("boom")

	t.Run("positions", func(t *testing.T) {
		f := newPnLFixture(nil, nil)
		f.positions.getPositionsFunc = func(context.Context, types.GetPositionsInput) (*types.PositionsResult, error) {
			return nil, boom
		}
		f.ledger.historyFunc = func(ctx context.Context, _ types.TradeHistoryInput) (*types.TransactionsResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		res, err := f.engine(t).GetPnL(context.Background(), types.GetPnLInput{Address: testWallet})
		assert.Nil(t, res)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("history", func(t *testing.T) {
		f := newPnLFixture([]types.MarketPosition{positionAt(1, []int64{1}, 1)}, nil)
		f.ledger.historyFunc = func(context.Context, types.TradeHistoryInput) (*types.TransactionsResult, error) {
			return nil, types.UpstreamErrorf("subgraph returned 502")
		}
		res, err := f.engine(t).GetPnL(context.Background(), types.GetPnLInput{Address: testWallet})
		assert.Nil(t, res)
		assert.ErrorIs(t, err, types.ErrUpstreamUnavailable)
		assert.Empty(t, f.reader.batches)
	})
}

func TestGetPnL_Validation(t *testing.T) {
	f := newPnLFixture(nil, nil)
	e := f.engine(t)
	for _, in := range []types.GetPnLInput{
		{},
		{Address: "0x123"},
		{Address: testWallet, MarketAddress: "market-1"},
	} {
		_, err := e.GetPnL(context.Background(), in)
		assert.ErrorIs(t, err, types.ErrValidation, "%+v", in)
	}
	assert.Zero(t, f.catalog.listAllCalls)
}

func TestLoadPnLEngine_RequiresCollaborators(t *testing.T) {
	full := NewPnLEngineOptions{
		Positions: &fakePositions{},
		Catalog:   &fakeCatalog{},
		Ledger:    &fakeLedger{},
		Reader:    &fakeBatchReader{},
	}
	for name, mutate := range map[string]func(*NewPnLEngineOptions){
		"positions": func(o *NewPnLEngineOptions) { o.Positions = nil },
		"catalog":   func(o *NewPnLEngineOptions) { o.Catalog = nil },
		"ledger":    func(o *NewPnLEngineOptions) { o.Ledger = nil },
		"reader":    func(o *NewPnLEngineOptions) { o.Reader = nil },
	} {
		opts := full
		mutate(&opts)
		_, err := LoadPnLEngine(opts)
		assert.ErrorIs(t, err, types.ErrValidation, name)
	}
}

// ═══════════════════════════════════════════════════════════════
// FORMATTING
// ═══════════════════════════════════════════════════════════════

func TestGetPnL_FormatsWithBaseTokenDecimals(t *testing.T) {
	f := newPnLFixture(
		[]types.MarketPosition{positionAt(1, []int64{2_500_000, 0}, 100, 0)},
		[]types.TradeEvent{buyIn(1, 1, 0, 100, 1_000_000), buyIn(2, 2, 0, 10, 500_000)},
	)
	f.reader.executeFunc = decimalsBy(map[int]uint8{1: 6, 2: 6})

	res, err := f.engine(t).GetPnL(context.Background(), types.GetPnLInput{Address: testWallet})
	require.NoError(t, err)
	require.Len(t, f.reader.batches, 1, "decimals are read in one batch")
	assert.Len(t, f.reader.batches[0], 2)

	m := res.Markets[0]
	require.NotNil(t, m.BaseTokenDecimals)
	assert.EqualValues(t, 6, *m.BaseTokenDecimals)
	require.NotNil(t, m.Formatted)
	assert.Equal(t, "1.5", m.Formatted.UnrealizedPnL)
	assert.Equal(t, "1", m.Formatted.TotalCostBasis)
	assert.Equal(t, "0", m.Formatted.RealizedPnL)
	require.NotNil(t, m.Options[0].Formatted)
	assert.Equal(t, "2.5", m.Options[0].Formatted.CurrentValue)

	assert.Equal(t, "-0.5", res.Markets[1].Formatted.UnrealizedPnL)

	require.NotNil(t, res.Formatted)
	assert.Equal(t, "1", res.Formatted.TotalPnL)
	assertBig(t, 1_000_000, res.TotalPnL, "raw amounts are untouched")
}

func TestGetPnL_MixedOrMissingDecimals(t *testing.T) {
	positions := []types.MarketPosition{
		positionAt(1, []int64{10}, 1),
		positionAt(2, []int64{10}, 1),
	}

	t.Run("mixed", func(t *testing.T) {
		f := newPnLFixture(positions, nil)
		f.reader.executeFunc = decimalsBy(map[int]uint8{1: 6, 2: 18})
		res, err := f.engine(t).GetPnL(context.Background(), types.GetPnLInput{Address: testWallet})
		require.NoError(t, err)
		assert.NotNil(t, res.Markets[0].Formatted)
		assert.NotNil(t, res.Markets[1].Formatted)
		assert.Nil(t, res.Formatted)
	})

	t.Run("one read failed", func(t *testing.T) {
		f := newPnLFixture(positions, nil)
		f.reader.executeFunc = decimalsBy(map[int]uint8{2: 6})
		res, err := f.engine(t).GetPnL(context.Background(), types.GetPnLInput{Address: testWallet})
		require.NoError(t, err)
		assert.Nil(t, res.Markets[0].BaseTokenDecimals)
		assert.Nil(t, res.Markets[0].Formatted)
		assert.NotNil(t, res.Markets[1].Formatted)
		assert.Nil(t, res.Formatted)
	})

	t.Run("round trip failed", func(t *testing.T) {
		f := newPnLFixture(positions, nil)
		f.reader.executeFunc = func(context.Context, []types.ReadRequest) ([]types.ReadOutcome, error) {
			return nil, types.UpstreamErrorf("rpc down")
		}
		res, err := f.engine(t).GetPnL(context.Background(), types.GetPnLInput{Address: testWallet})
		require.NoError(t, err)
		require.Len(t, res.Markets, 2)
		assert.Nil(t, res.Markets[0].Formatted)
		assert.Nil(t, res.Formatted)
		assertBig(t, 20, res.TotalUnrealizedPnL)
	})
}
