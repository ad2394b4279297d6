package contractsapi

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rain-one/sdk-go/core/contracts"
	"github.com/rain-one/sdk-go/core/types"
	"github.com/rain-one/sdk-go/core/util"
	"github.com/stretchr/testify/assert"
)

// ═══════════════════════════════════════════════════════════════
// FAKE CHAIN
// ═══════════════════════════════════════════════════════════════

// chainCall is one call decoded out of an aggregate3 batch.
type chainCall struct {
	target common.Address
	method string
	args   []any
}

// fakeChain answers aggregate3 eth_calls by decoding every inner call and
// asking respond for its value. respond returning ok=false makes that call
// revert.
type fakeChain struct {
	mu      sync.Mutex
	respond func(c chainCall) (value any, ok bool)
	err     error  // returned instead of a response
	raw     []byte // returned verbatim instead of a response
	drop    int    // results dropped from the end of the response

	rounds  int
	batches [][]chainCall
	blocks  []*big.Int
}

var _ ContractCaller = (*fakeChain)(nil)

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rounds++
	f.blocks = append(f.blocks, block)
	if f.err != nil {
		return nil, f.err
	}
	if f.raw != nil {
		return f.raw, nil
	}

	aggregate := contracts.Multicall3ABI.Methods[contracts.MethodAggregate3]
	if msg.To == nil || *msg.To != contracts.Multicall3Address && *msg.To != testMulticall {
		return nil, fmt.Errorf("unexpected call target %v", msg.To)
	}
	if len(msg.Data) < 4 || !bytes.Equal(msg.Data[:4], aggregate.ID) {
		return nil, fmt.Errorf("not an aggregate3 call")
	}
	in, err := aggregate.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	calls := *abi.ConvertType(in[0], new([]multicall3Call)).(*[]multicall3Call)

	var batch []chainCall
	results := make([]multicall3Result, 0, len(calls))
	for _, c := range calls {
		if !c.AllowFailure {
			return nil, fmt.Errorf("call without allowFailure")
		}
		method, err := methodByID(c.CallData)
		if err != nil {
			return nil, err
		}
		args, err := method.Inputs.Unpack(c.CallData[4:])
		if err != nil {
			return nil, err
		}
		call := chainCall{target: c.Target, method: method.Name, args: args}
		batch = append(batch, call)

		value, ok := f.respond(call)
		if !ok {
			results = append(results, multicall3Result{Success: false, ReturnData: []byte{}})
			continue
		}
		ret, err := method.Outputs.Pack(value)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method.Name, err)
		}
		results = append(results, multicall3Result{Success: true, ReturnData: ret})
	}
	f.batches = append(f.batches, batch)
	results = results[:len(results)-min(f.drop, len(results))]
	return aggregate.Outputs.Pack(results)
}

func methodByID(data []byte) (*abi.Method, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("call data too short")
	}
	for _, a := range []*abi.ABI{contracts.TradePoolABI, contracts.ERC20ABI, contracts.Multicall3ABI} {
		if m, err := a.MethodById(data[:4]); err == nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown selector %x", data[:4])
}

var testMulticall = common.HexToAddress("0x00000000000000000000000000000000000000ca")

func newChainReader(chain *fakeChain) *MulticallReader {
	r, err := NewMulticallReader(NewMulticallReaderOptions{Caller: chain})
	if err != nil {
		panic(err)
	}
	return r
}

// ═══════════════════════════════════════════════════════════════
// FAKE COLLABORATORS
// ═══════════════════════════════════════════════════════════════

type fakeBatchReader struct {
	mu          sync.Mutex
	executeFunc func(ctx context.Context, requests []types.ReadRequest) ([]types.ReadOutcome, error)
	batches     [][]types.ReadRequest
}

func (f *fakeBatchReader) Execute(ctx context.Context, requests []types.ReadRequest) ([]types.ReadOutcome, error) {
	f.mu.Lock()
	f.batches = append(f.batches, requests)
	f.mu.Unlock()
	if f.executeFunc != nil {
		return f.executeFunc(ctx, requests)
	}
	return make([]types.ReadOutcome, len(requests)), nil
}

type fakeCatalog struct {
	listAllFunc  func(ctx context.Context) ([]types.Market, error)
	getFunc      func(ctx context.Context, marketID string) (*types.Market, error)
	getIDFunc    func(ctx context.Context, marketAddress string) (string, error)
	listAllCalls int
}

var _ types.IMarketCatalog = (*fakeCatalog)(nil)

func (f *fakeCatalog) ListMarkets(ctx context.Context, _ types.ListMarketsInput) ([]types.Market, error) {
	return f.ListAllMarkets(ctx)
}

func (f *fakeCatalog) ListAllMarkets(ctx context.Context) ([]types.Market, error) {
	f.listAllCalls++
	if f.listAllFunc != nil {
		return f.listAllFunc(ctx)
	}
	return nil, nil
}

func (f *fakeCatalog) GetMarket(ctx context.Context, marketID string) (*types.Market, error) {
	if f.getFunc != nil {
		return f.getFunc(ctx, marketID)
	}
	return nil, types.DataShapeErrorf("no market %s", marketID)
}

func (f *fakeCatalog) GetMarketID(ctx context.Context, marketAddress string) (string, error) {
	if f.getIDFunc != nil {
		return f.getIDFunc(ctx, marketAddress)
	}
	return "", types.DataShapeErrorf("no market found with address %s", marketAddress)
}

func (f *fakeCatalog) GetMarketAddress(ctx context.Context, marketID string) (util.EthereumAddress, error) {
	m, err := f.GetMarket(ctx, marketID)
	if err != nil {
		return util.EthereumAddress{}, err
	}
	return m.ContractAddress, nil
}

type fakePositions struct {
	getPositionsFunc func(ctx context.Context, input types.GetPositionsInput) (*types.PositionsResult, error)
	getByMarketFunc  func(ctx context.Context, input types.GetPositionByMarketInput) (*types.MarketPosition, error)
}

var _ types.IPositions = (*fakePositions)(nil)

func (f *fakePositions) GetPositions(ctx context.Context, input types.GetPositionsInput) (*types.PositionsResult, error) {
	if f.getPositionsFunc != nil {
		return f.getPositionsFunc(ctx, input)
	}
	return &types.PositionsResult{}, nil
}

func (f *fakePositions) GetPositionByMarket(ctx context.Context, input types.GetPositionByMarketInput) (*types.MarketPosition, error) {
	if f.getByMarketFunc != nil {
		return f.getByMarketFunc(ctx, input)
	}
	return nil, fmt.Errorf("unexpected GetPositionByMarket")
}

func (f *fakePositions) GetLPPosition(context.Context, types.GetLPPositionInput) (*types.LPPosition, error) {
	return nil, fmt.Errorf("unexpected GetLPPosition")
}

type fakeLedger struct {
	historyFunc func(ctx context.Context, input types.TradeHistoryInput) (*types.TransactionsResult, error)
}

var _ types.ITradeLedger = (*fakeLedger)(nil)

func (f *fakeLedger) GetTransactions(context.Context, types.GetTransactionsInput) (*types.TransactionsResult, error) {
	return nil, fmt.Errorf("unexpected GetTransactions")
}

func (f *fakeLedger) GetTradeHistory(ctx context.Context, input types.TradeHistoryInput) (*types.TransactionsResult, error) {
	if f.historyFunc != nil {
		return f.historyFunc(ctx, input)
	}
	return &types.TransactionsResult{}, nil
}

// ═══════════════════════════════════════════════════════════════
// FIXTURES
// ═══════════════════════════════════════════════════════════════

const testWallet = "0x1111111111111111111111111111111111111111"

var (
	walletAddr = util.MustNewEthereumAddressFromString(testWallet)
	otherAddr  = util.MustNewEthereumAddressFromString("0x2222222222222222222222222222222222222222")
	thirdAddr  = util.MustNewEthereumAddressFromString("0x3333333333333333333333333333333333333333")
)

func marketAt(n int) util.EthereumAddress {
	return util.NewEthereumAddress(common.BigToAddress(big.NewInt(int64(0xa000 + n))))
}

func testMarket(n int, options ...string) types.Market {
	m := types.Market{
		ID:              fmt.Sprintf("market-%d", n),
		Title:           fmt.Sprintf("Market %d", n),
		Status:          types.MarketStatusLive,
		ContractAddress: marketAt(n),
	}
	for i, name := range options {
		m.Options = append(m.Options, types.MarketOption{ChoiceIndex: i, OptionName: name})
	}
	return m
}

func bi(v int64) *big.Int {
	return big.NewInt(v)
}

func intPtr(v int) *int {
	return &v
}

func bigs(values ...int64) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = big.NewInt(v)
	}
	return out
}

// assertBig compares big integers by value; reflect-based equality tells
// apart a zero built by NewInt from one decoded from bytes.
func assertBig(t *testing.T, want int64, got *big.Int, msgAndArgs ...any) {
	t.Helper()
	if got == nil {
		assert.Fail(t, "big.Int is nil", msgAndArgs...)
		return
	}
	assert.Equal(t, big.NewInt(want).String(), got.String(), msgAndArgs...)
}
