package contractsapi

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rain-one/sdk-go/core/contracts"
	"github.com/rain-one/sdk-go/core/logging"
	"github.com/rain-one/sdk-go/core/types"
	"go.uber.org/zap"
)

// ContractCaller is the slice of *ethclient.Client the batch reader needs.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// MulticallReader implements IBatchReader on top of Multicall3's aggregate3,
// sending every request with allowFailure set so that one reverting call
// cannot abort its siblings. The whole batch is a single eth_call.
type MulticallReader struct {
	caller      ContractCaller
	multicall   common.Address
	blockNumber *big.Int
	logger      *zap.Logger
}

var _ types.IBatchReader = (*MulticallReader)(nil)

// multicall3Call and multicall3Result mirror Multicall3.Call3 and
// Multicall3.Result; field names must match the ABI component names.
type multicall3Call struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

type multicall3Result struct {
	Success    bool
	ReturnData []byte
}

// NewMulticallReaderOptions contains options for creating a MulticallReader
type NewMulticallReaderOptions struct {
	Caller ContractCaller
	// MulticallAddress defaults to contracts.Multicall3Address
	MulticallAddress *common.Address
	// BlockNumber pins reads to a block; nil reads latest
	BlockNumber *big.Int
	Logger      *zap.Logger
}

// NewMulticallReader creates a batch reader bound to caller.
func NewMulticallReader(options NewMulticallReaderOptions) (*MulticallReader, error) {
	if options.Caller == nil {
		return nil, types.ValidationErrorf("contract caller is required")
	}
	addr := contracts.Multicall3Address
	if options.MulticallAddress != nil {
		addr = *options.MulticallAddress
	}
	return &MulticallReader{
		caller:      options.Caller,
		multicall:   addr,
		blockNumber: options.BlockNumber,
		logger:      logging.OrDefault(options.Logger),
	}, nil
}

// Execute runs all requests in one round trip. See types.IBatchReader.
func (r *MulticallReader) Execute(ctx context.Context, requests []types.ReadRequest) ([]types.ReadOutcome, error) {
	outcomes := make([]types.ReadOutcome, len(requests))
	if len(requests) == 0 {
		return outcomes, nil
	}

	// sent[i] is the request index of the i-th call actually put on the wire.
	// Requests that cannot be encoded are failed locally and not sent.
	calls := make([]multicall3Call, 0, len(requests))
	sent := make([]int, 0, len(requests))
	for i, req := range requests {
		data, err := encodeRequest(req)
		if err != nil {
			outcomes[i] = failedOutcome(err, "encode %s", req.Method)
			continue
		}
		calls = append(calls, multicall3Call{
			Target:       req.Target.Common(),
			AllowFailure: true,
			CallData:     data,
		})
		sent = append(sent, i)
	}

	r.logger.Debug("executing batched read",
		zap.Int("requests", len(requests)),
		zap.Int("sent", len(calls)))

	if len(calls) == 0 {
		return outcomes, nil
	}

	payload, err := contracts.Multicall3ABI.Pack(contracts.MethodAggregate3, calls)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode aggregate3")
	}

	to := r.multicall
	raw, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: payload}, r.blockNumber)
	if err != nil {
		return nil, types.WrapUpstream(err, "batched read of %d calls", len(calls))
	}

	results, err := decodeAggregate3(raw)
	if err != nil {
		return nil, err
	}
	if len(results) != len(calls) {
		return nil, types.DataShapeErrorf("aggregate3 returned %d results for %d calls", len(results), len(calls))
	}

	for j, res := range results {
		i := sent[j]
		outcomes[i] = decodeOutcome(requests[i], res)
	}
	return outcomes, nil
}

func encodeRequest(req types.ReadRequest) ([]byte, error) {
	if req.ABI == nil {
		return nil, errors.New("request has no ABI")
	}
	if req.Target.IsZero() {
		return nil, errors.New("request has no target")
	}
	return req.ABI.Pack(req.Method, req.Args...)
}

func decodeAggregate3(raw []byte) ([]multicall3Result, error) {
	out, err := contracts.Multicall3ABI.Unpack(contracts.MethodAggregate3, raw)
	if err != nil {
		return nil, types.DataShapeErrorf("cannot decode aggregate3 response: %v", err)
	}
	if len(out) != 1 {
		return nil, types.DataShapeErrorf("aggregate3 returned %d values, expected 1", len(out))
	}
	converted, ok := abi.ConvertType(out[0], new([]multicall3Result)).(*[]multicall3Result)
	if !ok {
		return nil, types.DataShapeErrorf("aggregate3 result has unexpected type %T", out[0])
	}
	return *converted, nil
}

func decodeOutcome(req types.ReadRequest, res multicall3Result) types.ReadOutcome {
	if !res.Success {
		return failedOutcome(nil, "%s reverted", req.Method)
	}
	values, err := req.ABI.Unpack(req.Method, res.ReturnData)
	if err != nil {
		return failedOutcome(err, "decode %s", req.Method)
	}
	if len(values) == 0 {
		return failedOutcome(nil, "%s returned no values", req.Method)
	}
	return types.ReadOutcome{Value: values[0]}
}

func failedOutcome(cause error, format string, args ...any) types.ReadOutcome {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return types.ReadOutcome{Err: errors.Wrap(types.ErrReadFailed, msg)}
}
