package types

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/rain-one/sdk-go/core/util"
)

// IBatchReader executes many independent read-only contract calls in a single
// round trip.
//
// The returned slice always has the same length and order as the requests.
// A failing entry is reported in its ReadOutcome and never affects its
// siblings; only a failure of the round trip itself is returned as an error.
// Implementations do not retry.
type IBatchReader interface {
	Execute(ctx context.Context, requests []ReadRequest) ([]ReadOutcome, error)
}

// ReadRequest is one view call: a method of Target's ABI with its arguments.
type ReadRequest struct {
	Target util.EthereumAddress
	ABI    *abi.ABI
	Method string
	Args   []any
}

// ReadOutcome is the result of one ReadRequest. Value holds the first return
// value as decoded by go-ethereum (*big.Int for uintN, bool, []*big.Int for
// uint256[], string, common.Address). Err is non-nil for a failed entry and
// always matches ErrReadFailed.
type ReadOutcome struct {
	Value any
	Err   error
}

// Succeeded reports whether the entry carries a value.
func (o ReadOutcome) Succeeded() bool {
	return o.Err == nil
}
