package contractsapi

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/rain-one/sdk-go/core/types"
	"github.com/rain-one/sdk-go/core/util"
)

// span locates one group of requests inside a flat batch.
type span struct {
	start int
	count int
}

// batchBuilder accumulates requests for a single IBatchReader call and hands
// back a span per group, so readers never compute offsets by hand.
type batchBuilder struct {
	requests []types.ReadRequest
}

func (b *batchBuilder) begin() int {
	return len(b.requests)
}

func (b *batchBuilder) add(target util.EthereumAddress, contractABI *abi.ABI, method string, args ...any) {
	b.requests = append(b.requests, types.ReadRequest{
		Target: target,
		ABI:    contractABI,
		Method: method,
		Args:   args,
	})
}

func (b *batchBuilder) end(start int) span {
	return span{start: start, count: len(b.requests) - start}
}

// readCursor consumes the outcomes of one span in the order the span's
// requests were added. Every accessor advances by exactly one entry and
// substitutes its documented default for a failed or mistyped entry.
type readCursor struct {
	outcomes []types.ReadOutcome
	next     int
	failures int
}

// newCursor returns a cursor over s. The outcome slice is positionally
// aligned with the builder's requests, so a span that does not fit means
// the reader broke its contract.
func newCursor(outcomes []types.ReadOutcome, s span) (*readCursor, error) {
	if s.start < 0 || s.count < 0 || s.start+s.count > len(outcomes) {
		return nil, types.DataShapeErrorf("batch returned %d outcomes, span [%d,+%d) out of range",
			len(outcomes), s.start, s.count)
	}
	return &readCursor{outcomes: outcomes[s.start : s.start+s.count]}, nil
}

func (c *readCursor) take() (any, bool) {
	if c.next >= len(c.outcomes) {
		c.failures++
		return nil, false
	}
	o := c.outcomes[c.next]
	c.next++
	if !o.Succeeded() {
		c.failures++
		return nil, false
	}
	return o.Value, true
}

// Uint reads a uint256; default 0.
func (c *readCursor) Uint() *big.Int {
	v, ok := c.take()
	if ok {
		if b, isBig := v.(*big.Int); isBig && b != nil {
			return new(big.Int).Set(b)
		}
		c.failures++
	}
	return new(big.Int)
}

// Bool reads a bool; default false.
func (c *readCursor) Bool() bool {
	v, ok := c.take()
	if ok {
		if b, isBool := v.(bool); isBool {
			return b
		}
		c.failures++
	}
	return false
}

// UintSlice reads a uint256[]; default empty.
func (c *readCursor) UintSlice() []*big.Int {
	v, ok := c.take()
	if ok {
		if s, isSlice := v.([]*big.Int); isSlice {
			out := make([]*big.Int, len(s))
			for i, b := range s {
				out[i] = new(big.Int).Set(util.BigOrZero(b))
			}
			return out
		}
		c.failures++
	}
	return []*big.Int{}
}

// Uint64 reads any unsigned integer that fits in 64 bits. ok is false for a
// failed, mistyped, or oversized entry.
func (c *readCursor) Uint64() (uint64, bool) {
	v, ok := c.take()
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case *big.Int:
		if n != nil && n.IsUint64() {
			return n.Uint64(), true
		}
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	}
	c.failures++
	return 0, false
}

// String reads a string, returning def on failure.
func (c *readCursor) String(def string) string {
	v, ok := c.take()
	if ok {
		if s, isString := v.(string); isString {
			return s
		}
		c.failures++
	}
	return def
}

// Failures is the number of entries consumed so far that fell back to a default.
func (c *readCursor) Failures() int {
	return c.failures
}
