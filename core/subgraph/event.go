package subgraph

import (
	"bytes"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rain-one/sdk-go/core/types"
	"github.com/rain-one/sdk-go/core/util"
)

// numeric holds a subgraph integer, which arrives either as a JSON string
// (BigInt) or as a JSON number (Int).
type numeric string

func (n *numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		*n = numeric(s)
		return nil
	}
	*n = numeric(b)
	return nil
}

func (n *numeric) bigInt(field string) (*big.Int, error) {
	if n == nil {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(string(*n), 10)
	if !ok {
		return nil, types.DataShapeErrorf("%s is not an integer: %q", field, string(*n))
	}
	return v, nil
}

func (n *numeric) smallInt(field string) (*int, error) {
	if n == nil {
		return nil, nil
	}
	v, err := strconv.Atoi(string(*n))
	if err != nil {
		return nil, types.DataShapeErrorf("%s is not an integer: %q", field, string(*n))
	}
	return &v, nil
}

// rawEvent is the union of every collection's fields.
type rawEvent struct {
	ID              string   `json:"id"`
	PoolAddress     string   `json:"poolAddress"`
	TransactionHash string   `json:"transactionHash"`
	BlockNumber     *numeric `json:"blockNumber"`
	BlockTimestamp  *numeric `json:"blockTimestamp"`

	Wallet       *string `json:"wallet"`
	Maker        *string `json:"maker"`
	Taker        *string `json:"taker"`
	OrderCreator *string `json:"orderCreator"`

	Option       *numeric `json:"option"`
	OrderOption  *numeric `json:"orderOption"`
	BaseAmount   *numeric `json:"baseAmount"`
	OptionAmount *numeric `json:"optionAmount"`
	OrderAmount  *numeric `json:"orderAmount"`
	OrderPrice   *numeric `json:"orderPrice"`
	OrderID      *numeric `json:"orderID"`

	WinnerOption    *numeric `json:"winnerOption"`
	Reward          *numeric `json:"reward"`
	LiquidityReward *numeric `json:"liquidityReward"`
	TotalReward     *numeric `json:"totalReward"`
}

func (r rawEvent) toEvent(t types.TradeEventType) (types.TradeEvent, error) {
	if r.ID == "" {
		return types.TradeEvent{}, types.DataShapeErrorf("%s event without id", t)
	}
	ev := types.TradeEvent{
		Type:            t,
		ID:              r.ID,
		TransactionHash: r.TransactionHash,
	}

	var err error
	if ev.MarketAddress, err = util.NewEthereumAddressFromString(r.PoolAddress); err != nil {
		return ev, types.DataShapeErrorf("event %s: poolAddress: %v", r.ID, err)
	}
	if r.BlockTimestamp == nil || r.BlockNumber == nil {
		return ev, types.DataShapeErrorf("event %s: missing block number or timestamp", r.ID)
	}
	ts, err := strconv.ParseInt(string(*r.BlockTimestamp), 10, 64)
	if err != nil {
		return ev, types.DataShapeErrorf("event %s: blockTimestamp %q", r.ID, string(*r.BlockTimestamp))
	}
	ev.Timestamp = ts
	bn, err := strconv.ParseUint(string(*r.BlockNumber), 10, 64)
	if err != nil {
		return ev, types.DataShapeErrorf("event %s: blockNumber %q", r.ID, string(*r.BlockNumber))
	}
	ev.BlockNumber = bn

	for _, a := range []struct {
		raw *string
		dst *util.EthereumAddress
	}{
		{firstNonNil(r.Wallet, r.Maker, r.OrderCreator, r.Taker), &ev.Wallet},
		{r.Maker, &ev.Maker},
		{r.Taker, &ev.Taker},
	} {
		if a.raw == nil || *a.raw == "" {
			continue
		}
		if *a.dst, err = util.NewEthereumAddressFromString(*a.raw); err != nil {
			return ev, types.DataShapeErrorf("event %s: %v", r.ID, err)
		}
	}

	// orderOption and orderAmount are the order collections' names for
	// option and optionAmount.
	option := r.Option
	if r.OrderOption != nil {
		option = r.OrderOption
	}
	optionAmount := r.OptionAmount
	if r.OrderAmount != nil {
		optionAmount = r.OrderAmount
	}

	steps := []func() error{
		func() (err error) { ev.Option, err = option.smallInt("option"); return },
		func() (err error) { ev.BaseAmount, err = r.BaseAmount.bigInt("baseAmount"); return },
		func() (err error) { ev.OptionAmount, err = optionAmount.bigInt("optionAmount"); return },
		func() (err error) { ev.Price, err = r.OrderPrice.bigInt("orderPrice"); return },
		func() (err error) { ev.WinnerOption, err = r.WinnerOption.smallInt("winnerOption"); return },
		func() (err error) { ev.Reward, err = r.Reward.bigInt("reward"); return },
		func() (err error) { ev.LiquidityReward, err = r.LiquidityReward.bigInt("liquidityReward"); return },
		func() (err error) { ev.TotalReward, err = r.TotalReward.bigInt("totalReward"); return },
		func() error {
			if r.OrderID == nil {
				return nil
			}
			id, err := strconv.ParseInt(string(*r.OrderID), 10, 64)
			if err != nil {
				return types.DataShapeErrorf("orderID is not an integer: %q", string(*r.OrderID))
			}
			ev.OrderID = &id
			return nil
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return ev, errors.Wrapf(err, "event %s", r.ID)
		}
	}
	return ev, nil
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
