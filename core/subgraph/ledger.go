package subgraph

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rain-one/sdk-go/core/types"
	"github.com/rain-one/sdk-go/core/util"
	"go.uber.org/zap"
)

const (
	defaultFirst = 20

	// historyPageSize is the per-entity page length when reading a full history.
	historyPageSize = 1000

	takerSuffix = "AsTaker"
)

// entity describes one event collection of the subgraph.
type entity struct {
	name         string
	eventType    types.TradeEventType
	addressField string
	fields       string
	// hasTaker entities are queried a second time filtered on taker.
	hasTaker bool
}

const (
	placeOrderFields   = "id poolAddress orderOption orderPrice orderAmount orderID maker blockNumber blockTimestamp transactionHash"
	executeOrderFields = "id poolAddress orderOption orderPrice optionAmount baseAmount orderID maker taker blockNumber blockTimestamp transactionHash"
	cancelOrderFields  = "id poolAddress orderOption orderAmount orderPrice orderID orderCreator blockNumber blockTimestamp transactionHash"
)

var entities = []entity{
	{"enterOptions", types.TradeEventBuy, "wallet",
		"id poolAddress option baseAmount optionAmount wallet blockNumber blockTimestamp transactionHash", false},
	{"placeBuyOrders", types.TradeEventLimitBuyPlaced, "maker", placeOrderFields, false},
	{"placeSellOrders", types.TradeEventLimitSellPlaced, "maker", placeOrderFields, false},
	{"executeBuyOrders", types.TradeEventLimitBuyFilled, "maker", executeOrderFields, true},
	{"executeSellOrders", types.TradeEventLimitSellFilled, "maker", executeOrderFields, true},
	{"cancelBuyOrders", types.TradeEventCancelBuy, "orderCreator", cancelOrderFields, false},
	{"cancelSellOrders", types.TradeEventCancelSell, "orderCreator", cancelOrderFields, false},
	{"enterLiquiditys", types.TradeEventAddLiquidity, "wallet",
		"id poolAddress baseAmount wallet blockNumber blockTimestamp transactionHash", false},
	{"claims", types.TradeEventClaim, "wallet",
		"id poolAddress wallet winnerOption liquidityReward reward totalReward blockNumber blockTimestamp transactionHash", false},
}

// selection is one aliased collection in a query: an entity filtered on
// either its own address field or on taker.
type selection struct {
	alias        string
	entity       entity
	addressField string
}

func selectionsFor(eventTypes []types.TradeEventType) []selection {
	var out []selection
	for _, e := range entities {
		if len(eventTypes) > 0 && !slices.Contains(eventTypes, e.eventType) {
			continue
		}
		out = append(out, selection{alias: e.name, entity: e, addressField: e.addressField})
		if e.hasTaker {
			out = append(out, selection{alias: e.name + takerSuffix, entity: e, addressField: "taker"})
		}
	}
	return out
}

// filter is the shared part of every selection's where clause.
type filter struct {
	address string
	market  string
	from    *int64
	to      *int64
}

func (f filter) where(addressField string) string {
	parts := []string{fmt.Sprintf("%s: %q", addressField, f.address)}
	if f.market != "" {
		parts = append(parts, fmt.Sprintf("poolAddress: %q", f.market))
	}
	if gte := util.TransformOrNil(f.from, timestampArg); gte != nil {
		parts = append(parts, fmt.Sprintf("blockTimestamp_gte: %q", gte))
	}
	if lte := util.TransformOrNil(f.to, timestampArg); lte != nil {
		parts = append(parts, fmt.Sprintf("blockTimestamp_lte: %q", lte))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// timestampArg renders a BigInt filter argument; the indexer takes them as strings.
func timestampArg(ts int64) any { return strconv.FormatInt(ts, 10) }

func buildQuery(sels []selection, f filter, dir types.OrderDirection, first, skip int) string {
	var b strings.Builder
	b.WriteString("{\n")
	for _, s := range sels {
		fmt.Fprintf(&b, "  ")
		if s.alias != s.entity.name {
			fmt.Fprintf(&b, "%s: ", s.alias)
		}
		fmt.Fprintf(&b, "%s(where: %s, orderBy: blockTimestamp, orderDirection: %s, first: %d",
			s.entity.name, f.where(s.addressField), dir, first)
		if skip > 0 {
			fmt.Fprintf(&b, ", skip: %d", skip)
		}
		fmt.Fprintf(&b, ") { %s }\n", s.entity.fields)
	}
	b.WriteString("}")
	return b.String()
}

// ═══════════════════════════════════════════════════════════════
// LEDGER
// ═══════════════════════════════════════════════════════════════

// GetTransactions merges every selected collection and returns the
// [Skip, Skip+First) window of the result in the requested order. Each
// collection is fetched First+Skip deep so the window is exact.
func (c *Client) GetTransactions(ctx context.Context, input types.GetTransactionsInput) (*types.TransactionsResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	first := input.First
	if first == 0 {
		first = defaultFirst
	}
	dir := input.OrderDirection
	if dir == "" {
		dir = types.OrderDesc
	}

	f := filter{
		address: strings.ToLower(input.Address),
		market:  strings.ToLower(input.MarketAddress),
		from:    input.FromTimestamp,
		to:      input.ToTimestamp,
	}
	sels := selectionsFor(input.Types)

	var data map[string][]rawEvent
	if err := c.Query(ctx, buildQuery(sels, f, dir, first+input.Skip, 0), &data); err != nil {
		return nil, err
	}

	var m merger
	if _, err := m.addAll(sels, data); err != nil {
		return nil, err
	}
	events := m.sorted(dir)

	lo := min(input.Skip, len(events))
	hi := min(input.Skip+first, len(events))
	return &types.TransactionsResult{
		Address:      util.MustNewEthereumAddressFromString(input.Address),
		Transactions: events[lo:hi],
		Total:        len(events),
	}, nil
}

// GetTradeHistory reads the complete history, oldest first, paging every
// collection until it returns a short page.
func (c *Client) GetTradeHistory(ctx context.Context, input types.TradeHistoryInput) (*types.TransactionsResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	from, to := input.TimestampBounds()
	f := filter{
		address: strings.ToLower(input.Address),
		market:  strings.ToLower(input.MarketAddress),
		from:    from,
		to:      to,
	}

	var m merger
	active := selectionsFor(input.Types)
	for skip := 0; len(active) > 0; skip += historyPageSize {
		var data map[string][]rawEvent
		if err := c.Query(ctx, buildQuery(active, f, types.OrderAsc, historyPageSize, skip), &data); err != nil {
			return nil, err
		}
		added, err := m.addAll(active, data)
		if err != nil {
			return nil, err
		}

		var next []selection
		for _, s := range active {
			if len(data[s.alias]) == historyPageSize {
				next = append(next, s)
			}
		}
		// A page of nothing but already-seen ids means the indexer is not
		// honouring skip; stop rather than loop.
		if added == 0 {
			break
		}
		active = next
	}

	events := m.sorted(types.OrderAsc)
	c.logger.Debug("trade history fetched",
		zap.String("wallet", f.address),
		zap.Int("events", len(events)))
	return &types.TransactionsResult{
		Address:      util.MustNewEthereumAddressFromString(input.Address),
		Transactions: events,
		Total:        len(events),
	}, nil
}

// merger accumulates events from several collections, dropping repeated ids.
type merger struct {
	seen   map[string]struct{}
	events []types.TradeEvent
}

func (m *merger) addAll(sels []selection, data map[string][]rawEvent) (int, error) {
	if m.seen == nil {
		m.seen = make(map[string]struct{})
	}
	added := 0
	for _, s := range sels {
		for _, raw := range data[s.alias] {
			if _, dup := m.seen[raw.ID]; dup {
				continue
			}
			ev, err := raw.toEvent(s.entity.eventType)
			if err != nil {
				return added, err
			}
			m.seen[raw.ID] = struct{}{}
			m.events = append(m.events, ev)
			added++
		}
	}
	return added, nil
}

func (m *merger) sorted(dir types.OrderDirection) []types.TradeEvent {
	out := slices.Clone(m.events)
	slices.SortStableFunc(out, func(a, b types.TradeEvent) int {
		if dir == types.OrderDesc {
			a, b = b, a
		}
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	if out == nil {
		out = []types.TradeEvent{}
	}
	return out
}
