package rainclient

import (
	"context"

	"github.com/rain-one/sdk-go/core/types"
)

func (c *Client) GetPositions(ctx context.Context, input types.GetPositionsInput) (*types.PositionsResult, error) {
	return c.positions.GetPositions(ctx, input)
}

func (c *Client) GetPositionByMarket(ctx context.Context, input types.GetPositionByMarketInput) (*types.MarketPosition, error) {
	return c.positions.GetPositionByMarket(ctx, input)
}

func (c *Client) GetLPPosition(ctx context.Context, input types.GetLPPositionInput) (*types.LPPosition, error) {
	return c.positions.GetLPPosition(ctx, input)
}

func (c *Client) GetPortfolioValue(ctx context.Context, input types.GetPortfolioValueInput) (*types.PortfolioValue, error) {
	return c.portfolio.GetPortfolioValue(ctx, input)
}

// GetPnL requires Config.SubgraphURL.
func (c *Client) GetPnL(ctx context.Context, input types.GetPnLInput) (*types.PnLResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if c.pnl == nil {
		return nil, subgraphRequired("GetPnL")
	}
	return c.pnl.GetPnL(ctx, input)
}

func (c *Client) ListMarkets(ctx context.Context, input types.ListMarketsInput) ([]types.Market, error) {
	return c.catalog.ListMarkets(ctx, input)
}

func (c *Client) GetMarket(ctx context.Context, marketID string) (*types.Market, error) {
	return c.catalog.GetMarket(ctx, marketID)
}

func (c *Client) GetMarketID(ctx context.Context, marketAddress string) (string, error) {
	return c.catalog.GetMarketID(ctx, marketAddress)
}

// GetMarketAddress returns the checksummed contract address of a market.
func (c *Client) GetMarketAddress(ctx context.Context, marketID string) (string, error) {
	addr, err := c.catalog.GetMarketAddress(ctx, marketID)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

// GetTransactions requires Config.SubgraphURL.
func (c *Client) GetTransactions(ctx context.Context, input types.GetTransactionsInput) (*types.TransactionsResult, error) {
	if c.ledger == nil {
		return nil, subgraphRequired("GetTransactions")
	}
	return c.ledger.GetTransactions(ctx, input)
}

// GetTradeHistory requires Config.SubgraphURL.
func (c *Client) GetTradeHistory(ctx context.Context, input types.TradeHistoryInput) (*types.TransactionsResult, error) {
	if c.ledger == nil {
		return nil, subgraphRequired("GetTradeHistory")
	}
	return c.ledger.GetTradeHistory(ctx, input)
}

func subgraphRequired(op string) error {
	return types.ValidationErrorf("subgraph url is required for %s", op)
}
