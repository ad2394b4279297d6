package types

import (
	"context"
)

// Client is the full read surface of the SDK.
type Client interface {
	IPositions
	IPnL
	IPortfolio

	// ListMarkets fetches one page of the public market catalog
	ListMarkets(ctx context.Context, input ListMarketsInput) ([]Market, error)
	// GetMarket fetches one catalog record by id
	GetMarket(ctx context.Context, marketID string) (*Market, error)
	// GetMarketID resolves a contract address to its catalog id
	GetMarketID(ctx context.Context, marketAddress string) (string, error)
	// GetMarketAddress resolves a catalog id to its contract address
	GetMarketAddress(ctx context.Context, marketID string) (string, error)

	// GetTransactions returns a window of a wallet's ledger events
	GetTransactions(ctx context.Context, input GetTransactionsInput) (*TransactionsResult, error)
	// GetTradeHistory returns a wallet's full ledger history, oldest first
	GetTradeHistory(ctx context.Context, input TradeHistoryInput) (*TransactionsResult, error)

	// Close releases the RPC connection if the client opened it
	Close()
}
