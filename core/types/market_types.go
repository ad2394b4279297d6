package types

import (
	"context"

	"github.com/rain-one/sdk-go/core/util"
)

// ═══════════════════════════════════════════════════════════════
// INTERFACES
// ═══════════════════════════════════════════════════════════════

// IMarketCatalog is the off-chain market catalog (REST API). Implementations
// hide the raw response envelopes; callers only ever see Market values.
type IMarketCatalog interface {
	// ListMarkets fetches a single page of public markets.
	ListMarkets(ctx context.Context, input ListMarketsInput) ([]Market, error)

	// ListAllMarkets pages through the whole catalog until a short page.
	ListAllMarkets(ctx context.Context) ([]Market, error)

	// GetMarket fetches one market by its catalog id. A market without a
	// deployed contract address is a DataShape error.
	GetMarket(ctx context.Context, marketID string) (*Market, error)

	// GetMarketID resolves a contract address to its catalog id.
	GetMarketID(ctx context.Context, marketAddress string) (string, error)

	// GetMarketAddress resolves a catalog id to its contract address.
	GetMarketAddress(ctx context.Context, marketID string) (util.EthereumAddress, error)
}

// ═══════════════════════════════════════════════════════════════
// MARKET TYPES
// ═══════════════════════════════════════════════════════════════

// MarketStatus is the catalog lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusNew              MarketStatus = "New"
	MarketStatusLive             MarketStatus = "Live"
	MarketStatusWaitingForResult MarketStatus = "Waiting_for_Result"
	MarketStatusUnderDispute     MarketStatus = "Under_Dispute"
	MarketStatusUnderAppeal      MarketStatus = "Under_Appeal"
	MarketStatusClosed           MarketStatus = "Closed"
	MarketStatusClosingSoon      MarketStatus = "Closing_Soon"
	MarketStatusInReview         MarketStatus = "Dispute_Window_Open"
	MarketStatusInEvaluation     MarketStatus = "Appeal_Window_Open"
	MarketStatusTrading          MarketStatus = "Pending_Finalization"

	// MarketStatusUnknown is reported for markets only known from trade history.
	MarketStatusUnknown MarketStatus = "unknown"
)

// MarketSortBy orders a catalog listing.
type MarketSortBy string

const (
	MarketSortByLiquidity MarketSortBy = "Liquidity"
	MarketSortByVolume    MarketSortBy = "Volumn" // sic, matches the API
	MarketSortByLatest    MarketSortBy = "latest"
)

// MarketOption is one outcome of a market as described by the catalog.
type MarketOption struct {
	ChoiceIndex int
	OptionName  string
}

// Market is one catalog record. ContractAddress is zero for markets that
// have not been deployed on-chain yet.
type Market struct {
	ID              string
	Title           string
	Status          MarketStatus
	ContractAddress util.EthereumAddress
	Options         []MarketOption
}

// HasContract reports whether the market has a deployed contract.
func (m Market) HasContract() bool {
	return !m.ContractAddress.IsZero()
}

// ListMarketsInput selects one catalog page.
type ListMarketsInput struct {
	Limit  int          `validate:"gte=0,lte=1000"`
	Offset int          `validate:"gte=0"`
	SortBy MarketSortBy `validate:"omitempty,oneof=Liquidity Volumn latest"`
	Status MarketStatus
}

func (i ListMarketsInput) Validate() error {
	return validateStruct(i)
}
