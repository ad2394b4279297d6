// Package rainclient is the entry point of the SDK. It wires the market
// catalog, the trade ledger and the on-chain batch reader into one Client.
package rainclient

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/rain-one/sdk-go/core/config"
	"github.com/rain-one/sdk-go/core/contractsapi"
	"github.com/rain-one/sdk-go/core/logging"
	"github.com/rain-one/sdk-go/core/marketsapi"
	"github.com/rain-one/sdk-go/core/subgraph"
	"github.com/rain-one/sdk-go/core/types"
	"github.com/rain-one/sdk-go/core/util"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config selects the endpoints the client talks to. APIURL may be left empty
// when Environment is set; RPCURL defaults to a public Arbitrum endpoint.
// SubgraphURL is only needed for GetPnL and the ledger reads.
type Config struct {
	Environment    config.Environment `validate:"omitempty,oneof=development stage production"`
	APIURL         string             `validate:"required,url"`
	RPCURL         string             `validate:"omitempty,url"`
	SubgraphURL    string             `validate:"omitempty,url"`
	SubgraphAPIKey string
}

type Client struct {
	config  Config
	factory util.EthereumAddress
	logger  *zap.Logger

	httpClient *http.Client
	limit      *rateLimit
	multicall  *common.Address
	caller     contractsapi.ContractCaller
	ethClient  *ethclient.Client
	reader     types.IBatchReader

	catalog   *marketsapi.Client
	ledger    *subgraph.Client
	positions *contractsapi.Positions
	portfolio *contractsapi.Portfolio
	pnl       *contractsapi.PnLEngine
}

var _ types.Client = (*Client)(nil)

type rateLimit struct {
	perSec float64
	burst  int
}

type Option func(*Client)

// NewClient resolves cfg, dials the RPC endpoint unless a caller or batch
// reader was supplied, and assembles the read components.
func NewClient(ctx context.Context, cfg Config, options ...Option) (*Client, error) {
	c := &Client{config: cfg}
	for _, option := range options {
		option(c)
	}
	c.logger = logging.OrDefault(c.logger)

	if c.config.Environment != "" {
		preset, err := config.Lookup(c.config.Environment)
		if err != nil {
			return nil, err
		}
		if c.config.APIURL == "" {
			c.config.APIURL = preset.APIURL
		}
		c.factory = preset.MarketFactoryAddress
	}
	if c.config.RPCURL == "" && c.reader == nil && c.caller == nil {
		c.config.RPCURL = config.RandomRPC()
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := c.initReader(ctx); err != nil {
		return nil, err
	}
	if err := c.initComponents(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Validate checks the resolved configuration.
func (c *Client) Validate() error {
	return types.ValidateStruct(c.config)
}

func (c *Client) initReader(ctx context.Context) error {
	if c.reader != nil {
		return nil
	}
	caller := c.caller
	if caller == nil {
		ec, err := ethclient.DialContext(ctx, c.config.RPCURL)
		if err != nil {
			return types.WrapUpstream(err, "dial rpc %s", c.config.RPCURL)
		}
		c.ethClient = ec
		caller = ec
	}
	reader, err := contractsapi.NewMulticallReader(contractsapi.NewMulticallReaderOptions{
		Caller:           caller,
		MulticallAddress: c.multicall,
		Logger:           c.logger,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	c.reader = reader
	return nil
}

func (c *Client) initComponents() error {
	var err error
	c.catalog, err = marketsapi.NewClient(marketsapi.NewClientOptions{
		BaseURL:    c.config.APIURL,
		HTTPClient: c.httpClient,
		Limiter:    c.newLimiter(),
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	c.positions, err = contractsapi.LoadPositions(contractsapi.NewPositionsOptions{
		Catalog: c.catalog,
		Reader:  c.reader,
		Logger:  c.logger,
	})
	if err != nil {
		return err
	}

	c.portfolio, err = contractsapi.LoadPortfolio(contractsapi.NewPortfolioOptions{
		Positions:        c.positions,
		Reader:           c.reader,
		MulticallAddress: c.multicall,
		Logger:           c.logger,
	})
	if err != nil {
		return err
	}

	if c.config.SubgraphURL == "" {
		return nil
	}
	c.ledger, err = subgraph.NewClient(subgraph.NewClientOptions{
		URL:        c.config.SubgraphURL,
		APIKey:     c.config.SubgraphAPIKey,
		HTTPClient: c.httpClient,
		Limiter:    c.newLimiter(),
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.pnl, err = contractsapi.LoadPnLEngine(contractsapi.NewPnLEngineOptions{
		Positions: c.positions,
		Catalog:   c.catalog,
		Ledger:    c.ledger,
		Reader:    c.reader,
		Logger:    c.logger,
	})
	return err
}

// newLimiter returns nil when no limit was configured, letting each
// collaborator apply its own default.
func (c *Client) newLimiter() *rate.Limiter {
	if c.limit == nil {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.limit.perSec), c.limit.burst)
}

// Close releases the RPC connection if NewClient dialled it.
func (c *Client) Close() {
	if c.ethClient != nil {
		c.ethClient.Close()
		c.ethClient = nil
	}
}

// MarketFactoryAddress is the factory of the configured environment, zero
// when no environment was set.
func (c *Client) MarketFactoryAddress() util.EthereumAddress {
	return c.factory
}

// ═══════════════════════════════════════════════════════════════
// OPTIONS
// ═══════════════════════════════════════════════════════════════

// WithLogger scopes a logger to this client instead of logging.Logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets the HTTP client used for the REST and GraphQL calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBatchReader replaces the Multicall3 reader. No RPC connection is made.
func WithBatchReader(reader types.IBatchReader) Option {
	return func(c *Client) {
		c.reader = reader
	}
}

// WithContractCaller reads through caller instead of dialling Config.RPCURL.
func WithContractCaller(caller contractsapi.ContractCaller) Option {
	return func(c *Client) {
		c.caller = caller
	}
}

// WithRateLimit paces the catalog and the subgraph, each independently.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *Client) {
		c.limit = &rateLimit{perSec: perSec, burst: burst}
	}
}

// WithMulticallAddress points batched reads at a non-canonical Multicall3.
func WithMulticallAddress(addr common.Address) Option {
	return func(c *Client) {
		c.multicall = &addr
	}
}
