// Package marketsapi reads the protocol's public market catalog over REST.
package marketsapi

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rain-one/sdk-go/core/logging"
	"github.com/rain-one/sdk-go/core/types"
	"github.com/rain-one/sdk-go/core/util"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// PageSize is the page length used when scanning the whole catalog.
	PageSize = 200

	// DefaultRatePerSec and DefaultBurst pace requests to the catalog.
	DefaultRatePerSec = 10
	DefaultBurst      = 5

	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
)

// Client is the REST market catalog. It never retries; a failed request is
// reported as ErrUpstreamUnavailable.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ types.IMarketCatalog = (*Client)(nil)

// NewClientOptions contains options for creating a catalog Client
type NewClientOptions struct {
	// BaseURL is the API root, e.g. https://prod-api.rain.one
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *zap.Logger
}

// NewClient creates a catalog client rooted at options.BaseURL.
func NewClient(options NewClientOptions) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(options.BaseURL), "/")
	if base == "" {
		return nil, types.ValidationErrorf("api url is required")
	}
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, types.ValidationErrorf("api url %q is not a valid absolute url", options.BaseURL)
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	limiter := options.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(DefaultRatePerSec, DefaultBurst)
	}
	return &Client{
		baseURL: base,
		http:    httpClient,
		limiter: limiter,
		logger:  logging.OrDefault(options.Logger),
	}, nil
}

// ═══════════════════════════════════════════════════════════════
// CATALOG
// ═══════════════════════════════════════════════════════════════

// ListMarkets fetches one page. Markets without a contract address are
// returned with a zero ContractAddress.
func (c *Client) ListMarkets(ctx context.Context, input types.ListMarketsInput) ([]types.Market, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	raws, err := c.fetchPage(ctx, input)
	if err != nil {
		return nil, err
	}
	markets := make([]types.Market, 0, len(raws))
	for _, r := range raws {
		markets = append(markets, r.toMarket(""))
	}
	return markets, nil
}

// ListAllMarkets pages with PageSize until a page comes back short, or
// until a page holds nothing but ids already listed. Repeated ids are dropped.
func (c *Client) ListAllMarkets(ctx context.Context) ([]types.Market, error) {
	var all []types.Market
	seen := seenIDs{}
	for offset := 0; ; offset += PageSize {
		page, err := c.ListMarkets(ctx, types.ListMarketsInput{Limit: PageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		added := 0
		for _, m := range page {
			if m.ID == "" {
				all = append(all, m)
				continue
			}
			if seen.add(m.ID) {
				all = append(all, m)
				added++
			}
		}
		if len(page) < PageSize {
			break
		}
		if added == 0 {
			c.logger.Warn("catalog page repeated listed ids, stopping", zap.Int("offset", offset))
			break
		}
	}
	c.logger.Debug("catalog listed", zap.Int("markets", len(all)))
	return all, nil
}

// GetMarket fetches one market. A record without a usable contract address
// is a DataShape error.
func (c *Client) GetMarket(ctx context.Context, marketID string) (*types.Market, error) {
	raw, err := c.fetchDetail(ctx, marketID)
	if err != nil {
		return nil, err
	}
	m := raw.toMarket(marketID)
	if !m.HasContract() {
		return nil, types.DataShapeErrorf("market %s response missing contractAddress", marketID)
	}
	return &m, nil
}

// GetMarketAddress resolves a catalog id to its contract address.
func (c *Client) GetMarketAddress(ctx context.Context, marketID string) (util.EthereumAddress, error) {
	m, err := c.GetMarket(ctx, marketID)
	if err != nil {
		return util.EthereumAddress{}, err
	}
	return m.ContractAddress, nil
}

// GetMarketID scans the catalog for a market deployed at marketAddress.
// The comparison ignores case.
func (c *Client) GetMarketID(ctx context.Context, marketAddress string) (string, error) {
	want := strings.ToLower(strings.TrimSpace(marketAddress))
	if want == "" {
		return "", types.ValidationErrorf("market address is required")
	}

	seen := seenIDs{}
	for offset := 0; ; offset += PageSize {
		page, err := c.fetchPage(ctx, types.ListMarketsInput{Limit: PageSize, Offset: offset})
		if err != nil {
			return "", err
		}
		added := 0
		for _, r := range page {
			if seen.add(r.id()) {
				added++
			}
			if r.ContractAddress == nil || strings.ToLower(*r.ContractAddress) != want {
				continue
			}
			if id := r.id(); id != "" {
				return id, nil
			}
			return "", types.DataShapeErrorf("market at %s has no id", marketAddress)
		}
		if len(page) < PageSize {
			break
		}
		if added == 0 {
			c.logger.Warn("catalog page repeated listed ids, stopping", zap.Int("offset", offset))
			break
		}
	}
	return "", types.DataShapeErrorf("no market found with address %s", marketAddress)
}

// seenIDs tracks catalog ids across pages.
type seenIDs map[string]struct{}

// add reports whether id was not seen before. Empty ids are never new.
func (s seenIDs) add(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// ═══════════════════════════════════════════════════════════════
// HTTP
// ═══════════════════════════════════════════════════════════════

func (c *Client) fetchPage(ctx context.Context, input types.ListMarketsInput) ([]rawMarket, error) {
	query := url.Values{}
	if input.Limit > 0 {
		query.Set("limit", strconv.Itoa(input.Limit))
	}
	if input.Offset > 0 {
		query.Set("offset", strconv.Itoa(input.Offset))
	}
	if input.SortBy != "" {
		query.Set("sortBy", string(input.SortBy))
	}
	if input.Status != "" {
		query.Set("status", string(input.Status))
	}

	endpoint := c.baseURL + "/pools/public-pools"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch markets")
	}
	return decodeMarketPage(body)
}

func (c *Client) fetchDetail(ctx context.Context, marketID string) (*rawMarket, error) {
	if strings.TrimSpace(marketID) == "" {
		return nil, types.ValidationErrorf("market id is required")
	}
	body, err := c.get(ctx, c.baseURL+"/pools/pool/"+url.PathEscape(marketID))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch market %s", marketID)
	}
	return decodeMarketRecord(body)
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("catalog request", zap.String("url", endpoint))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, types.WrapUpstream(err, "GET %s", endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, types.UpstreamErrorf("GET %s: status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.WrapUpstream(err, "reading %s", endpoint)
	}
	return body, nil
}
