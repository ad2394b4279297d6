// Package subgraph reads the protocol's trade event ledger from its GraphQL
// indexer.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rain-one/sdk-go/core/logging"
	"github.com/rain-one/sdk-go/core/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultRatePerSec = 5
	DefaultBurst      = 2

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Client posts GraphQL queries to a subgraph endpoint and implements
// ITradeLedger on top of it. Requests are never retried.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

var _ types.ITradeLedger = (*Client)(nil)

// NewClientOptions contains options for creating a subgraph Client
type NewClientOptions struct {
	URL string
	// APIKey is sent as a bearer token when set
	APIKey     string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *zap.Logger
}

func NewClient(options NewClientOptions) (*Client, error) {
	endpoint := strings.TrimSpace(options.URL)
	if endpoint == "" {
		return nil, types.ValidationErrorf("subgraph url is required")
	}
	if u, err := url.Parse(endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, types.ValidationErrorf("subgraph url %q is not a valid absolute url", options.URL)
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
		endpoint: endpoint,
		apiKey:   options.APIKey,
		http:     httpClient,
		limiter:  limiter,
		logger:   logging.OrDefault(options.Logger),
	}, nil
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Query posts query and decodes the response's data member into out.
func (c *Client) Query(ctx context.Context, query string, out any) error {
	payload, err := json.Marshal(graphQLRequest{Query: query})
	if err != nil {
		return errors.Wrap(err, "failed to encode query")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return types.WrapUpstream(err, "subgraph query")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return types.UpstreamErrorf("subgraph query failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var body graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.DataShapeErrorf("malformed subgraph response: %v", err)
	}
	if len(body.Errors) > 0 {
		return types.UpstreamErrorf("subgraph query error: %s", body.Errors[0].Message)
	}
	if len(body.Data) == 0 || string(body.Data) == "null" {
		return types.DataShapeErrorf("subgraph response has no data")
	}
	if err := json.Unmarshal(body.Data, out); err != nil {
		return types.DataShapeErrorf("malformed subgraph data: %v", err)
	}
	return nil
}
