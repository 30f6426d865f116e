// Package wholesalemarket fetches day-ahead spot prices from the RTE
// wholesale market API and exposes them as a spot-price provider.
package wholesalemarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kilianp07/drflex/auth"
	"github.com/kilianp07/drflex/core/logger"
	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/provider"
)

// Authorizer sets credentials on outgoing requests.
type Authorizer interface {
	SetAuthHeader(ctx context.Context, r *http.Request) error
}

// Client queries the France power exchanges endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	auth    Authorizer
	log     logger.Logger
}

var _ provider.SpotPriceProvider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithAuthorizer replaces the OAuth2 client-credentials authorizer.
func WithAuthorizer(a Authorizer) Option { return func(c *Client) { c.auth = a } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(c *Client) { c.log = logger.OrNop(l) } }

// NewClient builds a client from conf.
func NewClient(conf Conf, opts ...Option) *Client {
	conf.SetDefaults()
	c := &Client{
		baseURL: conf.BaseURL,
		http:    &http.Client{Timeout: conf.Timeout},
		auth:    auth.NewClientCred(conf.Auth),
		log:     logger.Nop{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fetch retrieves the raw exchange data for [start, end).
func (c *Client) Fetch(ctx context.Context, start, end time.Time) (*Response, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("wholesale market: end %s not after start %s", end, start)
	}
	q := url.Values{}
	q.Set("start_date", start.Format(time.RFC3339))
	q.Set("end_date", end.Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.auth.SetAuthHeader(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to set auth header: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}

	var marketResponse Response
	if err := json.NewDecoder(resp.Body).Decode(&marketResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &marketResponse, nil
}

// SpotPrices implements provider.SpotPriceProvider. The API returns whole
// days; prices outside [start, end) are kept so forward fill has a value
// before the first requested point.
func (c *Client) SpotPrices(ctx context.Context, start, end time.Time) (model.PriceSeries, error) {
	resp, err := c.Fetch(ctx, start, end)
	if err != nil {
		return model.PriceSeries{}, err
	}
	ps, err := resp.PriceSeries()
	if err != nil {
		return model.PriceSeries{}, err
	}
	if ps.Len() == 0 {
		return model.PriceSeries{}, fmt.Errorf("wholesale market %s - %s: %w", start.Format(time.RFC3339), end.Format(time.RFC3339), provider.ErrNoData)
	}
	c.log.Debugf("wholesale market: %d prices between %s and %s", ps.Len(), ps.Times[0].Format(time.RFC3339), ps.Times[ps.Len()-1].Format(time.RFC3339))
	return ps, nil
}
