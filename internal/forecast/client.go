package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ProfilePrefix marks scoring profile keys returned by /profiles.
const ProfilePrefix = "scoring:"

// Source is what the dashboard needs from the forecast backend.
type Source interface {
	FetchForecast(ctx context.Context, q Query) (*Data, error)
	FetchProfiles(ctx context.Context) ([]string, error)
}

// ClientOptions tunes the backend client.
type ClientOptions struct {
	MaxRetries int
	RPS        float64
	Burst      int
}

// Client issues /forecast and /profiles requests against the scoring backend.
type Client struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewClient creates a Client. A zero RPS disables the rate limiter.
func NewClient(client *http.Client, baseURL string, opts ClientOptions) *Client {
	var limiter *rate.Limiter
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      opts.MaxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
			Limiter: limiter,
		},
		circuit: newBreaker("forecast-backend"),
	}
}

// FetchForecast requests the scored hourly forecast for q.
func (c *Client) FetchForecast(ctx context.Context, q Query) (*Data, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(q.Lon, 'f', -1, 64))
		values.Set("lang", q.Lang)
		values.Set("tz", q.TZ)
		values.Set("profile", q.profile())

		u := fmt.Sprintf("%s/forecast?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	var data Data
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	return &data, nil
}

// FetchProfiles lists the scoring profiles with the key prefix removed.
func (c *Client) FetchProfiles(ctx context.Context) ([]string, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.baseURL+"/profiles", nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("fetch profiles: %w", err)
	}
	defer resp.Body.Close()

	var keys []string
	if err := json.NewDecoder(resp.Body).Decode(&keys); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}

	return StripProfilePrefix(keys), nil
}

// StripProfilePrefix removes ProfilePrefix from every key that carries it.
func StripProfilePrefix(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, ProfilePrefix))
	}
	return out
}

var _ Source = (*Client)(nil)
