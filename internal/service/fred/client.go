// Package fred reads economic time series from the St. Louis Fed FRED API.
package fred

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/service/breaker"
	pkghttp "MacroPulse/pkg/http"
	applogger "MacroPulse/pkg/logger"
	"MacroPulse/pkg/util"

	"golang.org/x/time/rate"
)

// ErrNoAPIKey is returned when the client was built without a key.
var ErrNoAPIKey = errors.New("fred: api key not configured")

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// Client implements repository.SeriesSource for FRED.
type Client struct {
	apiKey  string
	baseURL string
	http    *pkghttp.Client
	limiter *rate.Limiter
	breaker *breaker.Breaker
	l       *applogger.Logger
}

// Option configures Client.
type Option func(*Client)

// New creates a FRED client. Requests are paced by the limiter and guarded
// by a circuit breaker so an outage costs one fast failure per series.
func New(apiKey, baseURL string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    pkghttp.NewClient(),
		limiter: rate.NewLimiter(rate.Limit(2), 4),
		breaker: breaker.New("fred", 5, time.Minute, nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithHTTPClient(hc *pkghttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

func WithBreaker(b *breaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.l = l }
}

func (c *Client) Name() string { return "fred" }

// Fetch returns observations of seriesID dated on or after start, ascending.
// FRED's "." placeholders are dropped.
func (c *Client) Fetch(ctx context.Context, seriesID string, start time.Time) (models.Series, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fred rate wait: %w", err)
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		var out observationsResponse
		err := c.http.GetJSON(ctx, &pkghttp.RequestOptions{
			URL: c.baseURL + "/series/observations",
			QueryParams: map[string][]string{
				"series_id":         {seriesID},
				"api_key":           {c.apiKey},
				"file_type":         {"json"},
				"sort_order":        {"asc"},
				"observation_start": {start.Format(models.DateLayout)},
			},
		}, &out)
		return &out, err
	})
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", seriesID, err)
	}

	raw := res.(*observationsResponse)
	series := make(models.Series, 0, len(raw.Observations))
	skipped := 0
	for _, o := range raw.Observations {
		v, ok := util.ParseValue(o.Value)
		if !ok {
			skipped++
			continue
		}
		obs, err := models.NewObservation(o.Date, v)
		if err != nil {
			skipped++
			continue
		}
		series = append(series, obs)
	}
	if skipped > 0 {
		c.l.Debug("fred skipped missing observations",
			applogger.String("series_id", seriesID),
			applogger.Int("skipped", skipped),
		)
	}
	return series.Sorted(), nil
}
