// Package blockchain reads chart series from the Blockchain.com charts API.
package blockchain

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/domain/repository"
	"MacroPulse/internal/service/breaker"
	pkghttp "MacroPulse/pkg/http"

	"golang.org/x/time/rate"
)

// SeriesMarketPrice is the daily USD market price chart.
const SeriesMarketPrice = "blockchain:market-price"

type chartResponse struct {
	Status string       `json:"status"`
	Unit   string       `json:"unit"`
	Values []chartPoint `json:"values"`
}

type chartPoint struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}

// Client implements repository.SeriesSource for Blockchain.com charts.
type Client struct {
	baseURL  string
	timespan string
	http     *pkghttp.Client
	limiter  *rate.Limiter
	breaker  *breaker.Breaker
}

type Option func(*Client)

func New(baseURL, timespan string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		timespan: timespan,
		http:     pkghttp.NewClient(),
		limiter:  rate.NewLimiter(rate.Limit(1), 2),
		breaker:  breaker.New("blockchain", 5, time.Minute, nil),
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

func (c *Client) Name() string { return "blockchain" }

// Fetch returns one observation per UTC day on or after start. Charts can
// carry several points per day; the last one wins.
func (c *Client) Fetch(ctx context.Context, seriesID string, start time.Time) (models.Series, error) {
	chart := repository.UpstreamID(seriesID)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("blockchain rate wait: %w", err)
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		var out chartResponse
		err := c.http.GetJSON(ctx, &pkghttp.RequestOptions{
			URL: fmt.Sprintf("%s/charts/%s", c.baseURL, chart),
			QueryParams: map[string][]string{
				"timespan": {c.timespan},
				"format":   {"json"},
				"sampled":  {"false"},
			},
		}, &out)
		return &out, err
	})
	if err != nil {
		return nil, fmt.Errorf("blockchain %s: %w", chart, err)
	}

	raw := res.(*chartResponse)
	if raw.Status != "" && raw.Status != "ok" {
		return nil, fmt.Errorf("blockchain %s: status %q", chart, raw.Status)
	}

	// one observation per day, the latest point of the day wins
	points := append([]chartPoint(nil), raw.Values...)
	sort.SliceStable(points, func(i, j int) bool { return points[i].X < points[j].X })

	series := make(models.Series, 0, len(points))
	for _, v := range points {
		if math.IsNaN(v.Y) || math.IsInf(v.Y, 0) {
			continue
		}
		obs := models.ObservationAt(time.Unix(v.X, 0).UTC(), v.Y)
		if obs.Date.Before(start) {
			continue
		}
		if n := len(series); n > 0 && series[n-1].Date.Equal(obs.Date) {
			series[n-1] = obs
			continue
		}
		series = append(series, obs)
	}
	return series, nil
}
