package vtex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/routinematch/backend/internal/domain"
	"github.com/routinematch/backend/internal/logging"
	"github.com/routinematch/backend/internal/metrics"
)

const searchPath = "/api/catalog_system/pub/products/search/"

// Config holds catalog client settings
type Config struct {
	BaseURL          string        // storefront root, e.g. https://www.opaque.com.br
	PageSize         int           // records requested per query
	OrderBy          string        // VTEX sort parameter
	Timeout          time.Duration // HTTP client timeout
	RequestsPerSec   float64
	Burst            int
	BreakerFailures  uint32        // consecutive failures that open the breaker
	BreakerOpenDelay time.Duration // time the breaker stays open before probing
	UserAgent        string
}

// Client queries the VTEX public catalog search API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	pageSize    int
	orderBy     string
	userAgent   string
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[[]domain.CatalogProduct]
}

// NewClient creates a catalog client
func NewClient(cfg Config) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.OrderBy == "" {
		cfg.OrderBy = "OrderByBestDiscountDESC"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenDelay <= 0 {
		cfg.BreakerOpenDelay = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "RoutineMatch/1.0"
	}

	metrics.SetBreakerState(0)

	breaker := gobreaker.NewCircuitBreaker[[]domain.CatalogProduct](gobreaker.Settings{
		Name:        "vtex-catalog",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up is not an upstream failure
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[CATALOG] circuit breaker state change")
			metrics.SetBreakerState(stateValue(to))
		},
	})

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		pageSize:    cfg.PageSize,
		orderBy:     cfg.OrderBy,
		userAgent:   cfg.UserAgent,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		breaker:     breaker,
	}
}

// Search runs a full-text catalog search. A 404 means no results, not a failure.
func (c *Client) Search(ctx context.Context, query string) ([]domain.CatalogProduct, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}

	products, err := c.breaker.Execute(func() ([]domain.CatalogProduct, error) {
		return c.search(ctx, query)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordBreakerRejection()
			return nil, fmt.Errorf("%w: %v", domain.ErrCatalogFailure, err)
		}
		return nil, err
	}
	return products, nil
}

func (c *Client) search(ctx context.Context, query string) ([]domain.CatalogProduct, error) {
	reqURL := c.searchURL(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordCatalogRequest(time.Since(start), err)
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordCatalogRequest(time.Since(start), err)
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrCatalogFailure, err)
	}

	// VTEX answers paged searches with 206
	if resp.StatusCode == http.StatusNotFound {
		metrics.RecordCatalogRequest(time.Since(start), nil)
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%w: status %d", domain.ErrCatalogFailure, resp.StatusCode)
		metrics.RecordCatalogRequest(time.Since(start), err)
		logging.Warn().
			Int("status", resp.StatusCode).
			Str("query", query).
			Int("body_bytes", len(body)).
			Msg("[CATALOG] search returned an error status")
		return nil, err
	}

	var products []domain.CatalogProduct
	if err := json.Unmarshal(body, &products); err != nil {
		metrics.RecordCatalogRequest(time.Since(start), err)
		return nil, fmt.Errorf("%w: decoding response: %v", domain.ErrCatalogFailure, err)
	}

	metrics.RecordCatalogRequest(time.Since(start), nil)
	logging.Debug().
		Str("query", query).
		Int("results", len(products)).
		Dur("elapsed", time.Since(start)).
		Msg("[CATALOG] search done")
	return products, nil
}

func (c *Client) searchURL(query string) string {
	params := url.Values{}
	params.Set("ft", query)
	params.Set("O", c.orderBy)
	params.Set("_from", "0")
	params.Set("_to", strconv.Itoa(c.pageSize-1))
	return c.baseURL + searchPath + "?" + params.Encode()
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
