package pricefeed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/lachb/grazier/internal/config"
)

// Client exposes the market price lookup operations used by the resolver.
// Each lookup returns (nil, nil) when the feed holds no quote for the key.
type Client interface {
	SaleyardQuote(ctx context.Context, category, saleyard string) (*Quote, error)
	StateIndicator(ctx context.Context, category, state string) (*Quote, error)
	NationalBenchmark(ctx context.Context, category string) (*Quote, error)
}

// Quote is a raw market quote as returned by the price feed.
type Quote struct {
	Category   string          `json:"category"`
	Saleyard   string          `json:"saleyard,omitempty"`
	State      string          `json:"state,omitempty"`
	PricePerKg decimal.Decimal `json:"price_per_kg"`
	PriceDate  time.Time       `json:"price_date"`
	Source     string          `json:"source"`
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// apiError represents a price feed error payload.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// NewClient builds a price feed client from the provided configuration.
func NewClient(cfg config.PriceFeedConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	if cfg.APIKey != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey))
	}

	return &APIClient{httpClient: restyClient}
}

// SaleyardQuote fetches the latest quote for a category at a specific saleyard.
func (c *APIClient) SaleyardQuote(ctx context.Context, category, saleyard string) (*Quote, error) {
	return c.fetch(ctx, "/prices/saleyard", map[string]string{
		"category": category,
		"saleyard": saleyard,
	})
}

// StateIndicator fetches the state-level indicator price for a category.
func (c *APIClient) StateIndicator(ctx context.Context, category, state string) (*Quote, error) {
	return c.fetch(ctx, "/prices/state", map[string]string{
		"category": category,
		"state":    state,
	})
}

// NationalBenchmark fetches the nationwide benchmark price for a category.
func (c *APIClient) NationalBenchmark(ctx context.Context, category string) (*Quote, error) {
	return c.fetch(ctx, "/prices/national", map[string]string{
		"category": category,
	})
}

func (c *APIClient) fetch(ctx context.Context, path string, params map[string]string) (*Quote, error) {
	result := new(Quote)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		SetError(apiErr).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("fetch price quote %s: %w", path, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		// The feed tracks no quote for this key; callers fall through tiers.
		return nil, nil
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := ""
		code := resp.StatusCode()
		if apiErr != nil {
			message = apiErr.Error.Message
			if apiErr.Error.Code != 0 {
				code = apiErr.Error.Code
			}
		}
		return nil, fmt.Errorf("price feed error: code=%d, message=%s", code, message)
	}

	return result, nil
}
