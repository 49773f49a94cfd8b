package scrapeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"igfunnel/pkg/config"
	errs "igfunnel/pkg/errors"
	"igfunnel/pkg/logger"
	"igfunnel/pkg/retry"
)

const scrapePath = "/v2/scrape"

// Client posts scrape payloads to the upstream API. Every request runs
// under the shared backoff policy: 429s are retried with exponential
// backoff, everything else fails immediately.
type Client struct {
	http   *resty.Client
	policy *retry.Policy
	logger logger.Logger
}

// NewClient creates a scrape API client from configuration.
func NewClient(cfg *config.APIConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", cfg.AuthHeader)

	policy := &retry.Policy{
		MaxAttempts: cfg.MaxRetries,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:  cfg.RetryBaseDelay,
			Multiplier: 2.0,
		},
		RetryIf: errs.IsRateLimit,
		Logger:  log,
	}

	return &Client{
		http:   httpClient,
		policy: policy,
		logger: log,
	}
}

// Scrape sends one payload and returns the raw response body. Exhausting
// the retry budget against 429s surfaces as a rate-limit error, fatal for
// the current fetch but contained by the calling stage.
func (c *Client) Scrape(ctx context.Context, req Request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scrape payload: %w", err)
	}

	return retry.DoWithResult(ctx, c.policy, func() ([]byte, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(payload).
			Post(scrapePath)
		if err != nil {
			return nil, errs.Network(err)
		}

		switch resp.StatusCode() {
		case http.StatusOK:
			return resp.Body(), nil
		case http.StatusTooManyRequests:
			c.logger.WarnWithFields("rate limited by scrape API", map[string]interface{}{
				"target": req.Target,
				"status": resp.StatusCode(),
			})
			return nil, errs.RateLimited(string(payload))
		default:
			c.logger.ErrorWithFields("scrape request failed", map[string]interface{}{
				"target":  req.Target,
				"status":  resp.StatusCode(),
				"payload": string(payload),
				"body":    string(resp.Body()),
			})
			return nil, errs.UpstreamRequest(resp.StatusCode(), string(payload), string(resp.Body()))
		}
	})
}
