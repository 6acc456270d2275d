package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/apperr"
	"github.com/publora/publora/internal/transfer"
)

// Client talks to the social platform gateway, the service that performs
// the actual authenticated publish call per platform.
type Client interface {
	Submit(ctx context.Context, sub *transfer.GatewaySubmission) (*transfer.GatewayPublishResult, error)
	FetchMetrics(ctx context.Context, platform, platformPostID string) (*transfer.GatewayMetrics, error)
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(cfg config.Config) Client {
	return &client{
		baseURL: cfg.GatewayBaseURL,
		token:   cfg.GatewayToken,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *client) Submit(ctx context.Context, sub *transfer.GatewaySubmission) (*transfer.GatewayPublishResult, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/publish", bytes.NewReader(body))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, apperr.Gateway("gateway unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp transfer.GatewayErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
			return nil, apperr.Gateway("gateway returned status %d", resp.StatusCode)
		}
		return nil, apperr.Gateway("%s", errResp.Error)
	}

	var result transfer.GatewayPublishResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, apperr.Gateway("failed to decode publish response: %v", err)
	}

	return &result, nil
}

func (c *client) FetchMetrics(ctx context.Context, platform, platformPostID string) (*transfer.GatewayMetrics, error) {
	url := fmt.Sprintf("%s/v1/metrics/%s/%s", c.baseURL, platform, platformPostID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, apperr.Gateway("gateway unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp transfer.GatewayErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
			return nil, apperr.Gateway("gateway returned status %d", resp.StatusCode)
		}
		return nil, apperr.Gateway("%s", errResp.Error)
	}

	var metrics transfer.GatewayMetrics
	if err := json.NewDecoder(resp.Body).Decode(&metrics); err != nil {
		slog.Info(err.Error())
		return nil, apperr.Gateway("failed to decode metrics response: %v", err)
	}

	return &metrics, nil
}
