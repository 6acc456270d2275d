package content

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/apperr"
	"github.com/publora/publora/internal/transfer"
)

// Client talks to the content service that plans calendars and writes the
// actual post copy for an entry.
type Client interface {
	PlanCalendar(ctx context.Context, req *transfer.CalendarPlanRequest) (*transfer.CalendarPlan, error)
	GenerateForEntry(ctx context.Context, req *transfer.EntryContentRequest) (*transfer.EntryContent, error)
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(cfg config.Config) Client {
	return &client{
		baseURL: cfg.ContentBaseURL,
		token:   cfg.ContentToken,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *client) post(ctx context.Context, path string, reqBody, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return apperr.UpstreamUnavailable("content service unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp transfer.ContentErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
			return apperr.Generation("content service returned status %d", resp.StatusCode)
		}
		return apperr.Generation("%s", errResp.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Info(err.Error())
		return apperr.Generation("failed to decode content response: %v", err)
	}

	return nil
}

func (c *client) PlanCalendar(ctx context.Context, req *transfer.CalendarPlanRequest) (*transfer.CalendarPlan, error) {
	var plan transfer.CalendarPlan
	if err := c.post(ctx, "/v1/calendar/plan", req, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (c *client) GenerateForEntry(ctx context.Context, req *transfer.EntryContentRequest) (*transfer.EntryContent, error) {
	var content transfer.EntryContent
	if err := c.post(ctx, "/v1/calendar/entry", req, &content); err != nil {
		return nil, err
	}
	return &content, nil
}
