package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/apperr"
	"github.com/publora/publora/internal/transfer"
)

func TestPlanCalendar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/calendar/plan" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer content-token" {
			t.Errorf("missing bearer token")
		}

		var req transfer.CalendarPlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Duration != "weekly" {
			t.Errorf("unexpected request: %+v", req)
		}

		json.NewEncoder(w).Encode(transfer.CalendarPlan{
			Entries: []transfer.PlannedEntry{
				{ScheduledDate: "2026-05-01", TopicTitle: "launch recap", TargetPlatform: "linkedin"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(config.Config{ContentBaseURL: srv.URL, ContentToken: "content-token"})

	plan, err := c.PlanCalendar(context.Background(), &transfer.CalendarPlanRequest{
		Duration:  "weekly",
		Platforms: []string{"linkedin"},
	})
	if err != nil {
		t.Fatalf("plan calendar: %v", err)
	}
	if len(plan.Entries) != 1 || plan.Entries[0].TopicTitle != "launch recap" {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestGenerateForEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/calendar/entry" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(transfer.EntryContent{
			GeneratedContent:  "post body",
			SuggestedHashtags: []string{"go"},
		})
	}))
	defer srv.Close()

	c := NewClient(config.Config{ContentBaseURL: srv.URL})

	content, err := c.GenerateForEntry(context.Background(), &transfer.EntryContentRequest{
		TopicTitle:     "launch recap",
		TargetPlatform: "linkedin",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if content.GeneratedContent != "post body" || len(content.SuggestedHashtags) != 1 {
		t.Fatalf("unexpected content: %+v", content)
	}
}

func TestErrorMapping(t *testing.T) {
	t.Run("structured failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(transfer.ContentErrorResponse{Error: "model refused"})
		}))
		defer srv.Close()

		c := NewClient(config.Config{ContentBaseURL: srv.URL})
		_, err := c.PlanCalendar(context.Background(), &transfer.CalendarPlanRequest{Duration: "weekly"})
		if !errors.Is(err, apperr.ErrGeneration) {
			t.Fatalf("expected generation error, got %v", err)
		}
		if err.Error() != "model refused" {
			t.Fatalf("should surface the upstream message, got %q", err.Error())
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		c := NewClient(config.Config{ContentBaseURL: srv.URL})
		_, err := c.GenerateForEntry(context.Background(), &transfer.EntryContentRequest{})
		if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
			t.Fatalf("expected upstream unavailable error, got %v", err)
		}
	})
}
