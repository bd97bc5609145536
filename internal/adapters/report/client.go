// Package report delivers detection events to the reporting backend.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Nursery/internal/core"
	"github.com/dkeye/Nursery/internal/domain"
)

// DateLayout is ISO-8601 in UTC with microseconds.
const DateLayout = "2006-01-02T15:04:05.000000Z07:00"

type Payload struct {
	Group string `json:"group"`
	Baby  string `json:"baby"`
	Type  string `json:"type"`
	Date  string `json:"date"`
}

func NewPayload(ev domain.DetectionEvent) Payload {
	return Payload{
		Group: string(ev.Group),
		Baby:  string(ev.Subject),
		Type:  ev.Kind.WireName(),
		Date:  ev.Timestamp.UTC().Format(DateLayout),
	}
}

// Client posts events as JSON. Delivery is best-effort: one attempt, no retry.
type Client struct {
	url string
	c   *http.Client
}

var _ core.Reporter = (*Client)(nil)

func New(url string, timeout time.Duration, hc *http.Client) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{url: url, c: hc}
}

func (c *Client) Report(ctx context.Context, ev domain.DetectionEvent) error {
	b, err := json.Marshal(NewPayload(ev))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", ev.ID)

	resp, err := c.c.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		const maxErr = 4096
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErr))
		return fmt.Errorf("report %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// LogReporter only logs events. It is used when no backend is configured.
type LogReporter struct{}

func (LogReporter) Report(_ context.Context, ev domain.DetectionEvent) error {
	p := NewPayload(ev)
	log.Info().
		Str("module", "adapters.report").
		Str("event_id", ev.ID).
		Str("group", p.Group).
		Str("baby", p.Baby).
		Str("type", p.Type).
		Str("date", p.Date).
		Msg("detection (no reporter configured)")
	return nil
}
