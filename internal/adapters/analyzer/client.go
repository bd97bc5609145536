// Package analyzer talks to the cry classification service.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/dkeye/Nursery/internal/core"
)

var ErrUnknownClass = errors.New("unknown class")

type Config struct {
	URL           string
	MaxConcurrent int
	Timeout       time.Duration
}

// Client posts WAV windows to the classifier. At most MaxConcurrent
// requests are in flight; further callers wait for a slot or their context.
type Client struct {
	url string
	c   *http.Client
	sem *semaphore.Weighted
}

var (
	_ core.AudioAnalyzer = (*Client)(nil)
	_ core.Prewarmer     = (*Client)(nil)
)

func New(cfg Config, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	n := cfg.MaxConcurrent
	if n <= 0 {
		n = 4
	}
	return &Client{
		url: strings.TrimRight(cfg.URL, "/"),
		c:   hc,
		sem: semaphore.NewWeighted(int64(n)),
	}
}

type classifyResp struct {
	Result string `json:"result"`
}

func (c *Client) Classify(ctx context.Context, wav []byte) (core.CryClass, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return core.ClassError, fmt.Errorf("wait for classifier slot: %w", err)
	}
	defer c.sem.Release(1)

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fw, err := w.CreateFormFile("file", "window.wav")
	if err != nil {
		return core.ClassError, fmt.Errorf("create form file: %w", err)
	}
	if _, err = fw.Write(wav); err != nil {
		return core.ClassError, fmt.Errorf("copy audio: %w", err)
	}
	if err = w.Close(); err != nil {
		return core.ClassError, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/classify", &b)
	if err != nil {
		return core.ClassError, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.c.Do(req)
	if err != nil {
		return core.ClassError, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.ClassError, statusError("classify", resp)
	}

	var out classifyResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return core.ClassError, fmt.Errorf("classify decode: %w", err)
	}
	switch class := core.CryClass(out.Result); class {
	case core.ClassCry, core.ClassNotCry, core.ClassError:
		return class, nil
	default:
		return core.ClassError, fmt.Errorf("%w: %q", ErrUnknownClass, out.Result)
	}
}

// Prewarm checks that the classifier is reachable and has its model loaded.
func (c *Client) Prewarm(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.c.Do(req)
	if err != nil {
		return fmt.Errorf("classifier health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return statusError("classifier health", resp)
	}
	log.Info().Str("module", "adapters.analyzer").Str("url", c.url).Msg("classifier ready")
	return nil
}

func statusError(op string, resp *http.Response) error {
	const maxErr = 4096
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErr))
	return fmt.Errorf("%s %s: %s", op, resp.Status, strings.TrimSpace(string(body)))
}
