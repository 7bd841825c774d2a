// Package ocr is the client for the external text-recognition collaborator.
// Recognition is a synchronous four-step protocol: create a recognition
// session, upload the raw bytes, request processing with at least two
// engines, then poll for per-engine results. The session is torn down
// best-effort on every path.
package ocr

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

	apperrors "github.com/habitra/import-server-go/internal/errors"
)

const (
	defaultPollAttempts = 10
	defaultPollInterval = 500 * time.Millisecond
	breakerThreshold    = 5
	breakerCoolDown     = 30 * time.Second
	maxErrorBodyBytes   = 4 << 10
)

// Engines requested from the collaborator. At least two independent engines
// are requested so the best result can be picked per document.
var defaultEngines = []string{"tesseract", "abbyy"}

type Result struct {
	Text           string
	Engine         string
	MeanConfidence float64
}

type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	pollAttempts int
	pollInterval time.Duration
	breaker      *breaker
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: timeout},
		pollAttempts: defaultPollAttempts,
		pollInterval: defaultPollInterval,
		breaker:      newBreaker(breakerThreshold, breakerCoolDown),
	}
}

type recognitionSession struct {
	ID string `json:"id"`
}

type engineResult struct {
	Engine      string    `json:"engine"`
	Blocks      []string  `json:"blocks"`
	Confidences []float64 `json:"confidences"`
}

type resultsResponse struct {
	Status  string         `json:"status"`
	Results []engineResult `json:"results"`
}

// Recognize runs the full protocol and returns the text of the engine with
// the highest mean confidence.
func (c *Client) Recognize(ctx context.Context, filename string, data []byte) (*Result, error) {
	if !c.breaker.Allow() {
		return nil, apperrors.External("ocr", fmt.Errorf("circuit open"))
	}

	result, err := c.recognize(ctx, filename, data)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}
	c.breaker.RecordSuccess()
	return result, nil
}

func (c *Client) recognize(ctx context.Context, filename string, data []byte) (*Result, error) {
	session, err := c.createSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("create recognition session: %w", err)
	}
	defer c.teardown(session.ID)

	if err := c.uploadFile(ctx, session.ID, filename, data); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	if err := c.requestProcessing(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("request processing: %w", err)
	}

	results, err := c.pollResults(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("poll results: %w", err)
	}

	best := pickBest(results)
	if best == nil {
		return nil, fmt.Errorf("no engine returned text")
	}

	log.Debug().
		Str("engine", best.Engine).
		Float64("confidence", best.MeanConfidence).
		Msg("ocr engine selected")

	return best, nil
}

func (c *Client) createSession(ctx context.Context) (*recognitionSession, error) {
	var session recognitionSession
	if err := c.do(ctx, http.MethodPost, "/v1/recognitions", "application/json", nil, &session); err != nil {
		return nil, err
	}
	if session.ID == "" {
		return nil, fmt.Errorf("empty recognition session id")
	}
	return &session, nil
}

func (c *Client) uploadFile(ctx context.Context, id, filename string, data []byte) error {
	path := fmt.Sprintf("/v1/recognitions/%s/file?filename=%s", id, filename)
	return c.do(ctx, http.MethodPost, path, "application/octet-stream", bytes.NewReader(data), nil)
}

func (c *Client) requestProcessing(ctx context.Context, id string) error {
	body, _ := json.Marshal(map[string]any{"engines": defaultEngines})
	path := fmt.Sprintf("/v1/recognitions/%s/process", id)
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body), nil)
}

func (c *Client) pollResults(ctx context.Context, id string) ([]engineResult, error) {
	path := fmt.Sprintf("/v1/recognitions/%s/results", id)

	var lastErr error
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pollInterval):
			}
		}

		var resp resultsResponse
		if err := c.do(ctx, http.MethodGet, path, "application/json", nil, &resp); err != nil {
			lastErr = err
			continue
		}
		if resp.Status == "done" {
			return resp.Results, nil
		}
		lastErr = fmt.Errorf("recognition status %q", resp.Status)
	}

	return nil, fmt.Errorf("gave up after %d attempts: %w", c.pollAttempts, lastErr)
}

// teardown deletes the recognition session. Best effort: failures are logged
// and never surfaced, and it runs regardless of how recognition ended.
func (c *Client) teardown(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	path := fmt.Sprintf("/v1/recognitions/%s", id)
	if err := c.do(ctx, http.MethodDelete, path, "application/json", nil, nil); err != nil {
		log.Warn().Err(err).Str("recognitionId", id).Msg("ocr session teardown failed")
	}
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// pickBest selects the engine output with the highest mean confidence and
// joins its blocks into recognizable text.
func pickBest(results []engineResult) *Result {
	var best *Result
	for _, r := range results {
		if len(r.Blocks) == 0 {
			continue
		}
		mean := meanConfidence(r.Confidences)
		if best == nil || mean > best.MeanConfidence {
			best = &Result{
				Text:           strings.Join(r.Blocks, "\n"),
				Engine:         r.Engine,
				MeanConfidence: mean,
			}
		}
	}
	return best
}

func meanConfidence(confidences []float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range confidences {
		sum += c
	}
	return sum / float64(len(confidences))
}
