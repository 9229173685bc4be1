package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"gitlab.com/aoterocom/AOBacktester/interfaces"
	"gitlab.com/aoterocom/AOBacktester/models"
)

const (
	runBacktestEndpoint = "/run_backtest"
	getLogsEndpoint     = "/get-logs"
)

type logsResponse struct {
	NewLines []string `json:"new_lines"`
}

// BacktestClient talks to the backtest service over plain HTTP.
type BacktestClient struct {
	BaseURL   string
	HTTP      *http.Client
	runMethod models.RunMethod
}

func NewBacktestClient(baseURL string, runMethod models.RunMethod, timeout time.Duration) *BacktestClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if runMethod == "" {
		runMethod = models.RunMethodPost
	}
	return &BacktestClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		runMethod: runMethod,
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 15 * time.Second}).DialContext,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
}

func (c *BacktestClient) RunMethod() models.RunMethod {
	return c.runMethod
}

// StartBacktest posts config as JSON, or sends a bare GET when the client is
// set up for the GET variant and the service uses its own config.
func (c *BacktestClient) StartBacktest(ctx context.Context, config models.BacktestConfig) error {
	op := string(c.runMethod) + " " + runBacktestEndpoint

	var body io.Reader
	if c.runMethod == models.RunMethodPost {
		payload, err := json.Marshal(config)
		if err != nil {
			return fmt.Errorf("error: couldn't encode config: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, string(c.runMethod), c.BaseURL+runBacktestEndpoint, body)
	if err != nil {
		return &models.TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &models.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &models.TransportError{Op: op, StatusCode: resp.StatusCode}
	}
	return nil
}

// FetchNewLines returns the lines logged since the previous call. The
// service keeps the tail offset.
func (c *BacktestClient) FetchNewLines(ctx context.Context) ([]string, error) {
	op := "GET " + getLogsEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+getLogsEndpoint, nil)
	if err != nil {
		return nil, &models.TransportError{Op: op, Err: err}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &models.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, &models.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", string(b))}
	}

	var logs logsResponse
	if err := json.NewDecoder(resp.Body).Decode(&logs); err != nil {
		return nil, &models.TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return logs.NewLines, nil
}

var _ interfaces.BacktestService = (*BacktestClient)(nil)
