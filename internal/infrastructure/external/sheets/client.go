package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/internal/domain/checkin"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
	"github.com/vocal-hub/vocal-practice-hub/pkg/circuitbreaker"
	"github.com/vocal-hub/vocal-practice-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Sheets mirror client.
type ClientConfig struct {
	// BaseURL is the Sheets API base URL (default: https://sheets.googleapis.com)
	BaseURL string

	// SpreadsheetID identifies the mirror spreadsheet
	SpreadsheetID string

	// SheetName is the tab holding the archive (default: "Archive")
	SheetName string

	// AccessToken is the OAuth bearer token for the service account
	AccessToken string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting
	RateLimiterConfig RateLimiterConfig

	// RetryConfig for retry behavior
	RetryConfig retry.Config

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(spreadsheetID, accessToken string) ClientConfig {
	return ClientConfig{
		BaseURL:           "https://sheets.googleapis.com",
		SpreadsheetID:     spreadsheetID,
		SheetName:         "Archive",
		AccessToken:       accessToken,
		Timeout:           30 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
		RetryConfig:       retry.DefaultConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the spreadsheet mirror client. It satisfies the rollover job's
// ArchiveMirror interface.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	mapper      *Mapper
}

// NewClient creates a new Sheets mirror client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://sheets.googleapis.com"
	}
	if config.SheetName == "" {
		config.SheetName = "Archive"
	}

	logger := config.Logger
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:      logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		breaker: circuitbreaker.MirrorBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}),
		mapper: NewMapper(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIRROR OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// AppendWeek appends one archived week's records to the mirror sheet.
func (c *Client) AppendWeek(ctx context.Context, weekStart time.Time, records []*checkin.Record) error {
	if len(records) == 0 {
		return nil
	}

	body := ValueRangeDTO{
		MajorDimension: "ROWS",
		Values:         c.mapper.RecordsToRows(records),
	}

	path := fmt.Sprintf("/v4/spreadsheets/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		url.PathEscape(c.config.SpreadsheetID),
		url.PathEscape(c.valuesRange()),
	)

	var response AppendResponseDTO
	if err := c.doRequest(ctx, http.MethodPost, path, body, &response); err != nil {
		return fmt.Errorf("%w: append week %s: %v",
			shared.ErrMirrorUnavailable, weekStart.Format("2006-01-02"), err)
	}

	rows := 0
	if response.Updates != nil {
		rows = response.Updates.UpdatedRows
	}
	c.logger.Info("mirror week appended",
		"week_start", weekStart.Format("2006-01-02"),
		"rows", rows,
	)
	return nil
}

// ReadArchive reads every data row of the mirror sheet. Used at startup to
// compare the mirror against the archive table.
func (c *Client) ReadArchive(ctx context.Context) ([]ArchiveRow, error) {
	path := fmt.Sprintf("/v4/spreadsheets/%s/values/%s",
		url.PathEscape(c.config.SpreadsheetID),
		url.PathEscape(c.valuesRange()),
	)

	var response ValueRangeDTO
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, fmt.Errorf("%w: read archive: %v", shared.ErrMirrorUnavailable, err)
	}

	return c.mapper.RowsFromValueRange(&response), nil
}

// WriteHeader writes the column header row. Called once when the sheet is
// empty.
func (c *Client) WriteHeader(ctx context.Context) error {
	body := ValueRangeDTO{
		MajorDimension: "ROWS",
		Values:         [][]string{c.mapper.HeaderRow()},
	}

	path := fmt.Sprintf("/v4/spreadsheets/%s/values/%s:append?valueInputOption=RAW",
		url.PathEscape(c.config.SpreadsheetID),
		url.PathEscape(c.valuesRange()),
	)

	var response AppendResponseDTO
	if err := c.doRequest(ctx, http.MethodPost, path, body, &response); err != nil {
		return fmt.Errorf("%w: write header: %v", shared.ErrMirrorUnavailable, err)
	}
	return nil
}

// IsHealthy checks if the spreadsheet is reachable with the current token.
func (c *Client) IsHealthy(ctx context.Context) bool {
	path := fmt.Sprintf("/v4/spreadsheets/%s?fields=spreadsheetId",
		url.PathEscape(c.config.SpreadsheetID))

	var response map[string]interface{}
	return c.doSingleRequest(ctx, http.MethodGet, path, nil, &response) == nil
}

// valuesRange returns the A1-notation range covering the archive columns.
func (c *Client) valuesRange() string {
	return fmt.Sprintf("%s!A:H", c.config.SheetName)
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs an HTTP request with rate limiting and retries behind
// the mirror circuit breaker. The local token bucket runs before every
// attempt so retries cannot burst past the Sheets quota.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	cfg := c.config.RetryConfig
	cfg.RetryIf = c.isRetryable

	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return retry.DoWithConfig(ctx, cfg, func() error {
			if err := c.rateLimiter.Allow(ctx); err != nil {
				return retry.Permanent(fmt.Errorf("rate limiter: %w", err))
			}

			err := c.doSingleRequest(ctx, method, path, body, result)
			if err == nil {
				return nil
			}

			var rateLimitErr *RateLimitError
			if errors.As(err, &rateLimitErr) {
				c.rateLimiter.RecordRateLimitHit()
			}
			return err
		})
	})
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	fullURL := c.config.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.config.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	}

	if c.config.Debug {
		c.logger.Debug("sheets api request", "method", method, "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return &RateLimitError{
			RetryAfter: retryAfter,
			Message:    "rate limit exceeded",
		}
	}

	if resp.StatusCode >= 400 {
		var apiErr APIErrorDTO
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.ErrorInfo.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// isRetryable checks if an error is retryable.
func (c *Client) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var apiErr *APIErrorDTO
	if errors.As(err, &apiErr) {
		return apiErr.ErrorInfo.Code >= 500 || apiErr.ErrorInfo.Status == "UNAVAILABLE"
	}

	// Network errors are generally retryable
	errStr := err.Error()
	for _, marker := range []string{"timeout", "connection refused", "temporary", "reset", "EOF"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
