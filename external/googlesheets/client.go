package googlesheets

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/club-scraper/internal/platform/logging"
	"github.com/riskibarqy/club-scraper/internal/platform/resilience"
	"github.com/riskibarqy/club-scraper/internal/usecase"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4"

var errSheetsTransient = crerr.New("google sheets transient failure")

type ClientConfig struct {
	HTTPClient    *http.Client
	BaseURL       string
	SpreadsheetID string
	Token         string
	Timeout       time.Duration
	Retry         resilience.RetryConfig
	Breaker       resilience.BreakerConfig
	Logger        *logging.Logger
}

// Client reads and writes whole sheets of one spreadsheet through the
// values API. Every cell travels as its formatted string.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	spreadsheetID string
	token         string
	retry         resilience.RetryConfig
	breaker       *resilience.Breaker
	logger        *logging.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, crerr.New("spreadsheet id is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient:    httpClient,
		baseURL:       baseURL,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		token:         strings.TrimSpace(cfg.Token),
		retry:         cfg.Retry.Normalize(),
		breaker:       resilience.NewBreaker(cfg.Breaker.Normalize()),
		logger:        logger,
	}, nil
}

type valueRange struct {
	Range          string     `json:"range,omitempty"`
	MajorDimension string     `json:"majorDimension,omitempty"`
	Values         [][]string `json:"values"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ReadAll returns the sheet's populated rows. Trailing empty cells are not
// returned by the API, so rows may be ragged.
func (c *Client) ReadAll(ctx context.Context, sheet string) ([][]string, error) {
	query := url.Values{}
	query.Set("majorDimension", "ROWS")
	query.Set("valueRenderOption", "FORMATTED_VALUE")

	var out valueRange
	if err := c.do(ctx, http.MethodGet, c.valuesURL(sheet, "", query), nil, &out); err != nil {
		return nil, crerr.Wrapf(err, "read sheet %q", sheet)
	}
	if out.Values == nil {
		return [][]string{}, nil
	}
	return out.Values, nil
}

func (c *Client) Clear(ctx context.Context, sheet string) error {
	if err := c.do(ctx, http.MethodPost, c.valuesURL(sheet, ":clear", nil), struct{}{}, nil); err != nil {
		return crerr.Wrapf(err, "clear sheet %q", sheet)
	}
	return nil
}

// WriteAll writes rows from A1 downwards. Values are stored as typed
// strings, not parsed as formulas.
func (c *Client) WriteAll(ctx context.Context, sheet string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	query := url.Values{}
	query.Set("valueInputOption", "RAW")

	body := valueRange{Range: a1Range(sheet), MajorDimension: "ROWS", Values: rows}
	if err := c.do(ctx, http.MethodPut, c.valuesURL(sheet, "", query), body, nil); err != nil {
		return crerr.Wrapf(err, "write sheet %q", sheet)
	}
	return nil
}

// a1Range quotes the sheet name so names with spaces address the whole
// sheet.
func a1Range(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

func (c *Client) valuesURL(sheet, suffix string, query url.Values) string {
	u := c.baseURL + "/spreadsheets/" + url.PathEscape(c.spreadsheetID) + "/values/" + url.PathEscape(a1Range(sheet)) + suffix
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

func (c *Client) do(ctx context.Context, method, fullURL string, payload, target any) error {
	var body []byte
	if payload != nil {
		encoded, err := sonic.Marshal(payload)
		if err != nil {
			return crerr.Wrap(err, "marshal sheets payload")
		}
		body = encoded
	}

	err := resilience.Do(ctx, c.breaker, c.retry, func(ctx context.Context) error {
		raw, err := c.executeRequest(ctx, method, fullURL, body)
		if err != nil {
			return err
		}
		if target == nil || len(raw) == 0 {
			return nil
		}
		if err := sonic.Unmarshal(raw, target); err != nil {
			return resilience.MarkPermanent(crerr.Wrap(err, "decode sheets payload"))
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if stderrors.Is(err, resilience.ErrCircuitOpen) || stderrors.Is(err, errSheetsTransient) {
		c.logger.WarnContext(ctx, "google sheets request failed", "method", method, "breaker_state", c.breaker.State(), "error", err)
		return fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
	}
	return err
}

func (c *Client) executeRequest(ctx context.Context, method, fullURL string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, resilience.MarkPermanent(crerr.Wrap(err, "build sheets request"))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errSheetsTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errSheetsTransient, err)
	}
	if resp.StatusCode/100 == 2 {
		return raw, nil
	}

	message := apiErrorMessage(raw)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, resilience.MarkPermanent(fmt.Errorf("%w: sheets status=%d: %s", usecase.ErrUnauthorized, resp.StatusCode, message))
	case isRetryableStatus(resp.StatusCode):
		return nil, fmt.Errorf("%w: sheets status=%d: %s", errSheetsTransient, resp.StatusCode, message)
	default:
		return nil, resilience.MarkPermanent(crerr.Newf("sheets status=%d: %s", resp.StatusCode, message))
	}
}

func apiErrorMessage(raw []byte) string {
	var envelope apiErrorEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > 256 {
		text = text[:256] + "..."
	}
	return text
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500
}
