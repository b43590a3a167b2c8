package nominatim

import (
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
	"golang.org/x/time/rate"

	"github.com/riskibarqy/club-scraper/internal/platform/logging"
	"github.com/riskibarqy/club-scraper/internal/platform/resilience"
	"github.com/riskibarqy/club-scraper/internal/usecase"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "club-scraper"
)

var errNominatimTransient = crerr.New("nominatim transient failure")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
	Language   string
	Timeout    time.Duration
	MinDelay   time.Duration
	Retry      resilience.RetryConfig
	Breaker    resilience.BreakerConfig
	Logger     *logging.Logger
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	language   string
	retry      resilience.RetryConfig
	breaker    *resilience.Breaker
	logger     *logging.Logger
	// limiter spaces calls MinDelay apart; nil means unlimited.
	limiter *rate.Limiter
}

func NewClient(cfg ClientConfig) *Client {
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
		httpClient.Timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = "en"
	}
	var limiter *rate.Limiter
	if cfg.MinDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.MinDelay), 1)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
		language:   language,
		retry:      cfg.Retry.Normalize(),
		breaker:    resilience.NewBreaker(cfg.Breaker),
		logger:     logger,
		limiter:    limiter,
	}
}

type searchResult struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Geocode looks up a free-text location and returns the country of the
// best match.
func (c *Client) Geocode(ctx context.Context, location string) (usecase.Place, bool, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return usecase.Place{}, false, fmt.Errorf("%w: location is required", usecase.ErrInvalidInput)
	}

	query := url.Values{}
	query.Set("q", location)
	query.Set("format", "jsonv2")
	query.Set("addressdetails", "1")
	query.Set("limit", "1")
	query.Set("accept-language", c.language)
	fullURL := c.baseURL + "/search?" + query.Encode()

	var results []searchResult
	err := resilience.Do(ctx, c.breaker, c.retry, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return resilience.MarkPermanent(err)
			}
		}
		raw, err := c.executeRequest(ctx, fullURL)
		if err != nil {
			return err
		}
		if err := sonic.Unmarshal(raw, &results); err != nil {
			return resilience.MarkPermanent(crerr.Wrap(err, "decode nominatim payload"))
		}
		return nil
	})
	if err != nil {
		if stderrors.Is(err, resilience.ErrCircuitOpen) || stderrors.Is(err, errNominatimTransient) {
			c.logger.WarnContext(ctx, "nominatim request failed", "breaker_state", c.breaker.State(), "error", err)
			return usecase.Place{}, false, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return usecase.Place{}, false, crerr.Wrapf(err, "geocode %q", location)
	}

	if len(results) == 0 {
		return usecase.Place{}, false, nil
	}
	address := results[0].Address
	if address.Country == "" && address.CountryCode == "" {
		return usecase.Place{}, false, nil
	}
	return usecase.Place{
		Country:     address.Country,
		CountryCode: strings.ToLower(address.CountryCode),
	}, true, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, resilience.MarkPermanent(crerr.Wrap(err, "build nominatim request"))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errNominatimTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errNominatimTransient, err)
	}
	if resp.StatusCode/100 == 2 {
		return raw, nil
	}

	text := strings.TrimSpace(string(raw))
	if len(text) > 256 {
		text = text[:256] + "..."
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: nominatim status=%d: %s", errNominatimTransient, resp.StatusCode, text)
	}
	return nil, resilience.MarkPermanent(crerr.Newf("nominatim status=%d: %s", resp.StatusCode, text))
}
