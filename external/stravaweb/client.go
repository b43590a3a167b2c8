package stravaweb

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/riskibarqy/club-scraper/internal/platform/logging"
	"github.com/riskibarqy/club-scraper/internal/usecase"
)

const (
	defaultBaseURL    = "https://www.strava.com"
	defaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	sessionCookieName = "_strava4_session"
	maxMemberPages    = 200
)

type ClientConfig struct {
	BaseURL       string
	SessionCookie string
	UserAgent     string
	Timeout       time.Duration
	MaxRetries    int
	MaxWorkers    int
	// RequestsPerSecond caps page fetches across all workers. Zero means
	// unlimited.
	RequestsPerSecond float64
	Transport         http.RoundTripper
	Logger            *logging.Logger
}

// Client scrapes club pages with an existing browser session. It never
// logs in; an expired session surfaces as usecase.ErrUnauthorized.
type Client struct {
	http       *resty.Client
	maxWorkers int
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.SessionCookie) == "" {
		return nil, crerr.New("strava session cookie is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	workers := cfg.MaxWorkers
	if workers < 1 {
		workers = 4
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTransport(otelhttp.NewTransport(transport))
	client.SetTimeout(timeout)
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml")
	client.SetCookie(&http.Cookie{Name: sessionCookieName, Value: strings.TrimSpace(cfg.SessionCookie)})
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(stopAtLogin))
	client.SetRetryCount(retries)
	client.SetRetryWaitTime(500 * time.Millisecond)
	client.SetRetryMaxWaitTime(5 * time.Second)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return res.StatusCode() == http.StatusTooManyRequests || res.StatusCode() >= 500
	})
	if cfg.RequestsPerSecond > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, int(cfg.RequestsPerSecond)))
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return &Client{http: client, maxWorkers: workers, logger: logger}, nil
}

// stopAtLogin hands a redirect to the login page back to the caller
// instead of following it.
func stopAtLogin(req *http.Request, via []*http.Request) error {
	if isLoginPath(req.URL.Path) {
		return http.ErrUseLastResponse
	}
	if len(via) >= 10 {
		return crerr.New("stopped after 10 redirects")
	}
	return nil
}

func isLoginPath(path string) bool {
	return strings.HasPrefix(path, "/login") || strings.HasPrefix(path, "/session")
}

// page fetches path and parses it as HTML.
func (c *Client) page(ctx context.Context, path string, query map[string]string) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", usecase.ErrDependencyUnavailable, path, err)
	}

	status := res.StatusCode()
	switch {
	case status/100 == 3 && isLoginPath(locationPath(res)):
		return nil, fmt.Errorf("%w: session expired fetching %s", usecase.ErrUnauthorized, path)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, fmt.Errorf("%w: fetch %s status=%d", usecase.ErrUnauthorized, path, status)
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", usecase.ErrNotFound, path)
	case status == http.StatusTooManyRequests || status >= 500:
		return nil, fmt.Errorf("%w: fetch %s status=%d", usecase.ErrDependencyUnavailable, path, status)
	case !res.IsSuccess():
		return nil, crerr.Newf("fetch %s status=%d", path, status)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, crerr.Wrapf(err, "parse %s", path)
	}
	if doc.Find("form#login_form").Length() > 0 {
		return nil, fmt.Errorf("%w: login page served for %s", usecase.ErrUnauthorized, path)
	}
	return doc, nil
}

func locationPath(res *resty.Response) string {
	location := res.Header().Get("Location")
	if location == "" {
		return ""
	}
	if req := res.RawResponse.Request; req != nil {
		if u, err := req.URL.Parse(location); err == nil {
			return u.Path
		}
	}
	return location
}

// text returns the selection's text with whitespace runs folded to one
// space.
func text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}
