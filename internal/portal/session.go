package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/jgoulah/bandwidthscraper/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

// Portal endpoint paths, relative to the configured base URL
const (
	RootPath   = "/"
	LoginPath  = "/adsls/login_api"
	HourlyPath = "/adsl/g/hourly"
	DailyPath  = "/adsl/g/daily"
)

// maxErrorBody caps how much of a failed response is kept for diagnostics
const maxErrorBody = 4096

// Session holds an authenticated cookie context against the ISP portal
type Session struct {
	client    *http.Client
	baseURL   *url.URL
	userAgent string
	username  string
	password  string
}

// NewSession creates a portal session with an empty cookie jar
func NewSession(cfg config.PortalConfig) (*Session, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing portal base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("portal base url must be absolute: %q", cfg.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
		},
		baseURL:   base,
		userAgent: cfg.UserAgent,
		username:  cfg.Username,
		password:  cfg.Password,
	}, nil
}

// Login seeds the session from the portal root page and then posts the credentials.
// The portal signals success only through the status code.
func (s *Session) Login(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	if err := s.seed(ctx); err != nil {
		// The root page only primes cookies; login may still succeed without it
		logger.Warn().Err(err).Msg("Could not load portal root page")
	}

	form := url.Values{}
	form.Set("_method", "POST")
	form.Set("data[adsl][username]", s.username)
	form.Set("data[adsl][password]", s.password)

	req, err := s.newRequest(ctx, http.MethodPost, LoginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &AuthError{StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	io.Copy(io.Discard, resp.Body)

	logger.Info().Msg("Login successful")
	return nil
}

// Fetch retrieves a JSON document from the given portal path
func (s *Session) Fetch(ctx context.Context, path string) (jsontext.Value, error) {
	req, err := s.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Endpoint: path, StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}

	value := jsontext.Value(body)
	if !value.IsValid() {
		return nil, &FetchError{Endpoint: path, StatusCode: resp.StatusCode, Body: "invalid JSON: " + truncate(string(body))}
	}

	zerolog.Ctx(ctx).Debug().Str("endpoint", path).Int("bytes", len(body)).Msg("Data fetched successfully")
	return value, nil
}

// ImportCookies adds externally captured cookies (e.g. from a browser) to the session
func (s *Session) ImportCookies(cookies []*http.Cookie) {
	s.client.Jar.SetCookies(s.baseURL, cookies)
}

// Cookies returns the cookies the session would send to the portal
func (s *Session) Cookies() []*http.Cookie {
	return s.client.Jar.Cookies(s.baseURL)
}

// seed loads the portal root page; its status is not checked
func (s *Session) seed(ctx context.Context) error {
	req, err := s.newRequest(ctx, http.MethodGet, RootPath, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting portal root: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	zerolog.Ctx(ctx).Debug().Int("status", resp.StatusCode).Msg("Portal root loaded")
	return nil
}

func (s *Session) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	reqURL := s.baseURL.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// The portal expects the same browser-like headers on every call
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return req, nil
}

func readBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return string(body)
}

func truncate(s string) string {
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
