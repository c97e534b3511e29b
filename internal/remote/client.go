package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shakelz/assetgate/internal/buildinfo"
)

const (
	// DefaultTimeout bounds a fetch when the caller passes zero.
	DefaultTimeout = 10 * time.Second

	versionPath  = "version.json"
	maxBodyBytes = 64 << 10
)

// VersionFetcher is implemented by *Client and can be faked in tests.
type VersionFetcher interface {
	FetchVersion(ctx context.Context, timeout time.Duration) (string, error)
}

var _ VersionFetcher = (*Client)(nil)

// Client fetches the authoritative version document.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	timeout   time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the default fetch deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient builds a Client for the asset host at baseURL. The version
// document is expected at {baseURL}/version.json.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: buildinfo.UserAgent(),
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// VersionURL returns the full URL of the version document.
func (c *Client) VersionURL() string {
	return c.baseURL.JoinPath(versionPath).String()
}

// FetchVersion performs one GET for the version document and returns its
// tag. The request is aborted once timeout elapses; zero uses the client
// default. Every failure is a *FetchError.
func (c *Client) FetchVersion(ctx context.Context, timeout time.Duration) (string, error) {
	if c == nil {
		return "", &FetchError{Kind: KindNetwork, Err: errors.New("client is nil")}
	}
	if timeout <= 0 {
		timeout = c.timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.VersionURL(), nil)
	if err != nil {
		return "", &FetchError{Kind: KindNetwork, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", classify(reqCtx, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return "", &FetchError{
			Kind:   KindBadResponse,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s returned status %d", versionPath, resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return "", classify(reqCtx, fmt.Errorf("read body: %w", err))
	}
	if len(body) > maxBodyBytes {
		return "", &FetchError{Kind: KindBadResponse, Err: fmt.Errorf("body exceeds %d bytes", maxBodyBytes)}
	}
	return decodeVersion(body)
}

// versionDocument mirrors the payload returned by version.json.
type versionDocument struct {
	Version *string `json:"version"`
}

func decodeVersion(body []byte) (string, error) {
	var doc versionDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", &FetchError{Kind: KindBadResponse, Err: fmt.Errorf("decode response: %w", err)}
	}
	if doc.Version == nil {
		return "", &FetchError{Kind: KindBadResponse, Err: errors.New("response has no version field")}
	}
	tag := strings.TrimSpace(*doc.Version)
	if tag == "" {
		return "", &FetchError{Kind: KindBadResponse, Err: errors.New("response version is empty")}
	}
	return tag, nil
}

// classify separates deadline expiry from other transport failures.
func classify(reqCtx context.Context, err error) error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	return &FetchError{Kind: KindNetwork, Err: err}
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("base url is required")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
