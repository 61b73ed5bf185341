// Package httpfetch is the HTTP transport used by the bundled adapters.
package httpfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"

	"github.com/unkn0wn-root/batchload"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 32 << 20
	defaultLimiterTTL   = 30 * time.Minute
	defaultUserAgent    = "batchload/1"

	statusBodyPreview = 512
)

var ErrBodyTooLarge = errors.New("httpfetch: response body too large")

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	StatusCode int
	URL        string
	Body       []byte // first bytes of the response body
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpfetch: %s returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	HTTPClient   HTTPClient    // nil => &http.Client{Timeout: Timeout}
	Timeout      time.Duration // 0 => 30s
	MaxBodyBytes int64         // 0 => 32 MiB
	RatePerHost  float64       // requests per second per host; 0 => unlimited
	BurstPerHost int           // 0 => 1
	LimiterTTL   time.Duration // idle per-host limiters are dropped after this; 0 => 30m
	UserAgent    string
	Logger       batchload.Logger
}

type Request struct {
	Method string // "" => GET
	URL    string
	Header http.Header
	Body   []byte
}

type Client struct {
	http      HTTPClient
	maxBody   int64
	userAgent string
	log       batchload.Logger

	limiters *ttlcache.Cache[string, *rate.Limiter] // nil when unlimited
	rate     rate.Limit
	burst    int
}

// New returns the client and a stop func that releases the limiter janitor.
func New(cfg Config) (*Client, func()) {
	c := &Client{
		http:      cfg.HTTPClient,
		maxBody:   cfg.MaxBodyBytes,
		userAgent: cfg.UserAgent,
		log:       cfg.Logger,
	}
	if c.http == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.maxBody <= 0 {
		c.maxBody = defaultMaxBodyBytes
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.log == nil {
		c.log = batchload.NopLogger{}
	}

	if cfg.RatePerHost <= 0 {
		return c, func() {}
	}
	ttl := cfg.LimiterTTL
	if ttl <= 0 {
		ttl = defaultLimiterTTL
	}
	c.rate = rate.Limit(cfg.RatePerHost)
	c.burst = max(cfg.BurstPerHost, 1)
	c.limiters = ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](ttl),
	)
	go c.limiters.Start()
	return c, c.limiters.Stop
}

// Do performs r and returns the response body. It waits for the host's rate
// limiter first, so a canceled ctx may end the call before any I/O.
func (c *Client) Do(ctx context.Context, r Request) ([]byte, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: bad url %q: %w", r.URL, err)
	}
	if err := c.wait(ctx, u.Host); err != nil {
		return nil, err
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: build request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	reqID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", reqID)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("http request failed", batchload.Fields{"url": r.URL, "request_id": reqID, "err": err})
		return nil, fmt.Errorf("httpfetch: %s %s: %w", method, r.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("httpfetch: read body of %s: %w", r.URL, err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, r.URL, c.maxBody)
	}

	c.log.Debug("http request done", batchload.Fields{
		"url":        r.URL,
		"status":     resp.StatusCode,
		"request_id": reqID,
		"took":       time.Since(started),
	})
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: r.URL, Body: data[:min(len(data), statusBodyPreview)]}
	}
	return data, nil
}

func (c *Client) wait(ctx context.Context, host string) error {
	if c.limiters == nil {
		return nil
	}
	item, _ := c.limiters.GetOrSet(host, rate.NewLimiter(c.rate, c.burst))
	if err := item.Value().Wait(ctx); err != nil {
		return fmt.Errorf("httpfetch: rate limit for %s: %w", host, err)
	}
	return nil
}
