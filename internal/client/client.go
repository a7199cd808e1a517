// Package client is the HTTP client for the wallet custody and ledger API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Config holds the client's connection and retry settings.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int           // total attempts, including the first
	BaseDelay     time.Duration // delay before the second attempt
	MaxDelay      time.Duration
	RateLimit     float64 // requests per second, 0 = unlimited
	AuthToken     string
}

// Client executes API requests with timeout, retry and GET deduplication.
type Client struct {
	baseURL    string
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zerolog.Logger
	newTimer   func() backoff.Timer
	inflight   singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the detached context of one deduplicated GET. It is cancelled
// once every caller waiting on it has left.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Timeout is overwritten by Config.Timeout when set.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimer sets the timer factory used to wait between attempts.
func WithTimer(f func() backoff.Timer) Option {
	return func(c *Client) { c.newTimer = f }
}

// New creates a client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}

	nop := zerolog.Nop()
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cfg:     cfg,
		httpClient: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		logger:  &nop,
		flights: make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}
	if cfg.Timeout > 0 {
		c.httpClient.Timeout = cfg.Timeout
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c, nil
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	Auth   bool // send the bearer token
}

// Do executes req and decodes a JSON response into out (which may be nil).
// Concurrent identical GETs share one execution, including its retries.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	var body []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return &UnknownError{Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		body = b
	}
	fullURL := c.url(req.Path, req.Query)

	var (
		data []byte
		err  error
	)
	if req.Method == http.MethodGet {
		data, err = c.shared(ctx, requestKey(req.Method, fullURL, body), func(fctx context.Context) ([]byte, error) {
			return c.execute(fctx, req.Method, fullURL, body, req.Auth)
		})
	} else {
		data, err = c.execute(ctx, req.Method, fullURL, body, req.Auth)
	}
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &UnknownError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// shared joins or starts the in-flight execution for key. The execution runs
// under a context detached from every caller; each caller stops waiting when
// its own ctx is done, and the execution is cancelled when nobody waits.
func (c *Client) shared(ctx context.Context, key string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	for {
		c.mu.Lock()
		f, ok := c.flights[key]
		if !ok {
			fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
			f = &flight{ctx: fctx, cancel: cancel}
			c.flights[key] = f
		}
		f.waiters++
		fctx := f.ctx
		ch := c.inflight.DoChan(key, func() (interface{}, error) {
			return fn(fctx)
		})
		c.mu.Unlock()

		select {
		case res := <-ch:
			c.leave(key, f)
			if res.Shared {
				c.logger.Debug().Str("key", key).Msg("joined in-flight request")
			}
			// joined an execution abandoned by all of its callers
			if res.Err != nil && errors.Is(res.Err, context.Canceled) && ctx.Err() == nil {
				continue
			}
			if res.Err != nil {
				return nil, res.Err
			}
			return res.Val.([]byte), nil
		case <-ctx.Done():
			c.leave(key, f)
			return nil, ctx.Err()
		}
	}
}

func (c *Client) leave(key string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters == 0 {
		f.cancel()
		if c.flights[key] == f {
			delete(c.flights, key)
		}
	}
}

// requestKey fingerprints a request for deduplication.
func requestKey(method, fullURL string, body []byte) string {
	return method + " " + fullURL + " " + string(body)
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// backoffPolicy waits min(BaseDelay * 2^(n-1), MaxDelay) after attempt n.
func (c *Client) backoffPolicy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = c.cfg.MaxDelay
	exp.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.cfg.RetryAttempts-1)), ctx)
}

func (c *Client) execute(ctx context.Context, method, fullURL string, body []byte, auth bool) ([]byte, error) {
	var (
		data    []byte
		attempt int
	)

	operation := func() error {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return backoff.Permanent(ctx.Err())
				}
				return backoff.Permanent(&UnknownError{Err: err})
			}
		}

		c.logger.Debug().
			Str("method", method).
			Str("url", fullURL).
			Int("attempt", attempt).
			Msg("sending request")

		res, err := c.roundTrip(ctx, method, fullURL, body, auth)
		if err != nil {
			// a cancelled request is never a network failure
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if !IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		data = res
		return nil
	}

	notify := func(err error, next time.Duration) {
		c.logger.Warn().
			Err(err).
			Str("method", method).
			Str("url", fullURL).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Msg("request failed, retrying")
	}

	var timer backoff.Timer
	if c.newTimer != nil {
		timer = c.newTimer()
	}
	if err := backoff.RetryNotifyWithTimer(operation, c.backoffPolicy(ctx), notify, timer); err != nil {
		c.logger.Error().
			Err(err).
			Str("method", method).
			Str("url", fullURL).
			Int("attempts", attempt).
			Msg("request failed")
		return nil, err
	}
	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, method, fullURL string, body []byte, auth bool) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, &UnknownError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newServerError(resp.StatusCode, data)
	}
	return data, nil
}

// Close closes idle HTTP connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
