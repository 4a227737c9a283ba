package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/internal/localstore"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/storage"
)

const errorBodyReadLimit int64 = 64 * 1024

// Client talks to the storefront REST API. Session cookies live in a jar
// that is persisted to the local store when one is configured.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
	session    *sessionJar
	kv         storage.KV
	logg       *logger.Logger
	metrics    *metrics.ClientMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. Its jar is replaced by
// the session jar.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSessionStore persists session cookies in kv.
func WithSessionStore(kv storage.KV) Option {
	return func(c *Client) {
		c.kv = kv
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a backend client for cfg.BaseURL and restores any
// persisted session.
func NewClient(ctx context.Context, cfg config.BackendConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "backend base url must be absolute")
	}

	c := &Client{
		baseURL:   base,
		userAgent: cfg.UserAgent,
		logg:      logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	var store *localstore.ListStore[persistedCookie]
	if c.kv != nil {
		store = localstore.New[persistedCookie](c.kv, localstore.SessionKey, c.logg, c.metrics)
	}
	c.session, err = newSessionJar(base, store)
	if err != nil {
		return nil, err
	}
	c.httpClient.Jar = c.session
	c.session.restore(ctx)
	return c, nil
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// do issues one request and returns the raw success body. endpoint is the
// low-cardinality metrics label.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body any) ([]byte, error) {
	ctx = c.logg.WithEndpoint(ctx, method, path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, method, metrics.OutcomeUnreachable, time.Since(start))
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "backend unreachable")
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnectivity, err, fmt.Sprintf("%s %s failed", method, path))
	}
	defer func() { _ = resp.Body.Close() }()
	c.session.persist(ctx)

	ctx = c.logg.WithField(ctx, "status", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.ObserveRequest(endpoint, method, metrics.OutcomeRejected, time.Since(start))
		rejected := errorFromResponse(resp)
		c.logg.Debug(c.logg.WithField(ctx, "error", rejected.Error()), "backend rejected request")
		return nil, rejected
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, method, metrics.OutcomeUnreachable, time.Since(start))
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnectivity, err, "read response body")
	}
	c.metrics.ObserveRequest(endpoint, method, metrics.OutcomeSuccess, time.Since(start))
	c.logg.Debug(ctx, "backend request completed")
	return raw, nil
}

// doJSON issues a request and decodes the body into out.
func (c *Client) doJSON(ctx context.Context, endpoint, method, path string, body, out any) error {
	raw, err := c.do(ctx, endpoint, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.metrics.ObserveRequest(endpoint, method, metrics.OutcomeDecodeError, 0)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", endpoint))
	}
	return nil
}

func errorFromResponse(resp *http.Response) *pkgerrors.Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	var body errorBody
	_ = json.Unmarshal(raw, &body)
	msg := body.Error
	if msg == "" {
		msg = body.Message
	}

	code := pkgerrors.CodeServerRejected
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case http.StatusConflict:
		code = pkgerrors.CodeConflict
	}

	cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	out := pkgerrors.Wrap(code, cause, msg)
	if body.Details != nil {
		out = out.WithDetails(body.Details)
	}
	return out
}
