//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/caller.go -package=mocks . Caller

// Package api is the transport to the vendor REST API: authenticated calls,
// envelope unwrapping, error classification and the single
// refresh-and-retry cycle on HTTP 401. It also hosts the resource resolver
// and the one mutating entry point, Perform.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/davelindo/eero-menu-bar-sub001/internal/payload"
)

const (
	DefaultBaseURL     = "https://api-user.e2ro.com"
	DefaultRefreshPath = "/2.2/login/refresh"
	DefaultAuthCookie  = "s"
	DefaultTimeout     = 20 * time.Second
)

// Caller performs one API call and returns the unwrapped JSON value.
type Caller interface {
	Call(ctx context.Context, method, pathOrURL string, body any, requiresAuth bool) (gjson.Result, error)
}

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL     string
	RefreshPath string
	AuthCookie  string
	UserAgent   string
	Timeout     time.Duration
	Transport   http.RoundTripper
}

// Client is the Transport component.
type Client struct {
	base       *url.URL
	opts       Options
	httpClient *http.Client
	session    *Session
	logger     *logrus.Logger
}

func NewClient(opts Options, session *Session, logger *logrus.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RefreshPath == "" {
		opts.RefreshPath = DefaultRefreshPath
	}
	if opts.AuthCookie == "" {
		opts.AuthCookie = DefaultAuthCookie
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if session == nil {
		session = NewSession(nil)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		base: base,
		opts: opts,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		session: session,
		logger:  logger,
	}, nil
}

// Session exposes the credential gatekeeper.
func (c *Client) Session() *Session {
	return c.session
}

// Call performs method on pathOrURL. Relative paths resolve against the
// base host. A 401 on an authenticated call triggers one session refresh
// and one retry.
func (c *Client) Call(ctx context.Context, method, pathOrURL string, body any, requiresAuth bool) (gjson.Result, error) {
	return c.call(ctx, method, pathOrURL, body, requiresAuth, true)
}

func (c *Client) call(ctx context.Context, method, pathOrURL string, body any, requiresAuth, retryOnAuthFailure bool) (gjson.Result, error) {
	target, err := c.resolveURL(pathOrURL)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	var token string
	if requiresAuth {
		t, ok := c.session.Token()
		if !ok {
			return gjson.Result{}, ErrUnauthenticated
		}
		token = t
	}

	status, respBody, err := c.do(ctx, method, target, body, token)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %s %s: %w", ErrInvalidResponse, method, target.Path, err)
	}

	if status >= 200 && status < 300 {
		v, err := payload.Parse(respBody)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("%w: %s %s: %w", ErrInvalidResponse, method, target.Path, err)
		}
		return payload.Unwrap(v), nil
	}

	if status == http.StatusUnauthorized && requiresAuth && retryOnAuthFailure && !c.isRefreshPath(target) {
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"path":   target.Path,
		}).Warn("Session rejected, refreshing before one retry")

		if err := c.refresh(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return gjson.Result{}, ctxErr
			}
			c.logger.WithError(err).Warn("Session refresh failed")
		}
		return c.call(ctx, method, pathOrURL, body, requiresAuth, false)
	}

	return gjson.Result{}, newServerError(status, respBody)
}

func (c *Client) do(ctx context.Context, method string, target *url.URL, body any, token string) (int, []byte, error) {
	var (
		status int
		buf    bytes.Buffer
	)

	rb := requests.
		URL(target.String()).
		Client(c.httpClient).
		Method(method).
		Accept("application/json").
		AddValidator(func(res *http.Response) error {
			status = res.StatusCode
			return nil
		}).
		ToBytesBuffer(&buf)
	if c.opts.UserAgent != "" {
		rb.UserAgent(c.opts.UserAgent)
	}
	if token != "" {
		rb.Header("Cookie", c.opts.AuthCookie+"="+token)
	}
	if body != nil {
		rb.BodyJSON(body)
	}

	if err := rb.Fetch(ctx); err != nil {
		return 0, nil, err
	}
	return status, buf.Bytes(), nil
}

func (c *Client) refresh(ctx context.Context) error {
	return c.session.Refresh(ctx, func(ctx context.Context) (string, error) {
		v, err := c.call(ctx, http.MethodPost, c.opts.RefreshPath, nil, true, false)
		if err != nil {
			return "", err
		}
		token, ok := payload.Str(v, "user_token", "token")
		if !ok {
			return "", fmt.Errorf("%w: refresh response carries no token", ErrInvalidPayload)
		}
		return token, nil
	})
}

func (c *Client) resolveURL(pathOrURL string) (*url.URL, error) {
	if pathOrURL == "" {
		return nil, errors.New("empty path")
	}
	ref, err := url.Parse(pathOrURL)
	if err != nil {
		return nil, err
	}
	if ref.Scheme != "" {
		if ref.Host == "" {
			return nil, fmt.Errorf("url %q has no host", pathOrURL)
		}
		return ref, nil
	}
	return c.base.ResolveReference(ref), nil
}

func (c *Client) isRefreshPath(target *url.URL) bool {
	refresh, err := c.resolveURL(c.opts.RefreshPath)
	if err != nil {
		return false
	}
	return refresh.Path == target.Path
}
