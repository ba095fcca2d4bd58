package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/alimikegami/nextrans-go/pkg/errs"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

// Requester talks to one gateway API and returns the JSON payload of
// successful responses.
type Requester interface {
	Post(ctx context.Context, endpoint string, body any, headers map[string]string) ([]byte, error)
	Get(ctx context.Context, endpoint string, params url.Values, headers map[string]string) ([]byte, error)
}

// HttpRequest is a struct to hold request parameters
type HttpRequest struct {
	Endpoint string
	Method   string
	Body     []byte
	Params   url.Values
	Headers  map[string]string
}

type Client struct {
	baseURL   string
	serverKey string
	resty     *resty.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
}

type Option func(*Client)

// WithCircuitBreaker guards every request with cb.
func WithCircuitBreaker(cb *gobreaker.CircuitBreaker[[]byte]) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

// NewClient returns a Requester for baseURL authenticated with the server key
// as the basic-auth user name. Requests go through hc, so its transport and
// timeout apply.
func NewClient(baseURL, serverKey string, hc *http.Client, opts ...Option) (*Client, error) {
	if hc == nil {
		return nil, errs.NewConfigurationError("an HTTP client is required")
	}
	if baseURL == "" {
		return nil, errs.NewConfigurationError("base URL is empty")
	}
	if serverKey == "" {
		return nil, errs.NewConfigurationError("server key is empty")
	}

	baseURL = strings.TrimSuffix(baseURL, "/")
	c := &Client{
		baseURL:   baseURL,
		serverKey: serverKey,
		resty: resty.NewWithClient(hc).
			SetBaseURL(baseURL).
			SetLogger(restyLogger{}).
			SetHeaders(map[string]string{
				"Content-Type": "application/json",
				"Accept":       "application/json",
			}),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) Post(ctx context.Context, endpoint string, body any, headers map[string]string) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	return c.SendRequest(ctx, HttpRequest{
		Endpoint: endpoint,
		Method:   http.MethodPost,
		Body:     payload,
		Headers:  headers,
	})
}

func (c *Client) Get(ctx context.Context, endpoint string, params url.Values, headers map[string]string) ([]byte, error) {
	return c.SendRequest(ctx, HttpRequest{
		Endpoint: endpoint,
		Method:   http.MethodGet,
		Params:   params,
		Headers:  headers,
	})
}

// SendRequest sends an HTTP request based on the given HttpRequest struct
func (c *Client) SendRequest(ctx context.Context, req HttpRequest) ([]byte, error) {
	if c.breaker == nil {
		return c.send(ctx, req)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.send(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s %s not sent: %w", errs.ErrGatewayFailure, req.Method, c.baseURL+req.Endpoint, err)
	}

	return body, err
}

func (c *Client) send(ctx context.Context, req HttpRequest) ([]byte, error) {
	r := c.resty.R().
		SetContext(ctx).
		SetHeaders(req.Headers)
	if !hasHeader(req.Headers, "Authorization") {
		r.SetBasicAuth(c.serverKey, "")
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}
	if len(req.Params) > 0 {
		r.SetQueryParamsFromValues(req.Params)
	}

	u := c.baseURL + req.Endpoint
	resp, err := r.Execute(req.Method, req.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s failed: %w", errs.ErrGatewayFailure, req.Method, u, err)
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		return nil, c.failure(ctx, req.Method, u, resp)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: failed fetching %s, content is not JSON: %s, %s",
			errs.ErrGatewayFailure, u, resp.Status(), body)
	}

	return body, nil
}

func (c *Client) failure(ctx context.Context, method, u string, resp *resty.Response) error {
	if resp.StatusCode() == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s %s", errs.ErrUnauthorized, method, u)
	}

	if resp.StatusCode() >= 300 && resp.StatusCode() < 400 {
		// The gateway gives no usable guidance for redirects; an operator has
		// to look at the configured endpoint.
		log.Ctx(ctx).Warn().
			Str("component", "httpclient").
			Str("url", u).
			Int("status", resp.StatusCode()).
			Str("location", resp.Header().Get("Location")).
			Msg("gateway answered with a redirect")
	}

	return &errs.GatewayError{
		Method:     method,
		URL:        u,
		StatusCode: resp.StatusCode(),
		Status:     http.StatusText(resp.StatusCode()),
		Body:       string(resp.Body()),
	}
}

func hasHeader(headers map[string]string, name string) bool {
	for key := range headers {
		if http.CanonicalHeaderKey(key) == name {
			return true
		}
	}
	return false
}

// restyLogger sends resty's own messages to the global zerolog logger.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	log.Error().Str("component", "resty").Msgf(format, v...)
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	log.Warn().Str("component", "resty").Msgf(format, v...)
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	log.Debug().Str("component", "resty").Msgf(format, v...)
}
