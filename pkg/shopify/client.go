package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "bundly/1.0"
)

// Client talks to one shop's REST Admin API. It is immutable after
// NewClient and safe for concurrent use.
type Client struct {
	shopDomain  string
	accessToken string
	baseURL     string
	userAgent   string

	httpClient  *http.Client
	pacer       Pacer
	logger      *zap.Logger
	catalog     StatusCatalog
	refs        *RecordRefResolver
	pageWorkers int

	// paceMu serializes pacer waits so concurrent page workers are spaced
	// like sequential calls.
	paceMu sync.Mutex
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithBaseURL replaces https://{shop}/admin/ (tests, proxies).
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

func WithPacer(p Pacer) Option { return func(c *Client) { c.pacer = p } }

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.logger = l } }

func WithStatusCatalog(sc StatusCatalog) Option { return func(c *Client) { c.catalog = sc } }

func WithRecordRefs(r *RecordRefResolver) Option { return func(c *Client) { c.refs = r } }

func WithUserAgent(ua string) Option { return func(c *Client) { c.userAgent = ua } }

// WithPageWorkers bounds how many product pages are fetched at once.
// Values below 2 keep pagination strictly sequential.
func WithPageWorkers(n int) Option { return func(c *Client) { c.pageWorkers = n } }

// NewClient builds a client for shopDomain. accessToken may be empty, which
// only makes sense for the OAuth token exchange.
func NewClient(shopDomain, accessToken string, opts ...Option) *Client {
	c := &Client{
		shopDomain:  NormalizeShopDomain(shopDomain),
		accessToken: strings.TrimSpace(accessToken),
		userAgent:   DefaultUserAgent,
		pacer:       FixedDelay(DefaultRequestDelay),
		pageWorkers: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.catalog == nil {
		c.catalog = DefaultStatusCatalog()
	}
	if c.refs == nil {
		c.refs = DefaultRecordRefResolver()
	}
	if c.pacer == nil {
		c.pacer = FixedDelay(0)
	}
	if c.baseURL == "" {
		c.baseURL = fmt.Sprintf("https://%s/admin/", c.shopDomain)
	}
	if !strings.HasSuffix(c.baseURL, "/") {
		c.baseURL += "/"
	}
	return c
}

func (c *Client) ShopDomain() string { return c.shopDomain }

// NormalizeShopDomain strips scheme and trailing slashes from a shop domain.
func NormalizeShopDomain(shop string) string {
	s := strings.TrimSpace(shop)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.TrimRight(s, "/")
}

// IsAcceptedMethod reports whether Execute will issue a call for method.
func IsAcceptedMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// Execute issues one call to {base}/{endpoint} and classifies the outcome.
//
// Methods outside GET/POST/PUT/DELETE are not sent; the zero Envelope is
// returned and the rejection is logged. Every other call waits on the pacer
// first. Only POST and PUT carry body; for GET and DELETE it is ignored.
// Failures are logged once, tagged with the shop domain.
func (c *Client) Execute(ctx context.Context, method, endpoint string, body any) Envelope {
	var env Envelope
	if !IsAcceptedMethod(method) {
		c.logger.Warn("shopify request rejected: unsupported method",
			zap.String("shop", c.shopDomain),
			zap.String("method", method),
			zap.String("endpoint", endpoint),
		)
		return env
	}

	u := c.baseURL + strings.TrimLeft(endpoint, "/")
	env.Request = &RequestInfo{Method: method, URL: u}

	var payload []byte
	if body != nil && (method == http.MethodPost || method == http.MethodPut) {
		b, err := json.Marshal(body)
		if err != nil {
			env.Err = &DecodeError{Code: "encode", Message: err.Error(), Err: err}
			c.logFailure(env)
			return env
		}
		payload = b
		env.Request.Body = b
	}

	if err := c.pace(ctx); err != nil {
		env.Err = transportFailure(err)
		c.logFailure(env)
		return env
	}

	var reader io.Reader
	if len(payload) > 0 {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		env.Err = &TransportError{Code: "request", Message: err.Error(), Err: err}
		c.logFailure(env)
		return env
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.accessToken != "" {
		req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		env.Err = transportFailure(err)
		c.logFailure(env)
		return env
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		// A partial body is discarded; only the status survives.
		env.HTTPCode = resp.StatusCode
		env.Err = transportFailure(err)
		c.logFailure(env)
		return env
	}
	env.HTTPCode = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		env.Err = &APIError{
			Status:  resp.StatusCode,
			Message: c.catalog.Explain(resp.StatusCode),
			Details: errorDetails(b),
		}
		c.logFailure(env)
		return env
	}

	if !json.Valid(b) {
		env.Err = decodeFailure(b)
		c.logFailure(env)
		return env
	}
	env.Response = json.RawMessage(b)
	return env
}

// pace holds paceMu for the whole wait, so no two calls leave the pacer
// closer together than one delay.
func (c *Client) pace(ctx context.Context) error {
	c.paceMu.Lock()
	defer c.paceMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.pacer.Wait(ctx)
}

func (c *Client) logFailure(env Envelope) {
	fields := []zap.Field{
		zap.String("shop", c.shopDomain),
		zap.Int("http_code", env.HTTPCode),
	}
	if env.Request != nil {
		fields = append(fields, zap.String("method", env.Request.Method), zap.String("url", env.Request.URL))
	}
	switch e := env.Err.(type) {
	case *TransportError:
		fields = append(fields, zap.String("code", e.Code))
	case *DecodeError:
		fields = append(fields, zap.String("code", e.Code))
	case *APIError:
		fields = append(fields, zap.Int("code", e.Status))
	}
	if env.Err != nil {
		fields = append(fields, zap.String("error_type", string(env.Err.Kind())), zap.Error(env.Err))
	}
	c.logger.Warn("shopify request failed", fields...)
}

func transportFailure(err error) *TransportError {
	code := "network"
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		code = "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		code = "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		code = "timeout"
	case errors.Is(err, io.ErrUnexpectedEOF):
		code = "truncated"
	}
	return &TransportError{Code: code, Message: err.Error(), Err: err}
}

func decodeFailure(b []byte) *DecodeError {
	var v any
	err := json.Unmarshal(b, &v)
	if err == nil {
		err = errors.New("invalid json")
	}
	code := "syntax"
	var syn *json.SyntaxError
	if len(bytes.TrimSpace(b)) == 0 {
		code = "empty"
	} else if errors.As(err, &syn) {
		code = fmt.Sprintf("syntax@%d", syn.Offset)
	}
	return &DecodeError{Code: code, Message: "unexpected response format: " + err.Error(), Err: err}
}

// errorDetails extracts the "errors" member of a JSON error body.
func errorDetails(b []byte) json.RawMessage {
	if !json.Valid(b) {
		return nil
	}
	var body struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(b, &body); err != nil {
		return nil
	}
	if len(body.Errors) == 0 || string(body.Errors) == "null" {
		return nil
	}
	return body.Errors
}
