// Package graphsvc talks to the external graph-construction service: it forwards event
// log uploads and fetches the graph built from them.
package graphsvc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/MalithGihan/flowviz-service/internal/ingest"
	"github.com/MalithGihan/flowviz-service/pkg/types"
)

var (
	// ErrGraphNotBuilt is returned by Graph before any upload has been processed.
	ErrGraphNotBuilt = errors.New("graphsvc: graph not built yet")
	// ErrUnavailable covers transport failures and an open circuit breaker.
	ErrUnavailable = errors.New("graphsvc: graph service unavailable")
	// ErrInvalidGraph wraps the validation error of a graph the service sent back.
	ErrInvalidGraph = errors.New("graphsvc: graph service returned an invalid graph")
)

// StatusError is an unexpected HTTP status from the graph service.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("graphsvc: %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("graphsvc: %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

const maxGraphBody = 256 << 20

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger

	timeout    time.Duration
	breakerCfg BreakerConfig
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithTimeout bounds each request. It applies to a copy of the HTTP client, so a client
// passed to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithRateLimit caps outgoing requests at rps with the given burst. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.logger = l } }

func WithBreaker(cfg BreakerConfig) Option { return func(c *Client) { c.breakerCfg = cfg } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 0),
		logger:     zap.NewNop(),
		breakerCfg: DefaultBreakerConfig("graph-service"),
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	c.breaker = newBreaker(c.breakerCfg, c.logger)
	return c
}

type response struct {
	status int
	body   []byte
}

// call runs one request through the rate limiter and the circuit breaker. 5xx statuses
// and transport errors count as breaker failures; other statuses are returned as is.
func (c *Client) call(ctx context.Context, op string, newReq func(context.Context) (*http.Request, error)) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("graphsvc: %s: %w", op, err)
	}
	out, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := newReq(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxGraphBody))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: snippet(body)}
		}
		return &response{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		var se *StatusError
		switch {
		case errors.As(err, &se):
			return nil, se
		case ctx.Err() != nil:
			return nil, fmt.Errorf("graphsvc: %s: %w", op, ctx.Err())
		default:
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
		}
	}
	return out.(*response), nil
}

// Upload streams r to the graph service as the multipart field "file".
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) error {
	resp, err := c.call(ctx, "upload", func(ctx context.Context) (*http.Request, error) {
		pr, pw := io.Pipe()
		mw := multipart.NewWriter(pw)
		go func() {
			part, err := mw.CreateFormFile("file", filepath.Base(filename))
			if err == nil {
				_, err = io.Copy(part, r)
			}
			if err == nil {
				err = mw.Close()
			}
			pw.CloseWithError(err)
		}()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", pr)
		if err != nil {
			pr.CloseWithError(err)
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return err
	}
	if resp.status/100 != 2 {
		return &StatusError{Op: "upload", StatusCode: resp.status, Body: snippet(resp.body)}
	}
	c.logger.Info("upload forwarded", zap.String("file", filepath.Base(filename)))
	return nil
}

// Graph fetches the current graph.
func (c *Client) Graph(ctx context.Context) (types.Graph, error) {
	resp, err := c.call(ctx, "graph", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/graph", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return types.Graph{}, err
	}
	switch {
	case resp.status == http.StatusNotFound:
		return types.Graph{}, ErrGraphNotBuilt
	case resp.status/100 != 2:
		return types.Graph{}, &StatusError{Op: "graph", StatusCode: resp.status, Body: snippet(resp.body)}
	}
	g, err := ingest.DecodeGraph(bytes.NewReader(resp.body))
	if err != nil {
		return types.Graph{}, fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}
	return g, nil
}

// Clear asks the graph service to drop its graph. Services that do not expose /clear
// answer 404 or 405, which is treated as nothing to clear.
func (c *Client) Clear(ctx context.Context) error {
	resp, err := c.call(ctx, "clear", func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/clear", nil)
	})
	if err != nil {
		return err
	}
	switch {
	case resp.status/100 == 2, resp.status == http.StatusNotFound, resp.status == http.StatusMethodNotAllowed:
		return nil
	default:
		return &StatusError{Op: "clear", StatusCode: resp.status, Body: snippet(resp.body)}
	}
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
