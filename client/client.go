package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/paycrest/cardflow/config"
	"github.com/paycrest/cardflow/types"
	"github.com/paycrest/cardflow/utils"
	"github.com/paycrest/cardflow/utils/logger"
)

// BearerSource resolves a bearer token for a target path and method.
// A nil token means no user is signed in; that is a normal outcome, not an
// error.
type BearerSource interface {
	Bearer(ctx context.Context, targetPath, method string) *types.Token
}

// ResponseSink receives a copy of every response for observability. Sinks
// run on their own goroutine and can never block or alter a result.
type ResponseSink interface {
	LogResponse(req Request, status int, body []byte)
}

// call is one shared in-flight execution. Waiters block on done and then
// read body/err; both are written exactly once before done is closed.
type call struct {
	done chan struct{}
	body []byte
	err  error
}

// RequestClient is the sole path to the backend. Structurally identical
// requests issued concurrently coalesce onto a single execution, and a
// completed response is cached for exactly one subsequent lookup.
type RequestClient struct {
	baseURL string
	http    *http.Client
	bearer  BearerSource
	sink    ResponseSink

	mu       sync.Mutex
	inflight map[string]*call
	ready    map[string][]byte
}

// Option customizes a RequestClient.
type Option func(*RequestClient)

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *RequestClient) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *RequestClient) { c.http = httpClient }
}

// WithResponseSink overrides the response logging sink.
func WithResponseSink(sink ResponseSink) Option {
	return func(c *RequestClient) { c.sink = sink }
}

// NewRequestClient constructs a request client backed by the shared pooled
// transport and the configured API base URL.
func NewRequestClient(bearer BearerSource, opts ...Option) *RequestClient {
	c := &RequestClient{
		baseURL:  config.ClientConfig().APIBaseURL,
		http:     utils.GetHTTPClient(),
		bearer:   bearer,
		sink:     loggerSink{},
		inflight: make(map[string]*call),
		ready:    make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute performs the request, coalescing it with any structurally
// identical request already in flight. A response cached by a previous
// completion is served exactly once and then evicted.
func (c *RequestClient) Execute(ctx context.Context, req Request, requiresAuth bool) ([]byte, error) {
	key := req.Key()

	c.mu.Lock()
	if body, ok := c.ready[key]; ok {
		// One-shot: a completed entry serves the very next lookup, then
		// disappears. Deliberately not a TTL cache.
		delete(c.ready, key)
		c.mu.Unlock()
		return body, nil
	}
	if shared, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		return c.await(ctx, shared)
	}
	shared := &call{done: make(chan struct{})}
	c.inflight[key] = shared
	c.mu.Unlock()

	// The dispatch outlives the originating caller's context: waiters
	// coalesced onto this call must observe its outcome even if the
	// originator cancels.
	shared.body, shared.err = c.dispatch(context.WithoutCancel(ctx), req, requiresAuth)

	c.mu.Lock()
	delete(c.inflight, key)
	if shared.err == nil {
		c.ready[key] = shared.body
	}
	c.mu.Unlock()
	close(shared.done)

	return shared.body, shared.err
}

// await blocks until the shared call completes or the waiter's context is
// canceled. A canceled waiter simply stops waiting; the underlying call
// still completes and populates the one-shot cache for the next caller.
func (c *RequestClient) await(ctx context.Context, shared *call) ([]byte, error) {
	select {
	case <-shared.done:
		return shared.body, shared.err
	case <-ctx.Done():
		return nil, ErrTransport{Err: ctx.Err()}
	}
}

func (c *RequestClient) dispatch(ctx context.Context, req Request, requiresAuth bool) ([]byte, error) {
	rawURL := strings.TrimSuffix(c.baseURL, "/") + req.Path
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, ErrBadURL{URL: rawURL}
	}
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, ErrBadURL{URL: rawURL}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if requiresAuth {
		token := c.bearer.Bearer(ctx, req.Path, req.Method)
		if token == nil || token.AccessToken == "" {
			// Fail before touching the network.
			return nil, ErrUnauthorized{}
		}
		httpReq.Header.Set("Authorization", "Bearer "+token.AccessToken)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, ErrTransport{Err: err}
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, ErrTransport{Err: err}
	}

	if c.sink != nil {
		go c.sink.LogResponse(req, res.StatusCode, resBody)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, ErrHTTPStatus{Code: res.StatusCode, Body: string(resBody)}
	}
	return resBody, nil
}

// loggerSink mirrors responses into the structured logger.
type loggerSink struct{}

func (loggerSink) LogResponse(req Request, status int, body []byte) {
	logger.Debugf("backend response", logger.Fields{
		"Method": req.Method,
		"Path":   req.Path,
		"Status": status,
		"Bytes":  len(body),
	})
}
