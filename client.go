// Package hsds is a client for HSDS-style REST stores of the HDF5 data
// model. It maps groups, datasets, committed datatypes, attributes and
// links onto the server's JSON resources, and moves dataset elements as
// binary payloads whenever the element type allows it, falling back to
// JSON values for point selections of variable-length data and object
// references.
package hsds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/scidata/hsds/dtype"
	"github.com/scidata/hsds/internal/bufpool"
)

const (
	contentTypeJSON   = "application/json"
	contentTypeBinary = "application/octet-stream"

	defaultTimeout         = 30 * time.Second
	defaultMaxConnsPerHost = 8
	defaultMaxConcurrent   = 6
	defaultScratchPoolSize = 16
	defaultScratchCap      = 64 * 1024
)

// Config holds configuration for the client.
type Config struct {
	// Endpoints is the list of server base URLs, such as
	// "http://hsds-1:5101". Required: must not be empty.
	Endpoints []string

	// Username and Password are sent as HTTP basic auth when Username is
	// non-empty.
	Username string
	Password string

	// Timeout bounds each HTTP request. Zero means the default of 30s.
	Timeout time.Duration

	// MaxConnsPerHost caps concurrent connections per endpoint. Zero means
	// the default of 8.
	MaxConnsPerHost int

	// MaxConcurrent caps in-flight requests of one transfer batch. Zero
	// means the default of 6.
	MaxConcurrent int

	// ScratchPoolSize is the maximum number of pooled scratch buffers for
	// binary payloads. Zero means the default of 16.
	ScratchPoolSize int32

	// SelectEndpoint picks the endpoint for an object identifier.
	// If nil, uses DefaultSelectEndpoint (jump-hash based).
	SelectEndpoint SelectEndpoint

	// NewBreaker creates a circuit breaker for an endpoint.
	// Called once per endpoint when the client is created.
	// If nil, no circuit breaker is used.
	NewBreaker func(endpoint string) *gobreaker.CircuitBreaker[[]byte]

	// Logger receives request-level debug logging. If nil, logging is
	// disabled.
	Logger *zap.Logger

	// for testing purposes only
	transport http.RoundTripper
}

// endpointState pairs an endpoint base URL with its circuit breaker.
type endpointState struct {
	base    string
	breaker *gobreaker.CircuitBreaker[[]byte] // nil if not configured
}

// Client talks to one logical store across one or more endpoints.
type Client struct {
	httpc          *http.Client
	endpoints      []endpointState
	selectEndpoint SelectEndpoint
	username       string
	password       string
	maxConcurrent  int

	scratch *bufpool.Pool
	stats   *clientStatsCollector
	log     *zap.Logger

	versionOnce sync.Once
	version     dtype.ServerVersion
	versionErr  error
}

// NewClient creates a client for the given configuration.
func NewClient(config Config) (*Client, error) {
	if len(config.Endpoints) == 0 {
		return nil, fmt.Errorf("hsds: no endpoints provided")
	}

	selectEndpoint := config.SelectEndpoint
	if selectEndpoint == nil {
		selectEndpoint = DefaultSelectEndpoint
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxConns := config.MaxConnsPerHost
	if maxConns == 0 {
		maxConns = defaultMaxConnsPerHost
	}
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent == 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	poolSize := config.ScratchPoolSize
	if poolSize == 0 {
		poolSize = defaultScratchPoolSize
	}

	endpoints := make([]endpointState, len(config.Endpoints))
	for i, ep := range config.Endpoints {
		base := strings.TrimRight(ep, "/")
		if _, err := url.Parse(base); err != nil || base == "" {
			return nil, fmt.Errorf("hsds: invalid endpoint %q", ep)
		}
		endpoints[i].base = base
		if config.NewBreaker != nil {
			endpoints[i].breaker = config.NewBreaker(base)
		}
	}

	var transport http.RoundTripper = &http.Transport{
		MaxConnsPerHost:     maxConns,
		MaxIdleConnsPerHost: maxConns,
	}
	if config.transport != nil {
		transport = config.transport
	}

	scratch, err := bufpool.New(poolSize, defaultScratchCap)
	if err != nil {
		return nil, err
	}

	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		httpc: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		endpoints:      endpoints,
		selectEndpoint: selectEndpoint,
		username:       config.Username,
		password:       config.Password,
		maxConcurrent:  maxConcurrent,
		scratch:        scratch,
		stats:          newClientStatsCollector(),
		log:            log,
	}, nil
}

// Close releases pooled buffers and idle connections.
func (c *Client) Close() {
	c.scratch.Close()
	if t, ok := c.httpc.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// ServerVersion fetches and caches the server's release version, used to
// gate wire features that older servers reject.
func (c *Client) ServerVersion(ctx context.Context) (dtype.ServerVersion, error) {
	c.versionOnce.Do(func() {
		doc, err := c.getJSON(ctx, &request{method: http.MethodGet, path: "/about"})
		if err != nil {
			c.versionErr = err
			return
		}
		c.version, c.versionErr = parseVersion(doc.Get("hsds_version").String())
	})
	return c.version, c.versionErr
}

func parseVersion(s string) (dtype.ServerVersion, error) {
	var v dtype.ServerVersion
	parts := strings.SplitN(s, ".", 3)
	if len(parts) < 2 {
		return v, fmt.Errorf("hsds: malformed server version %q", s)
	}
	fields := []*int{&v.Major, &v.Minor, &v.Patch}
	for i, p := range parts {
		// Pre-release suffixes like "0.9.0beta" only matter up to the
		// numeric prefix.
		end := 0
		for end < len(p) && p[end] >= '0' && p[end] <= '9' {
			end++
		}
		n, err := strconv.Atoi(p[:end])
		if err != nil {
			return v, fmt.Errorf("hsds: malformed server version %q", s)
		}
		*fields[i] = n
	}
	return v, nil
}

// request is one HTTP exchange with the store.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	accept      string

	// objectID routes the request to an endpoint; when empty the path is
	// used instead.
	objectID string
}

func (r *request) routingKey() string {
	if r.objectID != "" {
		return r.objectID
	}
	return r.path
}

// exec performs one request against the endpoint selected for its object,
// going through the endpoint's circuit breaker when one is configured.
// When lease is non-nil the response body is read into the leased buffer,
// avoiding a per-request allocation for large binary payloads.
func (c *Client) exec(ctx context.Context, req *request, lease *bufpool.Lease) ([]byte, error) {
	ep := &c.endpoints[c.selectEndpoint(req.routingKey(), len(c.endpoints))]

	if ep.breaker == nil {
		return c.execDirect(ctx, ep, req, lease)
	}

	// 4xx responses are caller errors; report them without counting a
	// breaker failure.
	var callerErr *ServerError
	data, err := ep.breaker.Execute(func() ([]byte, error) {
		data, err := c.execDirect(ctx, ep, req, lease)
		var se *ServerError
		if errors.As(err, &se) && se.StatusCode < 500 {
			callerErr = se
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &TransportError{Endpoint: ep.base, Err: err}
		}
		return nil, err
	}
	if callerErr != nil {
		return nil, callerErr
	}
	return data, nil
}

func (c *Client) execDirect(ctx context.Context, ep *endpointState, req *request, lease *bufpool.Lease) ([]byte, error) {
	u := ep.base + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, &TransportError{Endpoint: ep.base, Err: err}
	}
	if c.username != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	accept := req.accept
	if accept == "" {
		accept = contentTypeJSON
	}
	httpReq.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Endpoint: ep.base, Err: err}
	}
	defer resp.Body.Close()

	data, err := readBody(resp.Body, lease)
	if err != nil {
		return nil, &TransportError{Endpoint: ep.base, Err: err}
	}

	c.log.Debug("request",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{
			StatusCode: resp.StatusCode,
			Method:     req.method,
			Path:       req.path,
			Message:    errorMessage(data),
		}
	}
	return data, nil
}

// readBody drains r, into the leased buffer when one is provided.
func readBody(r io.Reader, lease *bufpool.Lease) ([]byte, error) {
	if lease == nil {
		return io.ReadAll(r)
	}
	buf := lease.Bytes()[:cap(lease.Bytes())]
	if len(buf) == 0 {
		buf = make([]byte, defaultScratchCap)
	}
	n := 0
	for {
		if n == len(buf) {
			grown := make([]byte, 2*len(buf))
			copy(grown, buf)
			buf = grown
		}
		m, err := r.Read(buf[n:])
		n += m
		if err == io.EOF {
			lease.SetBytes(buf[:n])
			return buf[:n], nil
		}
		if err != nil {
			lease.SetBytes(buf[:0])
			return nil, err
		}
	}
}

// errorMessage extracts the server's error text from a response body.
func errorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return msg.String()
	}
	const maxMessage = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxMessage {
		s = s[:maxMessage]
	}
	return s
}

// getJSON performs a request and parses the response body as JSON.
func (c *Client) getJSON(ctx context.Context, req *request) (gjson.Result, error) {
	data, err := c.exec(ctx, req, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.ParseBytes(data), nil
}
