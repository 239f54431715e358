package oaipmh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/activemonkeys/geneax/internal/core/ports/driven"
	"github.com/activemonkeys/geneax/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestDelay is the default pause between requests to one host.
	DefaultRequestDelay = time.Second

	// DefaultMetadataPrefix is requested when none is given.
	DefaultMetadataPrefix = "oai_a2a"

	// DefaultUserAgent identifies the harvester to archives.
	DefaultUserAgent = "Geneax/0.1.0"

	// maxSetPages bounds ListSets pagination against looping servers.
	maxSetPages = 1000
)

// Config configures a Client.
type Config struct {
	// Timeout applies per HTTP request.
	Timeout time.Duration

	// RequestDelay is the minimum spacing between requests to one host.
	// Zero disables pacing.
	RequestDelay time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// HTTPClient overrides the transport. Its Timeout is left untouched.
	HTTPClient *http.Client
}

// Client issues OAI-PMH requests.
type Client struct {
	http      *http.Client
	userAgent string
	delay     time.Duration

	mu       sync.Mutex
	limiters map[string]*RateLimiter
}

// Ensure Client implements the interfaces.
var (
	_ driven.OAIClient    = (*Client)(nil)
	_ driven.BatchDecoder = (*Client)(nil)
)

// NewClient creates a new OAI-PMH client.
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &Client{
		http:      hc,
		userAgent: ua,
		delay:     cfg.RequestDelay,
		limiters:  make(map[string]*RateLimiter),
	}
}

// Identify returns the repository description.
func (c *Client) Identify(ctx context.Context, baseURL string) (*driven.OAIIdentity, error) {
	env, _, err := c.call(ctx, baseURL, url.Values{"verb": {"Identify"}})
	if err != nil {
		return nil, err
	}
	if len(env.Errors) > 0 {
		return nil, env.firstError()
	}
	if env.Identify == nil {
		return nil, &ProtocolError{Code: CodeBadResponseBody, Message: "no Identify in response"}
	}

	id := env.Identify
	return &driven.OAIIdentity{
		RepositoryName:    id.RepositoryName,
		BaseURL:           id.BaseURL,
		ProtocolVersion:   id.ProtocolVersion,
		AdminEmail:        id.AdminEmail,
		EarliestDatestamp: id.EarliestDatestamp,
		DeletedRecord:     id.DeletedRecord,
		Granularity:       id.Granularity,
		ResponseDate:      env.responseDate(),
	}, nil
}

// ListSets returns every set, following resumption tokens.
// A repository without sets yields an empty list.
func (c *Client) ListSets(ctx context.Context, baseURL string) ([]driven.OAISet, error) {
	var sets []driven.OAISet
	params := url.Values{"verb": {"ListSets"}}

	for page := 0; page < maxSetPages; page++ {
		env, _, err := c.call(ctx, baseURL, params)
		if err != nil {
			return sets, err
		}
		if len(env.Errors) > 0 {
			if env.hasError(CodeNoSetHierarchy) || env.hasError(CodeNoRecordsMatch) {
				return sets, nil
			}
			return sets, env.firstError()
		}
		if env.ListSets == nil {
			return sets, &ProtocolError{Code: CodeBadResponseBody, Message: "no ListSets in response"}
		}

		for _, s := range env.ListSets.Sets {
			sets = append(sets, driven.OAISet{Spec: s.Spec, Name: s.Name})
		}

		token := ""
		if env.ListSets.ResumptionToken != nil {
			token = strings.TrimSpace(env.ListSets.ResumptionToken.Value)
		}
		if token == "" {
			return sets, nil
		}
		params = url.Values{"verb": {"ListSets"}, "resumptionToken": {token}}
	}
	return sets, fmt.Errorf("oai-pmh: ListSets exceeded %d pages", maxSetPages)
}

// ListRecords fetches one page of records.
// With a resumption token only verb and resumptionToken are sent.
func (c *Client) ListRecords(ctx context.Context, opts driven.ListRecordsOptions) (*driven.ListRecordsResult, error) {
	raw, err := c.fetch(ctx, opts.BaseURL, ListRecordsParams(opts))
	if err != nil {
		return nil, err
	}
	return DecodeListRecords(raw)
}

// ListRecordsParams builds the query for a ListRecords request.
func ListRecordsParams(opts driven.ListRecordsOptions) url.Values {
	params := url.Values{"verb": {"ListRecords"}}
	if opts.ResumptionToken != "" {
		params.Set("resumptionToken", opts.ResumptionToken)
		return params
	}

	prefix := opts.MetadataPrefix
	if prefix == "" {
		prefix = DefaultMetadataPrefix
	}
	params.Set("metadataPrefix", prefix)
	if opts.Set != "" {
		params.Set("set", opts.Set)
	}
	if opts.From != "" {
		params.Set("from", opts.From)
	}
	if opts.Until != "" {
		params.Set("until", opts.Until)
	}
	return params
}

// GetRecord fetches a single record by identifier.
func (c *Client) GetRecord(ctx context.Context, baseURL, identifier, metadataPrefix string) (*driven.OAIRecord, error) {
	if metadataPrefix == "" {
		metadataPrefix = DefaultMetadataPrefix
	}
	env, _, err := c.call(ctx, baseURL, url.Values{
		"verb":           {"GetRecord"},
		"identifier":     {identifier},
		"metadataPrefix": {metadataPrefix},
	})
	if err != nil {
		return nil, err
	}
	if len(env.Errors) > 0 {
		return nil, env.firstError()
	}
	if env.GetRecord == nil {
		return nil, &ProtocolError{Code: CodeBadResponseBody, Message: "no GetRecord in response"}
	}
	rec := env.GetRecord.Record.toRecord()
	return &rec, nil
}

// DecodeBatch parses a stored ListRecords page.
func (c *Client) DecodeBatch(raw []byte) (*driven.ListRecordsResult, error) {
	return DecodeListRecords(raw)
}

// call fetches and decodes an envelope.
func (c *Client) call(ctx context.Context, baseURL string, params url.Values) (*envelope, []byte, error) {
	raw, err := c.fetch(ctx, baseURL, params)
	if err != nil {
		return nil, nil, err
	}
	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, raw, err
	}
	return env, raw, nil
}

// fetch performs one paced GET request and returns the body.
func (c *Client) fetch(ctx context.Context, baseURL string, params url.Values) ([]byte, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &ProtocolError{Code: "badArgument", Message: fmt.Sprintf("invalid base URL %q", baseURL)}
	}
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	reqURL := u.String()

	limiter := c.limiterFor(u.Host)
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, &NetworkError{URL: reqURL, Err: err}
	}
	req.Header.Set("Accept", "application/xml, text/xml")
	req.Header.Set("User-Agent", c.userAgent)

	logger.Debug("OAI-PMH request: %s", reqURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, reqURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		backoff := limiter.UpdateFromResponse(resp)
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, URL: reqURL, RetryAfter: backoff}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, reqURL, err)
	}
	return body, nil
}

func (c *Client) limiterFor(host string) *RateLimiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[host]
	if !ok {
		l = NewRateLimiter(c.delay)
		c.limiters[host] = l
	}
	return l
}

func classifyTransportError(ctx context.Context, reqURL string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{URL: reqURL, Err: err}
	}
	return &NetworkError{URL: reqURL, Err: err}
}

