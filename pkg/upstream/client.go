package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/angelmondragon/leasedesk-backend/pkg/config"
	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
	"github.com/angelmondragon/leasedesk-backend/pkg/metrics"
)

const (
	opFetchLeaseRequest    = "fetch_lease_request"
	opAttachmentDecision   = "set_attachment_decision"
	opLeaseRequestStatus   = "set_lease_request_status"
	opFetchAnnualRates     = "fetch_annual_rates"
	opApproveAnnualRate    = "approve_annual_rate"
	opPing                 = "ping"
	maxErrorBodyBytes      = 64 << 10
	defaultRequestTimeout  = 10 * time.Second
	defaultRetryBaseDelay  = 200 * time.Millisecond
	defaultRetryMaxDelay   = 3 * time.Second
	defaultRetryMaxAttempt = 3
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// AttachmentDecision is one category verdict sent upstream.
type AttachmentDecision struct {
	Category string                 `json:"category"`
	Status   enums.AttachmentStatus `json:"status"`
	Note     string                 `json:"note,omitempty"`
}

// AnnualRateQuery filters the annual rate listing. Zero values are omitted.
type AnnualRateQuery struct {
	PropertyID int64
	Year       int
	Page       int
	PerPage    int
}

// Client talks to the remote system of record. Reads are retried with exponential
// backoff; mutations are sent exactly once.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      RetryConfig
	metrics    *metrics.WorkflowMetrics
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithMetrics(m *metrics.WorkflowMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

func New(cfg config.UpstreamConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("upstream base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	c := &Client{
		baseURL:    base,
		token:      cfg.APIToken,
		httpClient: &http.Client{Timeout: timeout},
		retry: RetryConfig{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
			MaxDelay:    cfg.MaxDelay,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.MaxAttempts < 1 {
		c.retry.MaxAttempts = defaultRetryMaxAttempt
	}
	if c.retry.BaseDelay <= 0 {
		c.retry.BaseDelay = defaultRetryBaseDelay
	}
	if c.retry.MaxDelay <= 0 {
		c.retry.MaxDelay = defaultRetryMaxDelay
	}
	return c, nil
}

// FetchLeaseRequest returns the raw tenant request payload for the given phase.
func (c *Client) FetchLeaseRequest(ctx context.Context, id int64, phase enums.Phase) (json.RawMessage, error) {
	path := fmt.Sprintf("/tenant-requests/%d", id)
	if phase == enums.PhaseApproved {
		path = fmt.Sprintf("/approved-tenant-requests/%d", id)
	}
	return c.read(ctx, opFetchLeaseRequest, path, nil)
}

func (c *Client) SetAttachmentDecision(ctx context.Context, id int64, decisions []AttachmentDecision) error {
	body := map[string]any{"attachments": decisions}
	return c.mutate(ctx, opAttachmentDecision, http.MethodPost, fmt.Sprintf("/tenant-requests/%d/attachments/decision", id), body)
}

func (c *Client) SetLeaseRequestStatus(ctx context.Context, id int64, next string) error {
	body := map[string]string{"status": next}
	return c.mutate(ctx, opLeaseRequestStatus, http.MethodPatch, fmt.Sprintf("/tenant-requests/%d/status", id), body)
}

// FetchAnnualRates returns the raw {data, meta, years, statuses} listing.
func (c *Client) FetchAnnualRates(ctx context.Context, q AnnualRateQuery) (json.RawMessage, error) {
	return c.read(ctx, opFetchAnnualRates, "/annual-rates", q.Values())
}

// Values encodes the non-zero filters as query parameters.
func (q AnnualRateQuery) Values() url.Values {
	values := url.Values{}
	if q.PropertyID > 0 {
		values.Set("property_id", strconv.FormatInt(q.PropertyID, 10))
	}
	if q.Year > 0 {
		values.Set("year", strconv.Itoa(q.Year))
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return values
}

func (c *Client) ApproveAnnualRate(ctx context.Context, propertyID, rateID int64) error {
	return c.mutate(ctx, opApproveAnnualRate, http.MethodPost, fmt.Sprintf("/properties/%d/annual-rates/%d/approve", propertyID, rateID), nil)
}

// Ping checks that the system of record answers at all.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.send(ctx, http.MethodGet, "/health", nil, nil)
	return classify(opPing, err)
}

func (c *Client) read(ctx context.Context, operation, path string, query url.Values) (json.RawMessage, error) {
	started := time.Now()
	var body []byte
	policy := backoff.WithContext(backoff.WithMaxRetries(c.backoffPolicy(), uint64(c.retry.MaxAttempts-1)), ctx)
	err := backoff.Retry(func() error {
		var sendErr error
		body, sendErr = c.send(ctx, http.MethodGet, path, query, nil)
		if sendErr == nil {
			return nil
		}
		if retryable(sendErr) {
			return sendErr
		}
		return backoff.Permanent(sendErr)
	}, policy)
	c.observe(operation, started, err)
	if err != nil {
		return nil, classify(operation, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(body) {
		return nil, classify(operation, fmt.Errorf("invalid json from %s", path))
	}
	return json.RawMessage(body), nil
}

func (c *Client) mutate(ctx context.Context, operation, method, path string, payload any) error {
	started := time.Now()
	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", operation, err)
		}
	}
	_, err := c.send(ctx, method, path, nil, encoded)
	c.observe(operation, started, err)
	return classify(operation, err)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return io.ReadAll(resp.Body)
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return nil, parseError(resp.StatusCode, respBody)
}

func (c *Client) backoffPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retry.BaseDelay
	policy.MaxInterval = c.retry.MaxDelay
	policy.MaxElapsedTime = 0
	return policy
}

func (c *Client) observe(operation string, started time.Time, err error) {
	outcome := "ok"
	var upErr *Error
	switch {
	case err == nil:
	case errors.As(err, &upErr):
		outcome = strconv.Itoa(upErr.StatusCode)
	default:
		outcome = "transport_error"
	}
	c.metrics.ObserveUpstream(operation, outcome, time.Since(started))
}

func retryable(err error) bool {
	var upErr *Error
	if errors.As(err, &upErr) {
		if upErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		return upErr.StatusCode >= http.StatusInternalServerError && upErr.StatusCode != http.StatusNotImplemented
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
