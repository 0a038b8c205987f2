package mydata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/logistia/einvoice/internal/model"
)

const (
	// DefaultBaseURL is the production endpoint of the authority
	DefaultBaseURL = "https://mydatapi.aade.gr/myDATA"

	// SandboxBaseURL is the authority's test endpoint
	SandboxBaseURL = "https://mydataapidev.aade.gr"

	// DefaultTimeout bounds one transmission round trip
	DefaultTimeout = 12 * time.Second
)

// Credentials is one resolved credential pair for the transmission
// endpoint. Attached as transport headers, never embedded in the body.
type Credentials struct {
	UserID          string
	SubscriptionKey string
}

// Complete reports whether both parts of the pair are present
func (c Credentials) Complete() bool {
	return c.UserID != "" && c.SubscriptionKey != ""
}

// authHeaderTransport wraps an http.RoundTripper to attach the
// per-business credential headers on every request
type authHeaderTransport struct {
	base  http.RoundTripper
	creds Credentials
}

func (t *authHeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("aade-user-id", t.creds.UserID)
	req.Header.Set("ocp-apim-subscription-key", t.creds.SubscriptionKey)
	if t.base != nil {
		return t.base.RoundTrip(req)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
	logger    zerolog.Logger
}

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.baseURL = url
	}
}

// WithTimeout sets a custom round-trip timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.timeout = timeout
	}
}

// WithTransport sets a custom base transport, used by tests
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(cfg *clientConfig) {
		cfg.transport = rt
	}
}

// WithLogger sets the client logger
func WithLogger(log zerolog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = log
	}
}

// Client performs the network exchange with the authority. Retries are
// a caller policy; the client never retries within one call.
type Client struct {
	baseURL string
	timeout time.Duration
	base    http.RoundTripper
	log     zerolog.Logger
}

// NewClient creates a transmission client
func NewClient(opts ...ClientOption) *Client {
	cfg := &clientConfig{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Client{
		baseURL: cfg.baseURL,
		timeout: cfg.timeout,
		base:    cfg.transport,
		log:     cfg.logger.With().Str("component", "mydata-client").Logger(),
	}
}

func (c *Client) httpClient(creds Credentials) *http.Client {
	return &http.Client{
		Timeout: c.timeout,
		Transport: &authHeaderTransport{
			base:  c.base,
			creds: creds,
		},
	}
}

// SendInvoice submits a serialized invoice document. The returned
// Result carries either the acknowledgment triple or the authority's
// ordered error list; a non-nil error means the exchange itself failed
// (transport or credentials) and the submission outcome is unknown.
func (c *Client) SendInvoice(ctx context.Context, xmlDoc []byte, creds Credentials) (*Result, error) {
	body, err := c.do(ctx, http.MethodPost, "/SendInvoices", nil, xmlDoc, creds, "send")
	if err != nil {
		return nil, err
	}
	result, err := ParseResponse(body)
	if err != nil {
		return nil, model.NewTransmissionError("send", false, err)
	}
	c.log.Info().Str("status", result.StatusCode).Str("mark", result.Mark).Msg("send response parsed")
	return result, nil
}

// CancelInvoice requests protocol-level cancellation of a transmitted
// invoice by its mark. On success the result carries the new
// cancellation mark.
func (c *Client) CancelInvoice(ctx context.Context, mark string, creds Credentials) (*Result, error) {
	q := url.Values{"mark": []string{mark}}
	body, err := c.do(ctx, http.MethodPost, "/CancelInvoice", q, nil, creds, "cancel")
	if err != nil {
		return nil, err
	}
	result, err := ParseResponse(body)
	if err != nil {
		return nil, model.NewTransmissionError("cancel", false, err)
	}
	c.log.Info().Str("status", result.StatusCode).Str("cancellation_mark", result.CancellationMark).Msg("cancel response parsed")
	return result, nil
}

// QueryByDateRange fetches the invoices transmitted between the two
// dates. A 404 from the authority is a valid no-data result, not a
// failure.
func (c *Client) QueryByDateRange(ctx context.Context, from, to time.Time, creds Credentials) ([]RequestedInv, error) {
	q := url.Values{
		"dateFrom": []string{from.Format("02/01/2006")},
		"dateTo":   []string{to.Format("02/01/2006")},
	}
	body, err := c.do(ctx, http.MethodGet, "/RequestTransmittedDocs", q, nil, creds, "query")
	if err != nil {
		var te *model.TransmissionError
		if errors.As(err, &te) && te.Op == "query-no-data" {
			return nil, nil
		}
		return nil, err
	}
	return ParseQueryResponse(body)
}

// do performs one authenticated exchange and maps transport-level
// outcomes onto the error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte, creds Credentials, op string) ([]byte, error) {
	if !creds.Complete() {
		return nil, model.NewCredentialsError("credential pair is incomplete")
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, model.NewTransmissionError(op, false, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/xml")
	}

	resp, err := c.httpClient(creds).Do(req)
	if err != nil {
		// Unreachable host and timeout are transient: the invoice
		// stays pending and the caller may retry later.
		return nil, model.NewTransmissionError(op, isTransient(err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewTransmissionError(op, true, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, model.NewCredentialsError(fmt.Sprintf("authority returned HTTP %d", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound && op == "query":
		// no matching documents
		return nil, model.NewTransmissionError("query-no-data", false, nil)
	case resp.StatusCode >= 500:
		return nil, model.NewTransmissionError(op, true, fmt.Errorf("authority returned HTTP %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, model.NewTransmissionError(op, false, fmt.Errorf("authority returned HTTP %d", resp.StatusCode))
	}

	return body, nil
}

func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// connection refused, DNS failure and friends arrive as *url.Error
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
