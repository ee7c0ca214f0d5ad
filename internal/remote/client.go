// Package remote talks to the rentals REST API on behalf of one signed-in
// user. It backs offers.Store and offers.Presenter in client processes.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"sublet/rentals/internal/config"
	"sublet/rentals/internal/logger"
	"sublet/rentals/internal/models"
	"sublet/rentals/internal/offers"
)

var (
	_ offers.RequestService = (*Client)(nil)
	_ offers.ChatService    = (*Client)(nil)
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Options struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxFailures    int
	BreakerTimeout time.Duration
	// Retries applies to GET calls only.
	Retries    uint64
	HTTPClient *http.Client
}

// OptionsFromConfig fills the transport settings from cfg.
func OptionsFromConfig(cfg *config.Config, baseURL, token string) Options {
	return Options{
		BaseURL:        baseURL,
		Token:          token,
		Timeout:        cfg.ClientTimeout,
		MaxFailures:    cfg.BreakerMaxFailures,
		BreakerTimeout: cfg.BreakerTimeout,
		Retries:        2,
	}
}

// Client implements offers.RequestService and offers.ChatService over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	retries uint64
	cb      *gobreaker.CircuitBreaker
	log     *zap.SugaredLogger
}

func NewClient(opts Options, l *zap.SugaredLogger) *Client {
	l = logger.OrNop(l)
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	maxFailures := opts.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}

	st := gobreaker.Settings{
		Name:        "rentals-api",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		// 4xx answers mean the API is up.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			return err == nil || (errors.As(err, &apiErr) && apiErr.Status < 500)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			l.Infow("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		retries: opts.Retries,
		cb:      gobreaker.NewCircuitBreaker(st),
		log:     l,
	}
}

// BreakerState exposes the circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.cb.State()
}

func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return true
}

// do sends in as JSON and decodes the "data" member of the answer into out.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}
	}

	call := func() error {
		_, err := c.cb.Execute(func() (interface{}, error) {
			return nil, c.roundTrip(ctx, method, path, payload, out)
		})
		if err != nil && (method != http.MethodGet || !retryable(err)) {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	notify := func(err error, wait time.Duration) {
		c.log.Warnw("Retrying API call", "method", method, "path", path, "wait", wait, "error", err)
	}
	return backoff.RetryNotify(call, backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx), notify)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s data: %w", method, path, err)
	}
	return nil
}

// --- Requests ---

// createRequestBody mirrors POST /v1/requests; the server derives the
// counter-offer type from the listing price.
type createRequestBody struct {
	ListingID   string     `json:"listing_id"`
	OfferAmount *float64   `json:"offer_amount,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Message     string     `json:"message,omitempty"`
}

func (c *Client) FetchRequests(ctx context.Context) ([]models.Request, error) {
	var out []models.Request
	if err := c.do(ctx, http.MethodGet, "/v1/requests", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchIncoming lists requests made on the caller's listings.
func (c *Client) FetchIncoming(ctx context.Context) ([]models.Request, error) {
	var out []models.Request
	if err := c.do(ctx, http.MethodGet, "/v1/requests/incoming", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchRequestByListing(ctx context.Context, listingID string) (*models.Request, error) {
	var out models.Request
	if err := c.do(ctx, http.MethodGet, "/v1/requests/listing/"+url.PathEscape(listingID), nil, &out); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if out.ID == "" {
		return nil, nil
	}
	return &out, nil
}

func (c *Client) CreateRequest(ctx context.Context, data models.CreateRequestData) (*models.Request, error) {
	body := createRequestBody{ListingID: data.ListingID, Message: data.Message}
	if co := data.CounterOffer; co != nil {
		amount := co.Amount
		body.OfferAmount = &amount
		body.Reason = co.Reason
	}
	if d := data.PreferredDates; d != nil {
		start, end := d.StartDate, d.EndDate
		body.StartDate, body.EndDate = &start, &end
	}

	var out models.Request
	if err := c.do(ctx, http.MethodPost, "/v1/requests", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRequest(ctx context.Context, req *models.Request) (*models.Request, error) {
	var out models.Request
	if err := c.do(ctx, http.MethodPut, "/v1/requests/"+url.PathEscape(req.ID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRequest(ctx context.Context, requestID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/requests/"+url.PathEscape(requestID), nil, nil)
}

func (c *Client) AcceptRequest(ctx context.Context, requestID string) (*models.Request, error) {
	var out models.Request
	if err := c.do(ctx, http.MethodPost, "/v1/requests/"+url.PathEscape(requestID)+"/accept", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RejectRequest(ctx context.Context, requestID string) (*models.Request, error) {
	var out models.Request
	if err := c.do(ctx, http.MethodPost, "/v1/requests/"+url.PathEscape(requestID)+"/reject", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Chat ---

func (c *Client) FetchMessages(ctx context.Context, peerID string) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	if err := c.do(ctx, http.MethodGet, "/v1/chats/"+url.PathEscape(peerID)+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts the body only; the API fills in sender and recipient from the token.
func (c *Client) SendMessage(ctx context.Context, peerID string, data models.SendMessageData) (*models.ChatMessage, error) {
	var out models.ChatMessage
	body := map[string]string{"body": data.Body}
	if err := c.do(ctx, http.MethodPost, "/v1/chats/"+url.PathEscape(peerID)+"/messages", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
