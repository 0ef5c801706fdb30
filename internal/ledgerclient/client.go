// Package ledgerclient talks to the ledger service and mirrors its pool
// totals.
package ledgerclient

import (
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

	"go.uber.org/zap"

	"raffle-5050/internal/logger"
	"raffle-5050/internal/models"
)

// Ledger is the request/response contract of the authoritative ledger.
// ledger.Service satisfies it in process; HTTPClient satisfies it remotely.
type Ledger interface {
	Stats(ctx context.Context) (models.AggregateStats, error)
	Register(ctx context.Context, reg models.Registration) (models.RegistrationResult, error)
	Draw(ctx context.Context) (models.WinnerRecord, error)
}

// Config configures HTTPClient.
type Config struct {
	BaseURL  string
	User     string
	Password string
	Timeout  time.Duration
}

// HTTPClient performs one GET per ledger operation and never retries.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	user       string
	password   string
}

func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		user:       cfg.User,
		password:   cfg.Password,
	}
}

func (c *HTTPClient) Stats(ctx context.Context) (models.AggregateStats, error) {
	var resp models.StatsResponse
	if err := c.get(ctx, "stats", nil, &resp); err != nil {
		return models.AggregateStats{}, err
	}
	if !resp.Success {
		return models.AggregateStats{}, &models.TransportError{Op: "stats", Err: errors.New(resp.Error)}
	}
	return resp.Stats(), nil
}

func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) (models.RegistrationResult, error) {
	params := url.Values{
		"name":          {reg.Name},
		"email":         {reg.Email},
		"phone":         {reg.Phone},
		"ticketCount":   {strconv.Itoa(reg.TicketCount)},
		"totalPaid":     {strconv.FormatInt(reg.TotalPaid, 10)},
		"paymentMethod": {string(reg.PaymentMethod)},
	}

	var resp models.RegisterResponse
	if err := c.get(ctx, "register", params, &resp); err != nil {
		return models.RegistrationResult{}, err
	}
	if !resp.Success {
		return models.RegistrationResult{}, &models.RegistrationError{Reason: resp.Error}
	}
	if len(resp.TicketNumbers) != reg.TicketCount {
		return models.RegistrationResult{}, &models.TransportError{
			Op:  "register",
			Err: fmt.Errorf("ledger issued %d ticket numbers for %d tickets", len(resp.TicketNumbers), reg.TicketCount),
		}
	}
	return resp.Result(), nil
}

func (c *HTTPClient) Draw(ctx context.Context) (models.WinnerRecord, error) {
	var resp models.DrawResponse
	if err := c.get(ctx, "draw", nil, &resp); err != nil {
		return models.WinnerRecord{}, err
	}
	if !resp.Success {
		return models.WinnerRecord{}, &models.DrawError{Reason: resp.Error}
	}
	return resp.Winner(), nil
}

// get decodes the JSON envelope whatever the status code; the envelope's
// success flag decides the outcome. Anything else is a TransportError.
func (c *HTTPClient) get(ctx context.Context, op string, params url.Values, out interface{}) error {
	u := c.baseURL + "/" + op
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &models.TransportError{Op: op, Err: err}
	}
	if c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	log := logger.With(zap.String("op", op))
	log.Debug("ledger request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("ledger request failed", zap.Error(err))
		return &models.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &models.TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	var envelope models.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &models.TransportError{Op: op, Err: fmt.Errorf("status %d: undecodable body: %w", resp.StatusCode, err)}
	}
	if !envelope.Success && envelope.Error == "" {
		return &models.TransportError{Op: op, Err: fmt.Errorf("status %d without error message", resp.StatusCode)}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &models.TransportError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, envelope.Error)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &models.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
