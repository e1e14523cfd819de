package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"whitelist-vpn-miniapp/internal/domain"
	"whitelist-vpn-miniapp/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var (
	_ adapter.InvoiceClient = (*Client)(nil)
	_ adapter.StatsClient   = (*Client)(nil)
)

// Client talks to the invoice API over HTTP/JSON.
type Client struct {
	baseURL string
	client  *http.Client
	log     *zerolog.Logger

	mu      sync.RWMutex
	token   string
	expires time.Time
}

func NewClient(baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     logger,
	}
}

type sessionRequest struct {
	InitData string `json:"init_data"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type invoiceResponse struct {
	InvoiceLink string `json:"invoice_link"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Authenticate exchanges signed init data for a bearer token used on later calls.
func (c *Client) Authenticate(ctx context.Context, initData string) error {
	var resp sessionResponse
	status, body, err := c.do(ctx, http.MethodPost, "/api/v1/session", sessionRequest{InitData: initData}, &resp)
	if err != nil {
		return fmt.Errorf("session exchange: %w", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("session exchange: %w: %s", domain.ErrUnauthorized, detailOf(body))
	}
	if status/100 != 2 || resp.Token == "" {
		return fmt.Errorf("session exchange: status %d: %s", status, detailOf(body))
	}

	c.mu.Lock()
	c.token, c.expires = resp.Token, resp.ExpiresAt
	c.mu.Unlock()
	return nil
}

// CreateInvoice returns the invoice link. Every failure is a *domain.InvoiceError.
func (c *Client) CreateInvoice(ctx context.Context, req adapter.InvoiceRequest) (string, error) {
	var resp invoiceResponse
	status, body, err := c.do(ctx, http.MethodPost, "/api/v1/invoices", req, &resp)
	if err != nil {
		c.log.Warn().Err(err).Str("plan_id", req.PlanID).Msg("invoice request failed")
		return "", domain.NewInvoiceError(0, "")
	}
	if status/100 != 2 {
		return "", domain.NewInvoiceError(status, detailOf(body))
	}
	if resp.InvoiceLink == "" {
		return "", domain.NewInvoiceError(status, "")
	}
	return resp.InvoiceLink, nil
}

func (c *Client) Stats(ctx context.Context, userID int64) (adapter.AudienceStats, error) {
	var resp adapter.AudienceStats
	path := "/api/v1/stats/me?" + url.Values{"user_id": {strconv.FormatInt(userID, 10)}}.Encode()
	status, body, err := c.do(ctx, http.MethodGet, path, nil, &resp)
	if err != nil {
		return adapter.AudienceStats{}, fmt.Errorf("stats: %w", err)
	}
	if status/100 != 2 {
		return adapter.AudienceStats{}, fmt.Errorf("stats: status %d: %s", status, detailOf(body))
	}
	return resp, nil
}

// do sends a JSON request and decodes a 2xx body into out. Non-2xx bodies are
// returned raw for the caller to interpret.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) (int, []byte, error) {
	var reader io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request data: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode/100 == 2 && out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, body, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return resp.StatusCode, body, nil
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" || (!c.expires.IsZero() && time.Now().After(c.expires)) {
		return ""
	}
	return c.token
}

// detailOf extracts {"detail": "..."} from an error body.
func detailOf(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Detail
}
