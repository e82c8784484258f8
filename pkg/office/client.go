// Package office is a client for the console backend's office APIs: the
// customer, sale, refund and issue records the assistant talks about, plus
// the dashboard aggregate and the health probe.
package office

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/officeflow/deskchat/internal/config"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("office: not found")

// Client talks to the office endpoints of the console backend.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates an office client. A zero timeout disables the client-side
// deadline entirely.
func New(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("office: %s %s: unexpected status code: %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Customers lists all customers.
func (c *Client) Customers(ctx context.Context) ([]Customer, error) {
	var out []Customer
	if err := c.do(ctx, http.MethodGet, "/api/customers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCustomer registers a new customer.
func (c *Client) CreateCustomer(ctx context.Context, in CustomerCreate) (*Customer, error) {
	var out Customer
	if err := c.do(ctx, http.MethodPost, "/api/customers", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Customer fetches one customer by id.
func (c *Client) Customer(ctx context.Context, id string) (*Customer, error) {
	var out Customer
	if err := c.do(ctx, http.MethodGet, "/api/customers/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCustomer applies a partial update and returns the updated record.
func (c *Client) UpdateCustomer(ctx context.Context, id string, in CustomerUpdate) (*Customer, error) {
	var out Customer
	if err := c.do(ctx, http.MethodPut, "/api/customers/"+id, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCustomer removes a customer.
func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/customers/"+id, nil, nil)
}

// Sales lists all sales.
func (c *Client) Sales(ctx context.Context) ([]Sale, error) {
	var out []Sale
	if err := c.do(ctx, http.MethodGet, "/api/sales", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSale records a sale.
func (c *Client) CreateSale(ctx context.Context, in SaleCreate) (*Sale, error) {
	var out Sale
	if err := c.do(ctx, http.MethodPost, "/api/sales", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sale fetches one sale by id.
func (c *Client) Sale(ctx context.Context, id string) (*Sale, error) {
	var out Sale
	if err := c.do(ctx, http.MethodGet, "/api/sales/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refunds lists all refund requests.
func (c *Client) Refunds(ctx context.Context) ([]Refund, error) {
	var out []Refund
	if err := c.do(ctx, http.MethodGet, "/api/refunds", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRefund opens a refund request.
func (c *Client) CreateRefund(ctx context.Context, in RefundCreate) (*Refund, error) {
	var out Refund
	if err := c.do(ctx, http.MethodPost, "/api/refunds", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRefundStatus moves a refund through its lifecycle and returns the
// updated record.
func (c *Client) UpdateRefundStatus(ctx context.Context, id, status string) (*Refund, error) {
	var out Refund
	in := struct {
		Status string `json:"status"`
	}{Status: status}
	if err := c.do(ctx, http.MethodPut, "/api/refunds/"+id, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Issues lists all support issues.
func (c *Client) Issues(ctx context.Context) ([]Issue, error) {
	var out []Issue
	if err := c.do(ctx, http.MethodGet, "/api/issues", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateIssue opens an issue.
func (c *Client) CreateIssue(ctx context.Context, in IssueCreate) (*Issue, error) {
	var out Issue
	if err := c.do(ctx, http.MethodPost, "/api/issues", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateIssue applies a partial update and returns the updated record.
func (c *Client) UpdateIssue(ctx context.Context, id string, in IssueUpdate) (*Issue, error) {
	var out Issue
	if err := c.do(ctx, http.MethodPut, "/api/issues/"+id, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DashboardStats fetches the dashboard aggregate.
func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health probes backend liveness.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
