package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"flightops-cloud/internal/checkin/application"
)

// Client is a minimal REST client for the external invoicing service.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient constructs an invoicing client.
func NewClient(baseURL, token string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("invoicing: empty base url")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Invoice is the remote invoice record, reduced to the fields the check-in
// flow cares about.
type Invoice struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

type invoicesPage struct {
	Data    []Invoice `json:"data"`
	HasNext bool      `json:"hasNext"`
}

var errNotFound = errors.New("invoicing: not found")

// CreateInvoice finds or creates the invoice for a booking reference. The
// reference doubles as an idempotency key: a retried approval after a
// half-failed call reuses the invoice already created remotely instead of
// producing a duplicate.
func (c *Client) CreateInvoice(ctx context.Context, req application.InvoiceRequest) (string, error) {
	if req.BookingID == "" {
		return "", errors.New("invoicing: empty booking id")
	}
	if req.Reference == "" {
		return "", errors.New("invoicing: empty reference")
	}

	existing, ok, err := c.findByReference(ctx, req.TenantID, req.Reference)
	if err != nil {
		return "", err
	}
	if ok {
		return existing.ID, nil
	}

	var resp Invoice
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/invoices", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errors.New("invoicing: create returned no invoice id")
	}
	return resp.ID, nil
}

// GetInvoice fetches one invoice by id.
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (Invoice, error) {
	if invoiceID == "" {
		return Invoice{}, errors.New("invoicing: empty invoice id")
	}
	var resp Invoice
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/invoices/"+url.PathEscape(invoiceID), nil, &resp); err != nil {
		return Invoice{}, err
	}
	return resp, nil
}

func (c *Client) findByReference(ctx context.Context, tenantID, reference string) (Invoice, bool, error) {
	query := url.Values{}
	query.Set("tenant_id", tenantID)
	query.Set("reference", reference)
	query.Set("pageSize", "1")

	var resp invoicesPage
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/invoices?"+query.Encode(), nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return Invoice{}, false, nil
		}
		return Invoice{}, false, err
	}
	if len(resp.Data) == 0 {
		return Invoice{}, false, nil
	}
	return resp.Data[0], true, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("invoicing: http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
