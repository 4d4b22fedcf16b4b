package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"assessment-gateway/internal/models"
)

// Client calls the invoice service over HTTP. The payment flow only cares
// that the request was accepted; the invoice body is not consumed.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: baseURL, HTTP: httpClient}
}

// RequestInvoice asks the invoice service to generate a receipt for an order.
func (c *Client) RequestInvoice(ctx context.Context, orderID string) error {
	reqBody, err := json.Marshal(models.InvoiceRequest{OrderID: orderID})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/invoices", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("invoice service error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("invoice generation failed: status %d", resp.StatusCode)
	}
	return nil
}
