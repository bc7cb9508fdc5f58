package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"khaltipay/internal/models"
)

// InitiateRequest is the outbound e-payment initiate payload. Field names
// are Khalti's wire contract.
type InitiateRequest struct {
	ReturnURL         string      `json:"return_url"`
	WebsiteURL        string      `json:"website_url"`
	Amount            int64       `json:"amount"`
	PurchaseOrderID   string      `json:"purchase_order_id"`
	PurchaseOrderName string      `json:"purchase_order_name"`
	CustomerInfo      models.JSON `json:"customer_info,omitempty"`
}

// GatewayClient is the port to the payment provider. The live client and
// the deterministic mock both implement it; the settlement engine never
// knows which one is wired in.
type GatewayClient interface {
	InitiatePayment(ctx context.Context, req InitiateRequest) (models.JSON, error)
	LookupPayment(ctx context.Context, pidx string) (models.JSON, error)
}

// KhaltiClient talks to the Khalti e-payment API over HTTP.
type KhaltiClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewKhaltiClient(baseURL, secretKey string, timeout time.Duration) *KhaltiClient {
	return &KhaltiClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *KhaltiClient) InitiatePayment(ctx context.Context, req InitiateRequest) (models.JSON, error) {
	return c.post(ctx, "/epayment/initiate/", req, "Khalti initiate request failed")
}

func (c *KhaltiClient) LookupPayment(ctx context.Context, pidx string) (models.JSON, error) {
	return c.post(ctx, "/epayment/lookup/", map[string]string{"pidx": pidx}, "Khalti lookup request failed")
}

func (c *KhaltiClient) post(ctx context.Context, path string, payload interface{}, failureMsg string) (models.JSON, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("khalti request marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("khalti request build: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewUpstreamError(failureMsg, map[string]string{"error": err.Error()})
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var data models.JSON
	if err := json.Unmarshal(raw, &data); err != nil {
		data = models.JSON{"body": string(raw)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewUpstreamError(failureMsg, data)
	}

	return data, nil
}
