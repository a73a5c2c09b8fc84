package mercadopago

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vitrinelabs/vitrine-backend/pkg/config"
	"github.com/vitrinelabs/vitrine-backend/pkg/errors"
)

// Payment is the slice of the provider payment resource the webhook needs.
type Payment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
}

// Client calls the Mercado Pago payments API.
type Client struct {
	cfg  config.MercadoPagoConfig
	http *http.Client
}

func NewClient(cfg config.MercadoPagoConfig) *Client {
	return &Client{cfg: cfg, http: &http.Client{}}
}

// GetPayment fetches one payment by id.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	if !c.cfg.Configured() {
		return nil, errors.New(errors.CodeNotConfigured, "Mercado Pago access token is not configured")
	}
	if id == "" {
		return nil, errors.New(errors.CodeValidation, "payment id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"/v1/payments/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("building payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "Mercado Pago unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "reading Mercado Pago response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.CodeNotFound, "payment not found")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, errors.New(errors.CodeDependency, "Mercado Pago payment lookup failed").
			WithDetails(map[string]any{"status": resp.StatusCode, "body": string(body)})
	}

	var payment Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "decoding Mercado Pago payment")
	}
	return &payment, nil
}
