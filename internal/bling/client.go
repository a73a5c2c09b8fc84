package bling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vitrinelabs/vitrine-backend/pkg/config"
	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/errors"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
)

// Client calls the ERP product and order APIs with tokens supplied by the
// token source. Enrichment lookups swallow failures and return nil so the
// import loop can continue with whatever the list payload carried.
type Client struct {
	cfg    config.BlingConfig
	tokens *TokenSource
	http   *http.Client
	logg   *logger.Logger
}

func NewClient(cfg config.BlingConfig, tokens *TokenSource, logg *logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		http:   &http.Client{},
		logg:   logg,
	}
}

// apiResponse is the common envelope the ERP wraps list and detail payloads
// in.
type apiResponse struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) request(ctx context.Context, method, path string, query url.Values, body []byte, retried bool) ([]byte, int, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, 0, err
	}

	endpoint := c.cfg.APIURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(errors.CodeDependency, err, "Bling API unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(errors.CodeDependency, err, "reading Bling response")
	}

	// One forced refresh and retry on an authorization failure, never more.
	if resp.StatusCode == http.StatusUnauthorized && !retried {
		if _, err := c.tokens.Refresh(ctx); err != nil {
			return nil, resp.StatusCode, err
		}
		return c.request(ctx, method, path, query, body, true)
	}

	return raw, resp.StatusCode, nil
}

// ListProducts fetches one page of the remote catalog. A non-2xx response
// aborts the pull and carries the raw provider body for diagnostics.
func (c *Client) ListProducts(ctx context.Context, page, limit int) ([]map[string]any, error) {
	query := url.Values{}
	query.Set("pagina", strconv.Itoa(page))
	query.Set("limite", strconv.Itoa(limit))

	raw, status, err := c.request(ctx, http.MethodGet, "/produtos", query, nil, false)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, errors.New(errors.CodeDependency, "Bling product list failed").
			WithDetails(map[string]any{"status": status, "body": string(raw)})
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "decoding Bling product list")
	}
	var records []map[string]any
	if err := json.Unmarshal(envelope.Data, &records); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "decoding Bling product records")
	}
	return records, nil
}

// ProductDetail fetches the per-product payload used to backfill fields the
// list omits. Returns nil on any failure.
func (c *Client) ProductDetail(ctx context.Context, externalID string) map[string]any {
	raw, status, err := c.request(ctx, http.MethodGet, "/produtos/"+url.PathEscape(externalID), nil, nil, false)
	if err != nil || status < 200 || status >= 300 {
		c.logg.Debug(c.logg.WithField(ctx, "externalId", externalID), "product detail unavailable")
		return nil
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}
	var record map[string]any
	if err := json.Unmarshal(envelope.Data, &record); err != nil {
		return nil
	}
	return record
}

// ProductImages fetches the image list for a product. Returns nil on any
// failure or when no usable URL is present.
func (c *Client) ProductImages(ctx context.Context, externalID string) []string {
	raw, status, err := c.request(ctx, http.MethodGet, "/produtos/"+url.PathEscape(externalID)+"/imagens", nil, nil, false)
	if err != nil || status < 200 || status >= 300 {
		return nil
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}
	var entries []map[string]any
	if err := json.Unmarshal(envelope.Data, &entries); err != nil {
		return nil
	}

	var urls []string
	for _, entry := range entries {
		if link := stringField(entry, "link", "url", "urlMiniatura"); link != nil && *link != "" {
			urls = append(urls, *link)
		}
	}
	return urls
}

// ProductImage is the single-image fallback used when the list endpoint
// yields nothing. Returns nil on any failure.
func (c *Client) ProductImage(ctx context.Context, externalID string) *string {
	raw, status, err := c.request(ctx, http.MethodGet, "/produtos/"+url.PathEscape(externalID)+"/imagem", nil, nil, false)
	if err != nil || status < 200 || status >= 300 {
		return nil
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}
	var record map[string]any
	if err := json.Unmarshal(envelope.Data, &record); err != nil {
		return nil
	}
	if link := stringField(record, "link", "url"); link != nil && *link != "" {
		return link
	}
	return nil
}

// ExportOrder pushes a paid order to the ERP as a sales record.
func (c *Client) ExportOrder(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}

	items := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]any{
			"descricao":  item.Name,
			"quantidade": item.Quantity,
			"valor":      item.Price.InexactFloat64(),
		})
	}
	payload, err := json.Marshal(map[string]any{
		"numeroLoja": order.Number,
		"total":      order.Total.InexactFloat64(),
		"itens":      items,
	})
	if err != nil {
		return fmt.Errorf("encoding order export: %w", err)
	}

	raw, status, err := c.request(ctx, http.MethodPost, "/pedidos/vendas", nil, payload, false)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return errors.New(errors.CodeDependency, "Bling order export failed").
			WithDetails(map[string]any{"status": status, "body": string(raw)})
	}
	return nil
}
