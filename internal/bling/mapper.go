package bling

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vitrinelabs/vitrine-backend/internal/catalog"
)

// ProductRecord is the fully-typed local shape mapped from one external
// catalog payload. Nil fields were not present in the payload.
type ProductRecord struct {
	catalog.ExternalProduct
}

// MapProduct maps an opaque ERP payload to the local record. Field names
// vary between API versions, so each target field tries a fixed precedence
// of keys. Returns false when no external identifier can be resolved; such
// records are skipped entirely.
func MapProduct(raw map[string]any) (ProductRecord, bool) {
	var record ProductRecord

	externalID := identifierField(raw, "id", "codigo")
	if externalID == "" {
		return record, false
	}
	record.ExternalID = externalID

	record.Name = stringField(raw, "nome", "name")
	record.Description = stringField(raw, "descricaoCurta", "descricao", "description")
	record.Price = decimalField(raw, "preco", "precoVenda", "price")
	record.OriginalPrice = decimalField(raw, "precoCusto")
	record.Image = imageField(raw)
	record.CategoryName = nestedStringField(raw, "categoria", "descricao")
	record.BrandName = brandField(raw)
	record.Stock = stockField(raw)

	if kg := numberField(raw, "pesoLiquido", "pesoBruto"); kg != nil {
		grams := int(math.Round(*kg * 1000))
		record.WeightGrams = &grams
	}
	record.LengthCM = numberField(raw, "profundidade")
	record.HeightCM = numberField(raw, "altura")
	record.WidthCM = numberField(raw, "largura")

	return record, true
}

// NeedsDetail reports whether the list payload left gaps worth a secondary
// detail fetch.
func (r ProductRecord) NeedsDetail() bool {
	return r.Description == nil || r.Stock == nil
}

// Merge fills only the fields r has not resolved yet with values from
// other. Fields already present always win.
func (r ProductRecord) Merge(other ProductRecord) ProductRecord {
	if r.Name == nil {
		r.Name = other.Name
	}
	if r.Description == nil {
		r.Description = other.Description
	}
	if r.Price == nil {
		r.Price = other.Price
	}
	if r.OriginalPrice == nil {
		r.OriginalPrice = other.OriginalPrice
	}
	if r.Image == nil {
		r.Image = other.Image
	}
	if len(r.Images) == 0 {
		r.Images = other.Images
	}
	if r.CategoryName == nil {
		r.CategoryName = other.CategoryName
	}
	if r.BrandName == nil {
		r.BrandName = other.BrandName
	}
	if r.Stock == nil {
		r.Stock = other.Stock
	}
	if r.WeightGrams == nil {
		r.WeightGrams = other.WeightGrams
	}
	if r.LengthCM == nil {
		r.LengthCM = other.LengthCM
	}
	if r.HeightCM == nil {
		r.HeightCM = other.HeightCM
	}
	if r.WidthCM == nil {
		r.WidthCM = other.WidthCM
	}
	return r
}

func identifierField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch value := raw[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		case float64:
			return strconv.FormatFloat(value, 'f', -1, 64)
		case json.Number:
			return value.String()
		}
	}
	return ""
}

func stringField(raw map[string]any, keys ...string) *string {
	for _, key := range keys {
		if value, ok := raw[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return &trimmed
			}
		}
	}
	return nil
}

func nestedStringField(raw map[string]any, key, nestedKey string) *string {
	switch value := raw[key].(type) {
	case string:
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return &trimmed
		}
	case map[string]any:
		return stringField(value, nestedKey)
	}
	return nil
}

func brandField(raw map[string]any) *string {
	switch value := raw["marca"].(type) {
	case string:
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return &trimmed
		}
	case map[string]any:
		return stringField(value, "nome", "descricao")
	}
	return nil
}

func imageField(raw map[string]any) *string {
	for _, key := range []string{"imagemURL", "image", "imagem"} {
		switch value := raw[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return &trimmed
			}
		case map[string]any:
			if link := stringField(value, "link", "url"); link != nil {
				return link
			}
		}
	}
	return nil
}

func numberField(raw map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		if value, ok := toFloat(raw[key]); ok {
			return &value
		}
	}
	return nil
}

func decimalField(raw map[string]any, keys ...string) *decimal.Decimal {
	for _, key := range keys {
		if value, ok := toFloat(raw[key]); ok {
			parsed := decimal.NewFromFloat(value)
			return &parsed
		}
	}
	return nil
}

func stockField(raw map[string]any) *int {
	switch value := raw["estoque"].(type) {
	case map[string]any:
		if qty, ok := toFloat(value["saldoVirtualTotal"]); ok {
			stock := int(qty)
			return &stock
		}
	default:
		if qty, ok := toFloat(value); ok {
			stock := int(qty)
			return &stock
		}
	}
	if qty, ok := toFloat(raw["estoqueAtual"]); ok {
		stock := int(qty)
		return &stock
	}
	return nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		parsed, err := v.Float64()
		return parsed, err == nil
	case string:
		trimmed := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		return parsed, err == nil
	}
	return 0, false
}
