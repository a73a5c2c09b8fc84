package bling

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMapProductFieldPrecedence(t *testing.T) {
	record, ok := MapProduct(map[string]any{
		"id":             float64(12345),
		"nome":           "Fone Bluetooth",
		"name":           "ignored",
		"descricaoCurta": "Fone sem fio",
		"descricao":      "ignored longer text",
		"preco":          float64(149.9),
		"price":          float64(999),
		"imagemURL":      "https://cdn.example.com/fone.jpg",
		"categoria":      map[string]any{"descricao": "Áudio"},
		"marca":          "SoundMax",
		"estoque":        map[string]any{"saldoVirtualTotal": float64(7)},
		"pesoLiquido":    float64(0.25),
		"largura":        float64(10),
		"altura":         float64(5),
		"profundidade":   float64(8),
	})
	require.True(t, ok)
	require.Equal(t, "12345", record.ExternalID)
	require.Equal(t, "Fone Bluetooth", *record.Name)
	require.Equal(t, "Fone sem fio", *record.Description)
	require.True(t, record.Price.Equal(decimal.NewFromFloat(149.9)))
	require.Equal(t, "https://cdn.example.com/fone.jpg", *record.Image)
	require.Equal(t, "Áudio", *record.CategoryName)
	require.Equal(t, "SoundMax", *record.BrandName)
	require.Equal(t, 7, *record.Stock)
	require.Equal(t, 250, *record.WeightGrams)
	require.Equal(t, 10.0, *record.WidthCM)
	require.Equal(t, 5.0, *record.HeightCM)
	require.Equal(t, 8.0, *record.LengthCM)
}

func TestMapProductAlternateKeys(t *testing.T) {
	record, ok := MapProduct(map[string]any{
		"codigo":    "SKU-88",
		"name":      "Cabo HDMI",
		"descricao": "Cabo 2 metros",
		"precoVenda": "35,90",
		"imagem":    map[string]any{"link": "https://cdn.example.com/cabo.jpg"},
		"categoria": "Acessórios",
		"estoqueAtual": float64(3),
	})
	require.True(t, ok)
	require.Equal(t, "SKU-88", record.ExternalID)
	require.Equal(t, "Cabo HDMI", *record.Name)
	require.True(t, record.Price.Equal(decimal.NewFromFloat(35.9)))
	require.Equal(t, "https://cdn.example.com/cabo.jpg", *record.Image)
	require.Equal(t, "Acessórios", *record.CategoryName)
	require.Equal(t, 3, *record.Stock)
}

func TestMapProductSkipsWithoutIdentifier(t *testing.T) {
	_, ok := MapProduct(map[string]any{"nome": "Sem ID", "preco": float64(10)})
	require.False(t, ok)

	_, ok = MapProduct(map[string]any{"id": "   ", "nome": "Branco"})
	require.False(t, ok)
}

func TestMapProductMissingFieldsStayNil(t *testing.T) {
	record, ok := MapProduct(map[string]any{"id": "77"})
	require.True(t, ok)
	require.Nil(t, record.Name)
	require.Nil(t, record.Description)
	require.Nil(t, record.Price)
	require.Nil(t, record.Image)
	require.Nil(t, record.Stock)
	require.True(t, record.NeedsDetail())
}

func TestMergePrefersExistingValues(t *testing.T) {
	base, ok := MapProduct(map[string]any{
		"id":    "900",
		"nome":  "Base",
		"preco": float64(100),
	})
	require.True(t, ok)

	detail, ok := MapProduct(map[string]any{
		"id":        "900",
		"nome":      "Detail Name",
		"descricao": "Vem do detalhe",
		"preco":     float64(999),
		"estoque":   float64(4),
	})
	require.True(t, ok)

	merged := base.Merge(detail)
	require.Equal(t, "Base", *merged.Name)
	require.True(t, merged.Price.Equal(decimal.NewFromInt(100)))
	require.Equal(t, "Vem do detalhe", *merged.Description)
	require.Equal(t, 4, *merged.Stock)
	require.False(t, merged.NeedsDetail())
}
