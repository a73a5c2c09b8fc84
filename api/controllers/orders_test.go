package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vitrinelabs/vitrine-backend/internal/reports"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func demoOrdersController() *OrdersController {
	return NewOrdersController(reports.NewService(reports.NewDemoSource()), nil, testLogger())
}

func TestOrdersListDemoDataset(t *testing.T) {
	controller := demoOrdersController()

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	controller.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OK      bool `json:"ok"`
		Page    int  `json:"page"`
		Total   int  `json:"total"`
		Orders  []json.RawMessage `json:"orders"`
		Summary struct {
			Revenue   float64 `json:"revenue"`
			Count     int     `json:"count"`
			AvgTicket float64 `json:"avgTicket"`
		} `json:"summary"`
		ByDay    []json.RawMessage `json:"byDay"`
		ByStatus []json.RawMessage `json:"byStatus"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.OK)
	require.Equal(t, 1, body.Page)
	require.Greater(t, body.Total, 0)
	require.Equal(t, body.Total, body.Summary.Count)
	require.Greater(t, body.Summary.Revenue, 0.0)
	require.NotEmpty(t, body.ByDay)
	require.NotEmpty(t, body.ByStatus)
}

func TestOrdersListStatusFilter(t *testing.T) {
	controller := demoOrdersController()

	req := httptest.NewRequest(http.MethodGet, "/api/orders?status=paid", nil)
	rec := httptest.NewRecorder()
	controller.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ByStatus []struct {
			Status string `json:"status"`
			Count  int    `json:"count"`
		} `json:"byStatus"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.ByStatus, 1)
	require.Equal(t, "paid", body.ByStatus[0].Status)
}

func TestOrdersListRejectsInvalidStatus(t *testing.T) {
	controller := demoOrdersController()

	req := httptest.NewRequest(http.MethodGet, "/api/orders?status=bogus", nil)
	rec := httptest.NewRecorder()
	controller.List(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		OK    bool   `json:"ok"`
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.OK)
	require.Equal(t, "VALIDATION_ERROR", body.Code)
}

func TestOrdersListRejectsBadDate(t *testing.T) {
	controller := demoOrdersController()

	req := httptest.NewRequest(http.MethodGet, "/api/orders?from=03-2026", nil)
	rec := httptest.NewRecorder()
	controller.List(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrdersMutationsRequireStore(t *testing.T) {
	controller := demoOrdersController()

	req := httptest.NewRequest(http.MethodGet, "/api/orders/3f2f1a52-0000-0000-0000-000000000000", nil)
	rec := httptest.NewRecorder()
	controller.Get(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
