package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/vatcheck/internal/handler/api"
	"github.com/dukerupert/vatcheck/internal/middleware"
	"github.com/dukerupert/vatcheck/internal/settings"
	"github.com/dukerupert/vatcheck/internal/tax"
	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(ping func(context.Context) error) *echo.Echo {
	logger := zerolog.Nop()
	reg := prometheus.NewRegistry()
	src := settings.Static(vat.Config{ManagementEnabled: true})

	return New(Config{
		Logger:   logger,
		Metrics:  middleware.NewMetrics("test", reg, reg),
		VAT:      api.NewVATHandler(vat.NewValidator(&vat.MockRegistry{}), src, logger),
		Settings: api.NewSettingsHandler(src, logger),
		Tax:      api.NewTaxHandler(tax.NewNoTaxCalculator()),
		Ping:     ping,
	})
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name           string
		ping           func(context.Context) error
		expectedStatus int
	}{
		{name: "no dependencies", expectedStatus: http.StatusOK},
		{name: "database up", ping: func(context.Context) error { return nil }, expectedStatus: http.StatusOK},
		{name: "database down", ping: func(context.Context) error { return errors.New("refused") }, expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newRouter(tt.ping), http.MethodGet, "/health", "")
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	e := newRouter(nil)

	rec := serve(e, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	e := newRouter(nil)

	serve(e, http.MethodGet, "/api/vat/countries/DE", "")
	rec := serve(e, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="GET",route="/api/vat/countries/:country",status="200"} 1`)
}

func TestRoutes(t *testing.T) {
	e := newRouter(nil)

	rec := serve(e, http.MethodPost, "/api/vat/validate", `{"country":"DE","company":"Acme GmbH","vat_number":"DE171017618"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodGet, "/api/vat/settings", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodPost, "/api/tax/quote", `{"country":"DE","line_items":[{"quantity":1,"unit_price":1000}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// no address store configured
	rec = serve(e, http.MethodGet, "/api/addresses/0b8f0b56-5a84-4a4e-9d0f-1a9a0d4f2c11", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"not_found"`)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	rec := serve(newRouter(nil), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}
