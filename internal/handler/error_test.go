package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/vatcheck/internal/domain"
	"github.com/dukerupert/vatcheck/internal/tax"
	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{domain.ENOTIMPL, http.StatusNotImplemented},
		{domain.EUNAVAILABLE, http.StatusServiceUnavailable},
		{"unknown_code", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrorCodeToHTTPStatus(tt.code))
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{name: "not found", err: domain.NotFound("address.get", "address", "abc-123"), expectedStatus: http.StatusNotFound, expectedCode: domain.ENOTFOUND},
		{name: "invalid", err: domain.Invalid("settings.save", "bad request"), expectedStatus: http.StatusBadRequest, expectedCode: domain.EINVALID},
		{name: "validation", err: domain.NewValidationError("address.validate", "vat_number", "Invalid VAT number"), expectedStatus: http.StatusUnprocessableEntity, expectedCode: domain.EINVALID},
		{name: "vat rejection", err: vat.ErrNotRegistered, expectedStatus: http.StatusUnprocessableEntity, expectedCode: "not_registered"},
		{name: "tax error", err: tax.ErrInvalidTaxRate, expectedStatus: http.StatusBadRequest, expectedCode: domain.EINVALID},
		{name: "echo http error", err: echo.ErrNotFound, expectedStatus: http.StatusNotFound, expectedCode: domain.ENOTFOUND},
		{name: "plain error", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError, expectedCode: domain.EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Describe(tt.err)
			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedCode, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestErrorResponse_InternalHidesDetails(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/test", nil), rec)

	err := domain.Internal(errors.New("dial tcp 192.168.1.100:5432"), "settings.load", "failed to connect to database at 192.168.1.100:5432")
	require.NoError(t, ErrorResponse(c, err))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)

	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "An internal error occurred. Please try again later.", body.Error.Message)
}

func TestErrorResponse_ValidationFields(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/test", nil), rec)

	err := domain.NewValidationError("address.validate", "company", "Company name is required when a VAT number is given")
	err = domain.AddFieldError(err, "city", "This field is required")
	require.NoError(t, ErrorResponse(c, err))

	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, body.Error.Fields, 2)
	assert.Equal(t, "This field is required", body.Error.Fields["city"])
}

func TestHTTPErrorHandler_SkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/test", nil), rec)
	require.NoError(t, c.String(http.StatusOK, "done"))

	HTTPErrorHandler(zerolog.Nop())(errors.New("late"), c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}
