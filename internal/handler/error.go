// Package handler holds the shared HTTP error helpers for the API handlers.
package handler

import (
	"errors"
	"net/http"

	"github.com/dukerupert/vatcheck/internal/domain"
	"github.com/dukerupert/vatcheck/internal/middleware"
	"github.com/dukerupert/vatcheck/internal/telemetry"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// codedError is implemented by package errors that carry their own code,
// such as vat.Error and tax.TaxError.
type codedError interface {
	error
	ErrorCode() string
	ErrorMessage() string
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ENOTIMPL:
		return http.StatusNotImplemented
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Describe returns the status and body for err. Internal details never
// reach the body.
func Describe(err error) (int, ErrorBody) {
	var (
		domainErr *domain.Error
		coded     codedError
		httpErr   *echo.HTTPError
	)

	switch {
	case domain.IsValidationError(err):
		return http.StatusUnprocessableEntity, ErrorBody{Error: ErrorDetail{
			Code:    domain.EINVALID,
			Message: domain.ErrorMessage(err),
			Fields:  domain.GetValidationFields(err),
		}}
	case errors.As(err, &domainErr):
		code := domain.ErrorCode(err)
		return ErrorCodeToHTTPStatus(code), ErrorBody{Error: ErrorDetail{Code: code, Message: domain.ErrorMessage(err)}}
	case errors.As(err, &coded):
		code := coded.ErrorCode()
		status := ErrorCodeToHTTPStatus(code)
		if status == http.StatusInternalServerError && code != domain.EINTERNAL {
			// VAT rejection reasons
			status = http.StatusUnprocessableEntity
		}
		msg := coded.ErrorMessage()
		if status == http.StatusInternalServerError {
			msg = domain.ErrorMessage(err)
		}
		return status, ErrorBody{Error: ErrorDetail{Code: code, Message: msg}}
	case errors.As(err, &httpErr):
		msg := http.StatusText(httpErr.Code)
		if s, ok := httpErr.Message.(string); ok && httpErr.Code < 500 {
			msg = s
		}
		return httpErr.Code, ErrorBody{Error: ErrorDetail{Code: httpCode(httpErr.Code), Message: msg}}
	default:
		return http.StatusInternalServerError, ErrorBody{Error: ErrorDetail{Code: domain.EINTERNAL, Message: domain.ErrorMessage(err)}}
	}
}

func httpCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return domain.EINVALID
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return domain.ENOTFOUND
	case http.StatusServiceUnavailable:
		return domain.EUNAVAILABLE
	default:
		return domain.EINTERNAL
	}
}

// ErrorResponse writes err as a JSON error response.
func ErrorResponse(c echo.Context, err error) error {
	status, body := Describe(err)
	return c.JSON(status, body)
}

// HTTPErrorHandler is the echo error handler. Server errors are logged and
// sent to Sentry.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := Describe(err)
		if status >= http.StatusInternalServerError {
			ctx := c.Request().Context()
			middleware.GetLogger(ctx, logger).Error().Err(err).
				Str("op", domain.ErrorOp(err)).
				Msg("request failed")
			telemetry.CaptureError(ctx, err, map[string]any{
				"request_id": middleware.GetRequestID(c),
				"route":      c.Path(),
			})
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("failed to write error response")
		}
	}
}
