package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/errs"
)

// MsgUnknownEndpoint is the body of every unmatched route.
const MsgUnknownEndpoint = "unknown endpoint"

// StatusOf maps an error kind to its HTTP status.
func StatusOf(k errs.Kind) int {
	switch k {
	case errs.KindAuthentication:
		return http.StatusUnauthorized
	case errs.KindAuthorization:
		return http.StatusForbidden
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindValidation, errs.KindCast:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler is the single translator from errors to responses. Internal
// failures are logged with their cause and answered with a generic body.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	logger = logger.With("module", "http")
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := translate(err)
		if status == http.StatusInternalServerError {
			logger.Error("unhandled error",
				"error", err,
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID))
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("write error response", "error", err)
		}
	}
}

func translate(err error) (int, map[string]any) {
	if e, ok := errs.As(err); ok {
		status := StatusOf(e.Kind)
		if status == http.StatusInternalServerError {
			return status, map[string]any{"error": "internal server error"}
		}
		field := e.Field
		if field == "" {
			field = "error"
		}
		return status, map[string]any{field: e.Message}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			return http.StatusNotFound, map[string]any{"error": MsgUnknownEndpoint}
		case http.StatusInternalServerError:
			return he.Code, map[string]any{"error": "internal server error"}
		}
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		return he.Code, map[string]any{"error": msg}
	}
	return http.StatusInternalServerError, map[string]any{"error": "internal server error"}
}
