package web

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/example/gclearnbot/internal/errs"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// errorHandler maps service errors to HTTP status codes so handlers can
// return domain errors directly.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := errorResponse{Error: "internal server error"}
	status := http.StatusInternalServerError

	switch e := err.(type) {
	case *echo.HTTPError:
		status = e.Code
		if msg, ok := e.Message.(string); ok {
			resp.Error = msg
		} else {
			resp.Error = http.StatusText(status)
		}
	case validator.ValidationErrors:
		status = http.StatusBadRequest
		resp.Error = "validation failed"
		resp.Fields = make(map[string]string, len(e))
		for _, fe := range e {
			resp.Fields[fe.Field()] = fe.Tag()
		}
	default:
		switch {
		case errs.IsValidation(err):
			status = http.StatusBadRequest
			resp.Error = err.Error()
		case errs.IsNotFound(err):
			status = http.StatusNotFound
			resp.Error = err.Error()
		default:
			s.log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		}
	}

	if jsonErr := c.JSON(status, resp); jsonErr != nil {
		s.log.Error("failed to write error response", "error", jsonErr)
	}
}
