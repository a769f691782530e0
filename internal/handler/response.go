package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglebank/bank-api/shared/errs"
	"github.com/eaglebank/bank-api/shared/middleware"
)

type ListResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type TransferResponse struct {
	Success     bool `json:"success"`
	FromAccount any  `json:"fromAccount"`
	ToAccount   any  `json:"toAccount"`
}

// statusFor maps a service error kind onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrValidation),
		errors.Is(err, errs.ErrInactiveOwner),
		errors.Is(err, errs.ErrCreditLimitExceeded),
		errors.Is(err, errs.ErrInsufficientCash):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func respondWithServiceError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	}
	middleware.RespondWithError(c, status, errs.Message(err, fallback))
}

// bindJSON decodes and validates the request body into req. An empty body leaves req
// at its zero value. It writes the 400 response itself and reports whether to go on.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}
