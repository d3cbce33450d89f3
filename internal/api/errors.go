package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Spok95/factory-mix/internal/auth"
	"github.com/Spok95/factory-mix/internal/domain/errs"
)

type errorBody struct {
	Error     string          `json:"error"`
	Shortages []errs.Shortage `json:"shortages,omitempty"`
}

func statusFor(err error) int {
	var short *errs.InsufficientStockError
	switch {
	case errors.As(err, &short):
		return http.StatusConflict
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidFormula), errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrConcurrencyConflict), errors.Is(err, errs.ErrInUse):
		return http.StatusConflict
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrBadCredentials):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// fail writes the error response. Internal errors are logged and hidden from the client.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var short *errs.InsufficientStockError
	if errors.As(err, &short) {
		body.Shortages = short.Shortages
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "err", err)
		body.Error = "internal error"
	}
	c.AbortWithStatusJSON(status, body)
}
