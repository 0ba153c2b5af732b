package httpapi

import (
	"errors"
	"net/http"

	"medremind/internal/calls"
	"medremind/internal/reporting"
	"medremind/pkg/logger"

	"github.com/gin-gonic/gin"
)

// errorEnvelope is the uniform JSON error shape: status is "fail" for 4xx
// and "error" for 5xx. Detail carries the underlying error outside
// production only.
type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps domain errors onto the HTTP error taxonomy:
// validation -> 400, unknown call -> 404, duplicate -> 409,
// gateway failure -> 502, anything else -> 500.
func (h Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	var vErr calls.ValidationError
	var uErr calls.UpstreamError
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
		message = vErr.Reason
	case errors.Is(err, calls.ErrNotFound):
		status = http.StatusNotFound
		message = "call log not found"
	case errors.Is(err, calls.ErrDuplicate):
		status = http.StatusConflict
		message = "call log already exists"
	case errors.Is(err, reporting.ErrInvalidRequest):
		status = http.StatusBadRequest
		message = "invalid reporting range"
	case errors.As(err, &uErr):
		status = http.StatusBadGateway
		message = "upstream " + uErr.Op + " failed"
	}

	if status >= 500 {
		logger.FromGin(c).Error("request failed", "status", status, "err", err)
	}

	env := errorEnvelope{Status: "fail", Message: message}
	if status >= 500 {
		env.Status = "error"
	}
	if !h.Production {
		env.Detail = err.Error()
	}
	c.AbortWithStatusJSON(status, env)
}
