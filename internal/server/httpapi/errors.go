package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/myrecipe/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrorResponse is the JSON envelope every failed request gets. TraceID is
// generated per response and logged alongside the underlying error, so an
// operator can find the cause without the client ever seeing it.
type ErrorResponse struct {
	Status    int    `json:"status"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	TraceID   string `json:"traceId"`
}

// invalidPayload classifies a JSON binding failure as a validation error.
func invalidPayload(err error) error {
	return common.Wrap(common.KindValidation, common.CodeValidation, "invalid request payload", err)
}

func statusOf(kind common.Kind) int {
	switch kind {
	case common.KindUnauthorized:
		return http.StatusUnauthorized
	case common.KindDuplicate:
		return http.StatusConflict
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error to the HTTP envelope and aborts the
// request. Internal details stay in the log; the body carries only the safe
// message.
func (s *HTTPServer) writeError(c *gin.Context, err error) {
	kind := common.KindOf(err)
	status := statusOf(kind)
	traceID := uuid.NewString()

	message := "internal error"
	var ce *common.Error
	if errors.As(err, &ce) {
		message = ce.Message
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			"path", c.Request.URL.Path, "traceId", traceID, "error", err)
	} else {
		s.logger.Debug(c.Request.Context(), "request rejected",
			"path", c.Request.URL.Path, "traceId", traceID, "error", err)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Status:    status,
		ErrorCode: common.CodeOf(err),
		Message:   message,
		Path:      c.Request.URL.Path,
		TraceID:   traceID,
	})
}
