package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kitaplan/kitaplan-backend/internal/http/response"
	"github.com/kitaplan/kitaplan-backend/internal/metagen"
	"github.com/kitaplan/kitaplan-backend/internal/platform/logger"
)

type MetadataHandler struct {
	pipeline *metagen.Pipeline
	log      *logger.Logger
}

func NewMetadataHandler(pipeline *metagen.Pipeline, baseLog *logger.Logger) *MetadataHandler {
	return &MetadataHandler{pipeline: pipeline, log: baseLog.With("handler", "MetadataHandler")}
}

// Generate runs the metadata pipeline synchronously; the caller awaits the
// full result, there is no partial or streaming response.
func (h *MetadataHandler) Generate(c *gin.Context) {
	var req metagen.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	res, err := h.pipeline.Run(c.Request.Context(), req)
	if err != nil {
		status, code := statusForError(err)
		h.log.Error("generation failed", "code", code, "error", err)
		response.RespondError(c, status, code, err)
		return
	}

	response.RespondOK(c, res)
}

func statusForError(err error) (int, string) {
	if errors.Is(err, metagen.ErrEmptyActivity) {
		return http.StatusBadRequest, "invalid_request"
	}
	switch metagen.KindOf(err) {
	case metagen.KindDataUnavailable:
		return http.StatusServiceUnavailable, "data_unavailable"
	case metagen.KindPromptFailed:
		return http.StatusInternalServerError, "prompt_failed"
	case metagen.KindTimeout:
		return http.StatusGatewayTimeout, "timeout"
	case metagen.KindCanceled:
		// 499, the de facto client-closed-request status.
		return 499, "canceled"
	case metagen.KindUpstreamError:
		return http.StatusBadGateway, "upstream_error"
	case metagen.KindMalformedResponse:
		return http.StatusBadGateway, "malformed_response"
	case metagen.KindInsufficientContent:
		return http.StatusUnprocessableEntity, "insufficient_content"
	case metagen.KindPricingUnavailable:
		return http.StatusServiceUnavailable, "pricing_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
