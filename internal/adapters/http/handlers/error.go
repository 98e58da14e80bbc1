package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rafaelleal24/storefront/internal/core/logger"
	"github.com/rafaelleal24/storefront/internal/core/serviceerrors"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func HandleError(c *gin.Context, err error) {
	var svcErr *serviceerrors.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Err != nil {
			logger.Debug(c.Request.Context(), "request rejected", map[string]any{
				"http.route": c.FullPath(),
				"cause":      svcErr.Err.Error(),
			})
		}
		c.JSON(mapKindToHTTP(svcErr.Kind), ErrorResponse{Error: svcErr.Message})
		return
	}

	// infrastructure details stay in the logs
	logger.Error(c.Request.Context(), "unhandled error", err, map[string]any{
		"http.route": c.FullPath(),
	})
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func mapKindToHTTP(kind serviceerrors.ErrorKind) int {
	switch kind {
	case serviceerrors.KindNotFound:
		return http.StatusNotFound
	case serviceerrors.KindConflict:
		return http.StatusConflict
	case serviceerrors.KindUnprocessableEntity:
		return http.StatusUnprocessableEntity
	case serviceerrors.KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
