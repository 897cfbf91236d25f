package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/catalog"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/moderation"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/users"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/logger"
)

func apiError(c *gin.Context, status int, msg string, details []string) {
	body := gin.H{"error": msg}
	if len(details) > 0 {
		body["details"] = details
	}
	c.AbortWithStatusJSON(status, body)
}

func invalidInput(c *gin.Context, details []string) {
	apiError(c, http.StatusBadRequest, "invalid input", details)
}

// respondError maps service errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var ve *moderation.ValidationError
	var ue *RequestError
	switch {
	case errors.As(err, &ve):
		invalidInput(c, ve.Errors)
	case errors.As(err, &ue):
		apiError(c, ue.Status, ue.Msg, nil)
	case errors.Is(err, moderation.ErrNotFound), errors.Is(err, catalog.ErrNotFound), errors.Is(err, users.ErrNotFound):
		apiError(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, catalog.ErrConflict), errors.Is(err, users.ErrConflict), errors.Is(err, moderation.ErrDuplicateID):
		apiError(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, users.ErrInvalidCredentials):
		apiError(c, http.StatusUnauthorized, err.Error(), nil)
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		apiError(c, http.StatusInternalServerError, "internal error", nil)
	}
}
