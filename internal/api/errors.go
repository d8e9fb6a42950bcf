package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onpointe/prevention/internal/repository"
	"onpointe/prevention/internal/service"
)

// statusFor maps service and repository errors onto HTTP status codes.
// Unknown errors are internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidSlotDate),
		errors.Is(err, service.ErrInvalidSlotTime),
		errors.Is(err, service.ErrSlotEndsTooEarly),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrMessageTooLong),
		errors.Is(err, service.ErrInvalidLinkCode),
		errors.Is(err, service.ErrNoLinkedPT):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDancerNotLinked),
		errors.Is(err, service.ErrNotThreadMember),
		errors.Is(err, service.ErrNotDancer),
		errors.Is(err, service.ErrNotPT):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDancerAlreadyLinked),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Internal errors are
// logged and replaced by fallback so storage details never reach clients.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.Error(fallback, zap.String("path", c.FullPath()), zap.Error(err))
		abortWithError(c, code, fallback)
		return
	}
	abortWithError(c, code, err.Error())
}
