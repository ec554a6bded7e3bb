package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urizarreta/conciliar-backend/internal/api/dto"
	"github.com/urizarreta/conciliar-backend/internal/application/service"
)

// userID extracts the caller identity from the X-User-Id header.
// Authentication itself happens upstream; the API trusts the header.
func userID(c *gin.Context) string {
	return c.GetHeader("X-User-Id")
}

// respondError maps service errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var validation *service.ValidationError
	var notFound *service.NotFoundError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, dto.ValidationError(validation.Message))
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, dto.NotFoundError(notFound.Resource))
	case errors.Is(err, service.ErrRunClosed):
		c.JSON(http.StatusConflict, dto.RunClosedError())
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.ForbiddenError(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, dto.InternalError())
	}
}

// bindError responds to a request-body binding failure.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
}
