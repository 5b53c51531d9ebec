package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/middleware"
	"github.com/qs-lzh/movie-booking/internal/service"
)

const (
	successMessage       = "Request successful"
	internalErrorMessage = "An error occurred while processing your request."
)

// Response is the envelope of every API reply.
type Response struct {
	Success          bool                `json:"success"`
	Message          string              `json:"message,omitempty"`
	Data             any                 `json:"data,omitempty"`
	ValidationErrors map[string][]string `json:"validationErrors,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Message: successMessage, Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: successMessage, Data: data})
}

func okMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message})
}

// ErrorHandler turns the last error attached with c.Error into the JSON envelope.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, body := mapError(err)
		if status == http.StatusInternalServerError {
			logger.Error("unhandled error",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}
		c.JSON(status, body)
	}
}

func mapError(err error) (int, Response) {
	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
		appErr        *service.AppError
		unauthErr     *service.UnauthorizedError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, Response{Message: "Validation error", ValidationErrors: validationErr.Errors}
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, Response{Message: notFoundErr.Error()}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, Response{Message: "Resource not found"}
	case errors.As(err, &appErr):
		return http.StatusBadRequest, Response{Message: appErr.Message}
	case errors.As(err, &unauthErr):
		return http.StatusUnauthorized, Response{Message: unauthErr.Message}
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, Response{Message: "Unauthorized access"}
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, Response{Message: "You do not have permission to perform this action"}
	case errors.Is(err, middleware.ErrRateLimited):
		return http.StatusTooManyRequests, Response{Message: "Too many requests, please slow down"}
	default:
		return http.StatusInternalServerError, Response{Message: internalErrorMessage}
	}
}

// Recovery logs a panic and answers with the generic 500 envelope.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, Response{Message: internalErrorMessage})
	})
}
