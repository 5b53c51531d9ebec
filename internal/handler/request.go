package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qs-lzh/movie-booking/internal/service"
	"github.com/qs-lzh/movie-booking/internal/validation"
)

// bindJSON decodes and validates the body into req, recording the failure on c.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(service.NewValidationError("body", "Request body is malformed or has wrong field types"))
		return false
	}
	if err := validation.Struct(req); err != nil {
		_ = c.Error(err)
		return false
	}
	return true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(service.NewValidationError(name, "Must be a valid id"))
		return uuid.Nil, false
	}
	return id, true
}
