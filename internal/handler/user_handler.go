package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/movie-booking/internal/app"
	"github.com/qs-lzh/movie-booking/internal/service/domain"
)

type UserHandler struct {
	app *app.App
}

func NewUserHandler(app *app.App) *UserHandler {
	return &UserHandler{app: app}
}

// @Summary Register an account
// @Tags users
// @Accept json
// @Produce json
// @Param request body domain.RegisterRequest true "Request body"
// @Success 201 {object} Response{data=domain.UserDTO}
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Router /api/users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.app.UserService.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, user)
}

// @Summary Log in
// @Tags users
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Request body"
// @Success 200 {object} Response{data=domain.LoginResponse}
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Router /api/users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.app.AuthService.Login(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, resp)
}

// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Success 200 {object} Response{data=domain.UserDTO}
// @Failure 401 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/users/profile [get]
func (h *UserHandler) Profile(c *gin.Context) {
	userID, _, found := caller(c)
	if !found {
		return
	}
	user, err := h.app.UserService.GetByID(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, user)
}

// @Summary Update the caller's profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body domain.UpdateProfileRequest true "Request body"
// @Success 200 {object} Response{data=domain.UserDTO}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/users/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, _, found := caller(c)
	if !found {
		return
	}
	var req domain.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.app.UserService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, user)
}

// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {object} Response{data=[]domain.UserDTO}
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.app.UserService.GetAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, users)
}

// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} Response{data=domain.UserDTO}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	user, err := h.app.UserService.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, user)
}

// @Summary Delete a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	if err := h.app.UserService.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	okMessage(c, "User deleted")
}
