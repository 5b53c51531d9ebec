package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/movie-booking/internal/app"
	"github.com/qs-lzh/movie-booking/internal/service/domain"
)

type GenreHandler struct {
	app *app.App
}

func NewGenreHandler(app *app.App) *GenreHandler {
	return &GenreHandler{app: app}
}

// @Summary List genres
// @Tags genres
// @Produce json
// @Success 200 {object} Response{data=[]domain.GenreDTO}
// @Failure 500 {object} Response
// @Router /api/genres [get]
func (h *GenreHandler) List(c *gin.Context) {
	genres, err := h.app.GenreService.GetAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, genres)
}

// @Summary Get a genre
// @Tags genres
// @Produce json
// @Param id path string true "Genre ID"
// @Success 200 {object} Response{data=domain.GenreDTO}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /api/genres/{id} [get]
func (h *GenreHandler) Get(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	genre, err := h.app.GenreService.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, genre)
}

// @Summary Create a genre
// @Tags genres
// @Accept json
// @Produce json
// @Param request body domain.GenreRequest true "Request body"
// @Success 201 {object} Response{data=domain.GenreDTO}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/genres [post]
func (h *GenreHandler) Create(c *gin.Context) {
	var req domain.GenreRequest
	if !bindJSON(c, &req) {
		return
	}
	genre, err := h.app.GenreService.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, genre)
}

// @Summary Rename a genre
// @Tags genres
// @Accept json
// @Produce json
// @Param id path string true "Genre ID"
// @Param request body domain.GenreRequest true "Request body"
// @Success 200 {object} Response{data=domain.GenreDTO}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/genres/{id} [put]
func (h *GenreHandler) Update(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	var req domain.GenreRequest
	if !bindJSON(c, &req) {
		return
	}
	genre, err := h.app.GenreService.Update(c.Request.Context(), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, genre)
}

// @Summary Delete a genre
// @Tags genres
// @Produce json
// @Param id path string true "Genre ID"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/genres/{id} [delete]
func (h *GenreHandler) Delete(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	if err := h.app.GenreService.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	okMessage(c, "Genre deleted")
}
