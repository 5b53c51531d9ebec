package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/movie-booking/internal/app"
	"github.com/qs-lzh/movie-booking/internal/service/domain"
)

type MovieHandler struct {
	app *app.App
}

func NewMovieHandler(app *app.App) *MovieHandler {
	return &MovieHandler{app: app}
}

// @Summary List movies
// @Tags movies
// @Produce json
// @Success 200 {object} Response{data=[]domain.MovieDTO}
// @Failure 500 {object} Response
// @Router /api/movies [get]
func (h *MovieHandler) List(c *gin.Context) {
	movies, err := h.app.MovieService.GetAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, movies)
}

// @Summary Get a movie
// @Tags movies
// @Produce json
// @Param id path string true "Movie ID"
// @Success 200 {object} Response{data=domain.MovieDTO}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /api/movies/{id} [get]
func (h *MovieHandler) Get(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	movie, err := h.app.MovieService.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, movie)
}

// @Summary Search movies by title
// @Tags movies
// @Produce json
// @Param title query string false "Case-insensitive title fragment"
// @Success 200 {object} Response{data=[]domain.MovieDTO}
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Router /api/movies/search [get]
func (h *MovieHandler) Search(c *gin.Context) {
	movies, err := h.app.MovieService.Search(c.Request.Context(), c.Query("title"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, movies)
}

// @Summary List movies of a genre
// @Tags movies
// @Produce json
// @Param genreId path string true "Genre ID"
// @Success 200 {object} Response{data=[]domain.MovieDTO}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /api/movies/by-genre/{genreId} [get]
func (h *MovieHandler) ListByGenre(c *gin.Context) {
	genreID, valid := uuidParam(c, "genreId")
	if !valid {
		return
	}
	movies, err := h.app.MovieService.GetByGenre(c.Request.Context(), genreID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, movies)
}

// @Summary Create a movie
// @Tags movies
// @Accept json
// @Produce json
// @Param request body domain.MovieRequest true "Request body"
// @Success 201 {object} Response{data=domain.MovieDTO}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/movies [post]
func (h *MovieHandler) Create(c *gin.Context) {
	var req domain.MovieRequest
	if !bindJSON(c, &req) {
		return
	}
	movie, err := h.app.MovieService.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, movie)
}

// @Summary Update a movie
// @Tags movies
// @Accept json
// @Produce json
// @Param id path string true "Movie ID"
// @Param request body domain.MovieRequest true "Request body"
// @Success 200 {object} Response{data=domain.MovieDTO}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/movies/{id} [put]
func (h *MovieHandler) Update(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	var req domain.MovieRequest
	if !bindJSON(c, &req) {
		return
	}
	movie, err := h.app.MovieService.Update(c.Request.Context(), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, movie)
}

// @Summary Delete a movie
// @Tags movies
// @Produce json
// @Param id path string true "Movie ID"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/movies/{id} [delete]
func (h *MovieHandler) Delete(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	if err := h.app.MovieService.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	okMessage(c, "Movie deleted")
}
