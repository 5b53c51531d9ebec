package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/movie-booking/internal/app"
	"github.com/qs-lzh/movie-booking/internal/service"
	"github.com/qs-lzh/movie-booking/internal/service/domain"
)

type ShowtimeHandler struct {
	app *app.App
}

func NewShowtimeHandler(app *app.App) *ShowtimeHandler {
	return &ShowtimeHandler{app: app}
}

// List accepts an optional ?date=YYYY-MM-DD filter, interpreted in UTC.
// @Summary List active showtimes
// @Tags showtimes
// @Produce json
// @Param date query string false "Day filter, YYYY-MM-DD (UTC)"
// @Success 200 {object} Response{data=[]domain.ShowtimeDTO}
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Router /api/showtimes [get]
func (h *ShowtimeHandler) List(c *gin.Context) {
	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			_ = c.Error(service.NewValidationError("date", "Must be a date formatted as YYYY-MM-DD"))
			return
		}
		date = &d
	}
	showtimes, err := h.app.ShowtimeService.GetAll(c.Request.Context(), date)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, showtimes)
}

// @Summary Get a showtime
// @Tags showtimes
// @Produce json
// @Param id path string true "Showtime ID"
// @Success 200 {object} Response{data=domain.ShowtimeDTO}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /api/showtimes/{id} [get]
func (h *ShowtimeHandler) Get(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	showtime, err := h.app.ShowtimeService.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, showtime)
}

// @Summary List upcoming showtimes of a movie
// @Tags showtimes
// @Produce json
// @Param movieId path string true "Movie ID"
// @Success 200 {object} Response{data=[]domain.ShowtimeDTO}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /api/showtimes/by-movie/{movieId} [get]
func (h *ShowtimeHandler) ListByMovie(c *gin.Context) {
	movieID, valid := uuidParam(c, "movieId")
	if !valid {
		return
	}
	showtimes, err := h.app.ShowtimeService.GetByMovie(c.Request.Context(), movieID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, showtimes)
}

// @Summary Create a showtime and its seat grid
// @Tags showtimes
// @Accept json
// @Produce json
// @Param request body domain.CreateShowtimeRequest true "Request body"
// @Success 201 {object} Response{data=domain.ShowtimeDTO}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/showtimes [post]
func (h *ShowtimeHandler) Create(c *gin.Context) {
	var req domain.CreateShowtimeRequest
	if !bindJSON(c, &req) {
		return
	}
	showtime, err := h.app.ShowtimeService.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, showtime)
}

// @Summary Update a showtime
// @Tags showtimes
// @Accept json
// @Produce json
// @Param id path string true "Showtime ID"
// @Param request body domain.UpdateShowtimeRequest true "Request body"
// @Success 200 {object} Response{data=domain.ShowtimeDTO}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/showtimes/{id} [put]
func (h *ShowtimeHandler) Update(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	var req domain.UpdateShowtimeRequest
	if !bindJSON(c, &req) {
		return
	}
	showtime, err := h.app.ShowtimeService.Update(c.Request.Context(), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, showtime)
}

// @Summary Delete a showtime
// @Tags showtimes
// @Produce json
// @Param id path string true "Showtime ID"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/showtimes/{id} [delete]
func (h *ShowtimeHandler) Delete(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	if err := h.app.ShowtimeService.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	okMessage(c, "Showtime deleted")
}
