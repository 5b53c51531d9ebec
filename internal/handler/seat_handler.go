package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/movie-booking/internal/app"
)

type SeatHandler struct {
	app *app.App
}

func NewSeatHandler(app *app.App) *SeatHandler {
	return &SeatHandler{app: app}
}

// @Summary Get a seat
// @Tags seats
// @Produce json
// @Param id path string true "Seat ID"
// @Success 200 {object} Response{data=domain.SeatDTO}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /api/seats/{id} [get]
func (h *SeatHandler) Get(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	seat, err := h.app.SeatService.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, seat)
}

// @Summary List all seats of a showtime
// @Tags seats
// @Produce json
// @Param showtimeId path string true "Showtime ID"
// @Success 200 {object} Response{data=[]domain.SeatDTO}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /api/seats/by-showtime/{showtimeId} [get]
func (h *SeatHandler) ListByShowtime(c *gin.Context) {
	showtimeID, valid := uuidParam(c, "showtimeId")
	if !valid {
		return
	}
	seats, err := h.app.SeatService.GetByShowtime(c.Request.Context(), showtimeID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, seats)
}

// @Summary List bookable seats of a showtime
// @Tags seats
// @Produce json
// @Param showtimeId path string true "Showtime ID"
// @Success 200 {object} Response{data=[]domain.SeatDTO}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /api/seats/available/by-showtime/{showtimeId} [get]
func (h *SeatHandler) ListAvailableByShowtime(c *gin.Context) {
	showtimeID, valid := uuidParam(c, "showtimeId")
	if !valid {
		return
	}
	seats, err := h.app.SeatService.GetAvailableByShowtime(c.Request.Context(), showtimeID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, seats)
}
