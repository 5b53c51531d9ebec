package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qs-lzh/movie-booking/internal/app"
	"github.com/qs-lzh/movie-booking/internal/middleware"
	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/service"
	"github.com/qs-lzh/movie-booking/internal/service/domain"
)

type ReservationHandler struct {
	app *app.App
}

func NewReservationHandler(app *app.App) *ReservationHandler {
	return &ReservationHandler{app: app}
}

// caller returns the authenticated user id and whether they are an admin.
func caller(c *gin.Context) (uuid.UUID, bool, bool) {
	claims, found := middleware.CurrentClaims(c)
	if !found {
		_ = c.Error(service.ErrUnauthorized)
		return uuid.Nil, false, false
	}
	return claims.UserID, claims.Role == model.RoleAdmin, true
}

// @Summary List the caller's reservations
// @Tags reservations
// @Produce json
// @Success 200 {object} Response{data=[]domain.ReservationDTO}
// @Failure 401 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/reservations/my-reservations [get]
func (h *ReservationHandler) Mine(c *gin.Context) {
	userID, _, found := caller(c)
	if !found {
		return
	}
	reservations, err := h.app.ReservationService.GetByUser(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, reservations)
}

// @Summary Get a reservation
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} Response{data=domain.ReservationDTO}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/reservations/{id} [get]
func (h *ReservationHandler) Get(c *gin.Context) {
	reservation, found := h.owned(c)
	if !found {
		return
	}
	ok(c, reservation)
}

// @Summary List reservations of a showtime
// @Tags reservations
// @Produce json
// @Param showtimeId path string true "Showtime ID"
// @Success 200 {object} Response{data=[]domain.ReservationDTO}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/reservations/by-showtime/{showtimeId} [get]
func (h *ReservationHandler) ListByShowtime(c *gin.Context) {
	showtimeID, valid := uuidParam(c, "showtimeId")
	if !valid {
		return
	}
	reservations, err := h.app.ReservationService.GetByShowtime(c.Request.Context(), showtimeID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, reservations)
}

// Create books for the caller. Only admins may book on behalf of another user.
// @Summary Book seats
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body domain.CreateReservationRequest true "Request body"
// @Success 201 {object} Response{data=domain.ReservationDTO}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/reservations [post]
func (h *ReservationHandler) Create(c *gin.Context) {
	userID, isAdmin, found := caller(c)
	if !found {
		return
	}
	var req domain.CreateReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	if !isAdmin || req.UserID == uuid.Nil {
		req.UserID = userID
	}
	reservation, err := h.app.ReservationService.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, reservation)
}

// @Summary Cancel a reservation
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} Response{data=domain.ReservationDTO}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/reservations/{id}/cancel [put]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	reservation, found := h.owned(c)
	if !found {
		return
	}
	cancelled, err := h.app.ReservationService.Cancel(c.Request.Context(), reservation.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, cancelled)
}

// @Summary Delete a reservation
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Security BearerAuth
// @Router /api/reservations/{id} [delete]
func (h *ReservationHandler) Delete(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	if err := h.app.ReservationService.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	okMessage(c, "Reservation deleted")
}

// owned loads the :id reservation and checks the caller may see it.
func (h *ReservationHandler) owned(c *gin.Context) (*domain.ReservationDTO, bool) {
	userID, isAdmin, found := caller(c)
	if !found {
		return nil, false
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return nil, false
	}
	reservation, err := h.app.ReservationService.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	if !isAdmin && reservation.UserID != userID {
		_ = c.Error(service.ErrForbidden)
		return nil, false
	}
	return reservation, true
}
