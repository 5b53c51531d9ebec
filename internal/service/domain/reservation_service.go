package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/cache"
	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/mq"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/service"
)

type ReservationService interface {
	Create(ctx context.Context, req CreateReservationRequest) (*ReservationDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ReservationDTO, error)
	GetByUser(ctx context.Context, userID uuid.UUID) ([]ReservationDTO, error)
	GetByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]ReservationDTO, error)
	Cancel(ctx context.Context, id uuid.UUID) (*ReservationDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type reservationService struct {
	uow     repository.UnitOfWork
	cache   SeatCache
	events  EventPublisher
	lockTTL  time.Duration
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

var _ ReservationService = (*reservationService)(nil)

func NewReservationService(uow repository.UnitOfWork, seatCache SeatCache, events EventPublisher, lockTTL, cacheTTL time.Duration, logger *zap.Logger) *reservationService {
	return &reservationService{
		uow:      uow,
		cache:    seatCache,
		events:   events,
		lockTTL:  lockTTL,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Create books every requested seat or none of them.
// The Redis hold turns away concurrent requests early, the row locks taken inside
// the transaction are what guarantees a seat is never sold twice.
func (s *reservationService) Create(ctx context.Context, req CreateReservationRequest) (*ReservationDTO, error) {
	seatIDs, err := distinctSeatIDs(req.SeatIDs)
	if err != nil {
		return nil, err
	}

	owner := uuid.NewString()
	if err := s.cache.LockSeats(ctx, req.ShowtimeID, seatIDs, owner, s.lockTTL); err != nil {
		if errors.Is(err, cache.ErrSeatsLocked) {
			return nil, service.NewAppError("One or more seats are being booked by another customer")
		}
		s.logger.Warn("seat hold unavailable, relying on row locks", zap.Error(err))
	} else {
		defer s.releaseSeats(ctx, req.ShowtimeID, seatIDs, owner)
	}

	var reservation *model.Reservation
	err = s.uow.Do(ctx, func(r *repository.Repositories) error {
		if _, err := r.Users.GetByID(ctx, req.UserID); err != nil {
			return notFound(err, "User", req.UserID)
		}
		showtime, err := r.Showtimes.GetByID(ctx, req.ShowtimeID)
		if err != nil {
			return notFound(err, "Showtime", req.ShowtimeID)
		}
		if !showtime.IsActive {
			return service.NewAppError("Showtime is no longer open for booking")
		}

		seats, err := r.Seats.GetByIDsForUpdate(ctx, seatIDs)
		if err != nil {
			return err
		}
		if len(seats) != len(seatIDs) {
			return service.NewNotFoundError("One or more seats not found", nil)
		}
		for i := range seats {
			seat := &seats[i]
			if seat.ShowtimeID != showtime.ID {
				return service.NewAppError("Seat %s does not belong to this showtime", seat.Label())
			}
			if seat.IsReserved || !seat.IsAvailable {
				return service.NewAppError("Seat %s is not available", seat.Label())
			}
		}

		reservation = &model.Reservation{
			ID:              uuid.New(),
			UserID:          req.UserID,
			ShowtimeID:      showtime.ID,
			ReservationDate: s.now().UTC(),
			TotalPrice:      roundCents(showtime.Price * float64(len(seats))),
			Status:          model.ReservationConfirmed,
		}
		for _, seat := range seats {
			reservation.Seats = append(reservation.Seats, model.ReservationSeat{
				ReservationID: reservation.ID,
				SeatID:        seat.ID,
			})
		}
		if err := r.Reservations.Create(ctx, reservation); err != nil {
			return err
		}
		return r.Seats.SetReserved(ctx, seatIDs, true)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation confirmed",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("showtime_id", reservation.ShowtimeID.String()),
		zap.Int("seats", len(seatIDs)),
	)
	s.afterChange(ctx, mq.ReservationConfirmed, reservation)
	return s.GetByID(ctx, reservation.ID)
}

func (s *reservationService) GetByID(ctx context.Context, id uuid.UUID) (*ReservationDTO, error) {
	reservation, err := s.uow.Repos().Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Reservation", id)
	}
	dto := toReservationDTO(reservation)
	return &dto, nil
}

func (s *reservationService) GetByUser(ctx context.Context, userID uuid.UUID) ([]ReservationDTO, error) {
	repos := s.uow.Repos()
	if _, err := repos.Users.GetByID(ctx, userID); err != nil {
		return nil, notFound(err, "User", userID)
	}
	reservations, err := repos.Reservations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toReservationDTOs(reservations), nil
}

func (s *reservationService) GetByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]ReservationDTO, error) {
	repos := s.uow.Repos()
	if _, err := repos.Showtimes.GetByID(ctx, showtimeID); err != nil {
		return nil, notFound(err, "Showtime", showtimeID)
	}
	reservations, err := repos.Reservations.ListByShowtime(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	return toReservationDTOs(reservations), nil
}

// Cancel frees the seats and keeps the reservation row with status Cancelled.
// The reservation row stays locked until commit, so a concurrent cancel sees the
// new status and cannot release seats a later booking has taken.
func (s *reservationService) Cancel(ctx context.Context, id uuid.UUID) (*ReservationDTO, error) {
	var reservation *model.Reservation
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		var err error
		reservation, err = r.Reservations.GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "Reservation", id)
		}
		if reservation.Status == model.ReservationCancelled {
			return service.NewAppError("Reservation is already cancelled")
		}
		if err := r.Reservations.UpdateStatus(ctx, id, model.ReservationCancelled); err != nil {
			return err
		}
		return r.Seats.SetReserved(ctx, reservation.SeatIDs(), false)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("reservation cancelled", zap.String("reservation_id", id.String()))
	s.afterChange(ctx, mq.ReservationCancelled, reservation)
	return s.GetByID(ctx, id)
}

// Delete removes the reservation outright, freeing its seats unless it was already cancelled.
func (s *reservationService) Delete(ctx context.Context, id uuid.UUID) error {
	var reservation *model.Reservation
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		var err error
		reservation, err = r.Reservations.GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "Reservation", id)
		}
		if reservation.Status != model.ReservationCancelled {
			if err := r.Seats.SetReserved(ctx, reservation.SeatIDs(), false); err != nil {
				return err
			}
		}
		return notFound(r.Reservations.Delete(ctx, id), "Reservation", id)
	})
	if err != nil {
		return err
	}
	s.afterChange(ctx, mq.ReservationDeleted, reservation)
	return nil
}

// afterChange runs once the transaction committed. Failures here are logged only,
// the database already holds the truth.
func (s *reservationService) afterChange(ctx context.Context, eventType mq.ReservationEventType, reservation *model.Reservation) {
	s.refreshAvailability(ctx, reservation.ShowtimeID)

	event := mq.ReservationEvent{
		Type:          eventType,
		ReservationID: reservation.ID,
		UserID:        reservation.UserID,
		ShowtimeID:    reservation.ShowtimeID,
		SeatIDs:       reservation.SeatIDs(),
		TotalPrice:    reservation.TotalPrice,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.events.PublishReservationEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish reservation event",
			zap.String("reservation_id", reservation.ID.String()), zap.Error(err))
	}
}

// refreshAvailability overwrites the cached counter with a fresh count. Readers only
// fill an empty key, so a count they took before this commit cannot replace it.
func (s *reservationService) refreshAvailability(ctx context.Context, showtimeID uuid.UUID) {
	n, err := s.uow.Repos().Seats.CountAvailableByShowtime(ctx, showtimeID)
	if err == nil {
		err = s.cache.SetAvailableSeats(ctx, showtimeID, int(n), s.cacheTTL)
		if err == nil {
			return
		}
	}
	s.logger.Warn("failed to refresh seat availability",
		zap.String("showtime_id", showtimeID.String()), zap.Error(err))
	if err := s.cache.InvalidateAvailableSeats(ctx, showtimeID); err != nil {
		s.logger.Warn("failed to invalidate seat availability",
			zap.String("showtime_id", showtimeID.String()), zap.Error(err))
	}
}

func (s *reservationService) releaseSeats(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID, owner string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.cache.UnlockSeats(ctx, showtimeID, seatIDs, owner); err != nil {
		s.logger.Warn("failed to release seat hold", zap.Error(err))
	}
}

func distinctSeatIDs(ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, service.NewValidationError("seatIds", "At least one seat must be selected")
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return nil, service.NewValidationError("seatIds", "Each seat can only be selected once")
		}
		seen[id] = struct{}{}
	}
	return ids, nil
}

func toReservationDTOs(reservations []model.Reservation) []ReservationDTO {
	out := make([]ReservationDTO, 0, len(reservations))
	for i := range reservations {
		out = append(out, toReservationDTO(&reservations[i]))
	}
	return out
}
