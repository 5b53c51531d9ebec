package domain

import (
	"context"

	"github.com/google/uuid"

	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/repository"
)

type SeatService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*SeatDTO, error)
	GetByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]SeatDTO, error)
	GetAvailableByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]SeatDTO, error)
}

type seatService struct {
	uow repository.UnitOfWork
}

var _ SeatService = (*seatService)(nil)

func NewSeatService(uow repository.UnitOfWork) *seatService {
	return &seatService{uow: uow}
}

func (s *seatService) GetByID(ctx context.Context, id uuid.UUID) (*SeatDTO, error) {
	seat, err := s.uow.Repos().Seats.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Seat", id)
	}
	dto := toSeatDTO(seat)
	return &dto, nil
}

func (s *seatService) GetByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]SeatDTO, error) {
	return s.list(ctx, showtimeID, s.uow.Repos().Seats.ListByShowtime)
}

func (s *seatService) GetAvailableByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]SeatDTO, error) {
	return s.list(ctx, showtimeID, s.uow.Repos().Seats.ListAvailableByShowtime)
}

func (s *seatService) list(ctx context.Context, showtimeID uuid.UUID, fetch func(context.Context, uuid.UUID) ([]model.Seat, error)) ([]SeatDTO, error) {
	if _, err := s.uow.Repos().Showtimes.GetByID(ctx, showtimeID); err != nil {
		return nil, notFound(err, "Showtime", showtimeID)
	}
	seats, err := fetch(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	return toSeatDTOs(seats), nil
}
