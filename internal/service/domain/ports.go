package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs-lzh/movie-booking/internal/auth"
	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/mq"
	"github.com/qs-lzh/movie-booking/internal/service"
)

// SeatCache is the fast path in front of the database: availability counters and short lived seat holds.
type SeatCache interface {
	GetAvailableSeats(ctx context.Context, showtimeID uuid.UUID) (int, error)
	SetAvailableSeats(ctx context.Context, showtimeID uuid.UUID, count int, ttl time.Duration) error
	FillAvailableSeats(ctx context.Context, showtimeID uuid.UUID, count int, ttl time.Duration) (bool, error)
	InvalidateAvailableSeats(ctx context.Context, showtimeID uuid.UUID) error
	LockSeats(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID, owner string, ttl time.Duration) error
	UnlockSeats(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID, owner string) error
}

type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, event mq.ReservationEvent) error
}

type TokenIssuer interface {
	Issue(user *model.User) (auth.AccessToken, error)
}

// notFound converts gorm.ErrRecordNotFound into a client facing not found error.
func notFound(err error, resource string, key any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return service.NewNotFoundError(resource, key)
	}
	return err
}
