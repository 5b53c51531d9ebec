package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NopCache stands in when no Redis is configured: locks always succeed and reads always miss.
type NopCache struct{}

func (NopCache) GetAvailableSeats(context.Context, uuid.UUID) (int, error) {
	return 0, ErrCacheMiss
}

func (NopCache) SetAvailableSeats(context.Context, uuid.UUID, int, time.Duration) error {
	return nil
}

func (NopCache) FillAvailableSeats(context.Context, uuid.UUID, int, time.Duration) (bool, error) {
	return false, nil
}

func (NopCache) InvalidateAvailableSeats(context.Context, uuid.UUID) error {
	return nil
}

func (NopCache) LockSeats(context.Context, uuid.UUID, []uuid.UUID, string, time.Duration) error {
	return nil
}

func (NopCache) UnlockSeats(context.Context, uuid.UUID, []uuid.UUID, string) error {
	return nil
}
