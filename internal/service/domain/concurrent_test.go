package domain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/qs-lzh/movie-booking/internal/cache"
	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/mq"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/service"
)

type bookingResult struct {
	Success      int64
	Unavailable  int64
	OtherErrors  int64
	TotalElapsed time.Duration
}

// setupBookingDB rebuilds the schema and seeds users plus one showtime with a single row of seats.
func setupBookingDB(t *testing.T, userCount, seatCount int) (*gorm.DB, []model.User, model.Showtime, []model.Seat) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	all := model.All()
	for i := len(all) - 1; i >= 0; i-- {
		require.NoError(t, db.Migrator().DropTable(all[i]))
	}
	require.NoError(t, model.AutoMigrate(db))

	users := make([]model.User, 0, userCount)
	for i := range userCount {
		users = append(users, model.User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: "x",
		})
	}
	require.NoError(t, db.CreateInBatches(&users, 200).Error)

	movie := model.Movie{Title: "The Wandering Earth", Slug: "the-wandering-earth", DurationMinutes: 125}
	require.NoError(t, db.Omit("Genres.*").Create(&movie).Error)

	start := time.Now().Add(24 * time.Hour)
	showtime := model.Showtime{
		MovieID:    movie.ID,
		StartTime:  start,
		EndTime:    start.Add(125 * time.Minute),
		Hall:       "IMAX",
		Price:      9.5,
		TotalSeats: seatCount,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&showtime).Error)

	seats := generateSeats(showtime.ID, 1, seatCount)
	require.NoError(t, db.Create(&seats).Error)

	t.Logf("seeded %d users and %d seats", userCount, seatCount)
	return db, users, showtime, seats
}

func runConcurrentBookings(t *testing.T, svc ReservationService, reqs []CreateReservationRequest) *bookingResult {
	result := &bookingResult{}
	var wg sync.WaitGroup
	started := time.Now()

	for _, req := range reqs {
		wg.Add(1)
		go func(req CreateReservationRequest) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), req)
			var appErr *service.AppError
			switch {
			case err == nil:
				atomic.AddInt64(&result.Success, 1)
			case errors.As(err, &appErr):
				atomic.AddInt64(&result.Unavailable, 1)
			default:
				atomic.AddInt64(&result.OtherErrors, 1)
				t.Logf("unexpected error: %v", err)
			}
		}(req)
	}

	wg.Wait()
	result.TotalElapsed = time.Since(started)
	return result
}

func TestConcurrent_OversellPrevention(t *testing.T) {
	const concurrency = 50

	db, users, showtime, seats := setupBookingDB(t, concurrency, 5)
	// without Redis only the row locks stand between the requests
	svc := NewReservationService(repository.NewUnitOfWorkGorm(db), cache.NopCache{}, mq.NopPublisher{}, time.Minute, time.Minute, zap.NewNop())

	reqs := make([]CreateReservationRequest, 0, concurrency)
	for i := range concurrency {
		reqs = append(reqs, CreateReservationRequest{
			UserID:     users[i].ID,
			ShowtimeID: showtime.ID,
			SeatIDs:    []uuid.UUID{seats[0].ID, seats[1].ID},
		})
	}

	result := runConcurrentBookings(t, svc, reqs)
	t.Logf("success=%d unavailable=%d other=%d elapsed=%v", result.Success, result.Unavailable, result.OtherErrors, result.TotalElapsed)

	assert.EqualValues(t, 1, result.Success)
	assert.EqualValues(t, concurrency-1, result.Unavailable)
	assert.Zero(t, result.OtherErrors)

	var booked int64
	require.NoError(t, db.Model(&model.Reservation{}).Where("showtime_id = ?", showtime.ID).Count(&booked).Error)
	assert.EqualValues(t, 1, booked)

	var reserved int64
	require.NoError(t, db.Model(&model.Seat{}).Where("showtime_id = ? AND is_reserved", showtime.ID).Count(&reserved).Error)
	assert.EqualValues(t, 2, reserved)
}

func TestConcurrent_OverlappingSeatSets(t *testing.T) {
	const seatCount = 10

	db, users, showtime, seats := setupBookingDB(t, seatCount, seatCount)
	svc := NewReservationService(repository.NewUnitOfWorkGorm(db), cache.NopCache{}, mq.NopPublisher{}, time.Minute, time.Minute, zap.NewNop())

	// request i wants seats i and i+1, so neighbours always collide
	reqs := make([]CreateReservationRequest, 0, seatCount-1)
	for i := 0; i < seatCount-1; i++ {
		reqs = append(reqs, CreateReservationRequest{
			UserID:     users[i].ID,
			ShowtimeID: showtime.ID,
			SeatIDs:    []uuid.UUID{seats[i+1].ID, seats[i].ID},
		})
	}

	result := runConcurrentBookings(t, svc, reqs)
	assert.Zero(t, result.OtherErrors, "lock ordering must avoid deadlocks")

	var reserved int64
	require.NoError(t, db.Model(&model.Seat{}).Where("showtime_id = ? AND is_reserved", showtime.ID).Count(&reserved).Error)
	assert.EqualValues(t, 2*result.Success, reserved, "no seat may be sold twice")
}

func TestConcurrent_CancelRacesRebooking(t *testing.T) {
	const cancellers = 20

	db, users, showtime, seats := setupBookingDB(t, cancellers+1, 4)
	svc := NewReservationService(repository.NewUnitOfWorkGorm(db), cache.NopCache{}, mq.NopPublisher{}, time.Minute, time.Minute, zap.NewNop())
	pair := []uuid.UUID{seats[0].ID, seats[1].ID}

	original, err := svc.Create(context.Background(), CreateReservationRequest{UserID: users[0].ID, ShowtimeID: showtime.ID, SeatIDs: pair})
	require.NoError(t, err)

	var cancelled, alreadyCancelled, other int64
	var wg sync.WaitGroup
	for i := range cancellers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Cancel(context.Background(), original.ID)
			var appErr *service.AppError
			switch {
			case err == nil:
				atomic.AddInt64(&cancelled, 1)
			case errors.As(err, &appErr):
				atomic.AddInt64(&alreadyCancelled, 1)
			default:
				atomic.AddInt64(&other, 1)
				t.Logf("unexpected error: %v", err)
			}
		}()
		// rebookings race the cancels for the freed seats
		go func(user model.User) {
			defer wg.Done()
			_, _ = svc.Create(context.Background(), CreateReservationRequest{UserID: user.ID, ShowtimeID: showtime.ID, SeatIDs: pair})
		}(users[i+1])
	}
	wg.Wait()

	assert.EqualValues(t, 1, cancelled)
	assert.EqualValues(t, cancellers-1, alreadyCancelled)
	assert.Zero(t, other)

	var confirmed int64
	require.NoError(t, db.Model(&model.Reservation{}).
		Where("showtime_id = ? AND status = ?", showtime.ID, model.ReservationConfirmed).
		Count(&confirmed).Error)
	assert.LessOrEqual(t, confirmed, int64(1), "the pair can be sold again at most once")

	var reserved int64
	require.NoError(t, db.Model(&model.Seat{}).Where("showtime_id = ? AND is_reserved", showtime.ID).Count(&reserved).Error)
	assert.EqualValues(t, 2*confirmed, reserved, "a confirmed booking never loses its seats")
}
