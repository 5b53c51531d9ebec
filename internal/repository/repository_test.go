package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/qs-lzh/movie-booking/internal/model"
)

// newTestUoW rebuilds the schema on TEST_DATABASE_DSN or skips the test.
func newTestUoW(t *testing.T) (*gorm.DB, *unitOfWorkGorm) {
	t.Helper()
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
	return db, NewUnitOfWorkGorm(db)
}

func seedShowtime(t *testing.T, repos *Repositories) (model.Showtime, []model.Seat) {
	t.Helper()
	ctx := context.Background()

	movie := model.Movie{Title: "Heat", Slug: "heat", DurationMinutes: 170}
	require.NoError(t, repos.Movies.Create(ctx, &movie))

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Minute)
	showtime := model.Showtime{MovieID: movie.ID, StartTime: start, EndTime: start.Add(170 * time.Minute), Hall: "Hall 2", Price: 8, TotalSeats: 4, IsActive: true}
	require.NoError(t, repos.Showtimes.Create(ctx, &showtime))

	// inserted out of order on purpose
	seats := []model.Seat{
		{ShowtimeID: showtime.ID, Row: "B", Number: 2, IsAvailable: true, Type: model.SeatTypeRegular},
		{ShowtimeID: showtime.ID, Row: "A", Number: 2, IsAvailable: true, Type: model.SeatTypeRegular},
		{ShowtimeID: showtime.ID, Row: "B", Number: 1, IsAvailable: true, Type: model.SeatTypeRegular},
		{ShowtimeID: showtime.ID, Row: "A", Number: 1, IsAvailable: true, Type: model.SeatTypeRegular},
	}
	require.NoError(t, repos.Seats.CreateBatch(ctx, seats))
	return showtime, seats
}

func TestUserRepo_Postgres(t *testing.T) {
	_, uow := newTestUoW(t)
	ctx := context.Background()
	users := uow.Repos().Users

	bob := model.User{Username: "Bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, &bob))

	got, err := users.GetByEmail(ctx, "BOB@Example.com")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	got, err = users.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	err = users.Create(ctx, &model.User{Username: "robert", Email: "bob@example.com", PasswordHash: "x"})
	index, dup := DuplicateKey(err)
	require.True(t, dup, "second insert must hit the unique index: %v", err)
	assert.Equal(t, UsersEmailIndex, index)

	err = users.Create(ctx, &model.User{Username: "Bob", Email: "other@example.com", PasswordHash: "x"})
	index, dup = DuplicateKey(err)
	require.True(t, dup)
	assert.Equal(t, UsersUsernameIndex, index)
}

func TestSeatRepo_Postgres(t *testing.T) {
	_, uow := newTestUoW(t)
	ctx := context.Background()
	showtime, seats := seedShowtime(t, uow.Repos())

	listed, err := uow.Repos().Seats.ListByShowtime(ctx, showtime.ID)
	require.NoError(t, err)
	labels := make([]string, 0, len(listed))
	for i := range listed {
		labels = append(labels, listed[i].Label())
	}
	assert.Equal(t, []string{"A1", "A2", "B1", "B2"}, labels)

	err = uow.Do(ctx, func(r *Repositories) error {
		locked, err := r.Seats.GetByIDsForUpdate(ctx, []uuid.UUID{seats[0].ID, seats[3].ID})
		if err != nil {
			return err
		}
		require.Len(t, locked, 2)
		assert.Less(t, locked[0].ID.String(), locked[1].ID.String(), "locks are taken in id order")
		return r.Seats.SetReserved(ctx, []uuid.UUID{seats[0].ID, seats[3].ID}, true)
	})
	require.NoError(t, err)

	available, err := uow.Repos().Seats.CountAvailableByShowtime(ctx, showtime.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, available)
}

func TestReservationRepo_Postgres(t *testing.T) {
	_, uow := newTestUoW(t)
	ctx := context.Background()
	repos := uow.Repos()
	showtime, seats := seedShowtime(t, repos)

	user := model.User{Username: "ann", Email: "ann@example.com", PasswordHash: "x"}
	require.NoError(t, repos.Users.Create(ctx, &user))

	reservation := model.Reservation{
		UserID:          user.ID,
		ShowtimeID:      showtime.ID,
		ReservationDate: time.Now().UTC(),
		TotalPrice:      16,
		Status:          model.ReservationConfirmed,
		Seats:           []model.ReservationSeat{{SeatID: seats[0].ID}, {SeatID: seats[1].ID}},
	}
	require.NoError(t, repos.Reservations.Create(ctx, &reservation))

	err := uow.Do(ctx, func(r *Repositories) error {
		locked, err := r.Reservations.GetByIDForUpdate(ctx, reservation.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, "Heat", locked.Showtime.Movie.Title)
		assert.Equal(t, "ann", locked.User.Username)
		assert.ElementsMatch(t, []uuid.UUID{seats[0].ID, seats[1].ID}, locked.SeatIDs())
		return r.Reservations.UpdateStatus(ctx, reservation.ID, model.ReservationCancelled)
	})
	require.NoError(t, err)

	got, err := repos.Reservations.GetByID(ctx, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, got.Status)

	_, err = repos.Reservations.GetByIDForUpdate(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repos.Reservations.Delete(ctx, reservation.ID))
	assert.ErrorIs(t, repos.Reservations.Delete(ctx, reservation.ID), gorm.ErrRecordNotFound)
}
