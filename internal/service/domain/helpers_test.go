package domain

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/qs-lzh/movie-booking/internal/model"
)

type fixture struct {
	uow      *fakeUoW
	user     model.User
	movie    model.Movie
	showtime model.Showtime
	seats    []model.Seat
}

// newFixture stores one user, one movie and an active showtime with a 2x3 seat map.
func newFixture(t *testing.T, price float64) *fixture {
	t.Helper()
	ctx := context.Background()
	uow := newFakeUoW()
	repos := uow.Repos()

	user := model.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	require.NoError(t, repos.Users.Create(ctx, &user))

	movie := model.Movie{ID: uuid.New(), Title: "Arrival", Slug: "arrival", DurationMinutes: 116}
	require.NoError(t, repos.Movies.Create(ctx, &movie))

	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Minute)
	showtime := model.Showtime{
		ID:         uuid.New(),
		MovieID:    movie.ID,
		StartTime:  start,
		EndTime:    start.Add(116 * time.Minute),
		Hall:       "Hall 1",
		Price:      price,
		TotalSeats: 6,
		IsActive:   true,
	}
	require.NoError(t, repos.Showtimes.Create(ctx, &showtime))

	seats := generateSeats(showtime.ID, 2, 3)
	require.NoError(t, repos.Seats.CreateBatch(ctx, seats))

	return &fixture{uow: uow, user: user, movie: movie, showtime: showtime, seats: seats}
}

func (f *fixture) seat(t *testing.T, id uuid.UUID) model.Seat {
	t.Helper()
	seat, err := f.uow.Repos().Seats.GetByID(context.Background(), id)
	require.NoError(t, err)
	return *seat
}
