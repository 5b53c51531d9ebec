package domain

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs-lzh/movie-booking/internal/auth"
	"github.com/qs-lzh/movie-booking/internal/cache"
	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/mq"
	"github.com/qs-lzh/movie-booking/internal/repository"
)

// memStore is an in-memory database. fakeUoW commits by swapping in a modified copy,
// so a failing transaction leaves it untouched.
type memStore struct {
	users        map[uuid.UUID]model.User
	genres       map[uuid.UUID]model.Genre
	movies       map[uuid.UUID]model.Movie
	showtimes    map[uuid.UUID]model.Showtime
	seats        map[uuid.UUID]model.Seat
	reservations map[uuid.UUID]model.Reservation

	// rows read with a lock, shared by every copy of the store
	lockedReservations *[]uuid.UUID
	// returned by the next user or genre insert, as a concurrent writer would cause
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[uuid.UUID]model.User{},
		genres:       map[uuid.UUID]model.Genre{},
		movies:       map[uuid.UUID]model.Movie{},
		showtimes:    map[uuid.UUID]model.Showtime{},
		seats:        map[uuid.UUID]model.Seat{},
		reservations: map[uuid.UUID]model.Reservation{},

		lockedReservations: &[]uuid.UUID{},
	}
}

func cloneMap[T any](m map[uuid.UUID]T) map[uuid.UUID]T {
	out := make(map[uuid.UUID]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) clone() *memStore {
	return &memStore{
		users:        cloneMap(s.users),
		genres:       cloneMap(s.genres),
		movies:       cloneMap(s.movies),
		showtimes:    cloneMap(s.showtimes),
		seats:        cloneMap(s.seats),
		reservations: cloneMap(s.reservations),

		lockedReservations: s.lockedReservations,
		insertErr:          s.insertErr,
	}
}

type fakeUoW struct {
	mu    sync.Mutex
	store *memStore
}

var _ repository.UnitOfWork = (*fakeUoW)(nil)

func newFakeUoW() *fakeUoW {
	return &fakeUoW{store: newMemStore()}
}

func (u *fakeUoW) Repos() *repository.Repositories {
	return reposFor(u.store)
}

func (u *fakeUoW) Do(_ context.Context, fn func(repos *repository.Repositories) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	tx := u.store.clone()
	if err := fn(reposFor(tx)); err != nil {
		return err
	}
	*u.store = *tx
	return nil
}

func reposFor(s *memStore) *repository.Repositories {
	return &repository.Repositories{
		Users:        &fakeUserRepo{s},
		Movies:       &fakeMovieRepo{s},
		Genres:       &fakeGenreRepo{s},
		Showtimes:    &fakeShowtimeRepo{s},
		Seats:        &fakeSeatRepo{s},
		Reservations: &fakeReservationRepo{s},
	}
}

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) WithTx(*gorm.DB) repository.UserRepo { return r }

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if r.s.insertErr != nil {
		return r.s.insertErr
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	r.s.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) ListAll(context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	r.s.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.users, id)
	return nil
}

type fakeGenreRepo struct{ s *memStore }

func (r *fakeGenreRepo) WithTx(*gorm.DB) repository.GenreRepo { return r }

func (r *fakeGenreRepo) Create(_ context.Context, g *model.Genre) error {
	if r.s.insertErr != nil {
		return r.s.insertErr
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	r.s.genres[g.ID] = *g
	return nil
}

func (r *fakeGenreRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Genre, error) {
	g, ok := r.s.genres[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &g, nil
}

func (r *fakeGenreRepo) GetByName(_ context.Context, name string) (*model.Genre, error) {
	for _, g := range r.s.genres {
		if strings.EqualFold(g.Name, name) {
			return &g, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeGenreRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]model.Genre, error) {
	var out []model.Genre
	for _, id := range ids {
		if g, ok := r.s.genres[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeGenreRepo) ListAll(context.Context) ([]model.Genre, error) {
	out := make([]model.Genre, 0, len(r.s.genres))
	for _, g := range r.s.genres {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeGenreRepo) Update(_ context.Context, g *model.Genre) error {
	r.s.genres[g.ID] = *g
	return nil
}

func (r *fakeGenreRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.genres[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.genres, id)
	for mid, m := range r.s.movies {
		kept := make([]model.Genre, 0, len(m.Genres))
		for _, g := range m.Genres {
			if g.ID != id {
				kept = append(kept, g)
			}
		}
		m.Genres = kept
		r.s.movies[mid] = m
	}
	return nil
}

type fakeMovieRepo struct{ s *memStore }

func (r *fakeMovieRepo) WithTx(*gorm.DB) repository.MovieRepo { return r }

func (r *fakeMovieRepo) Create(_ context.Context, m *model.Movie) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.s.movies[m.ID] = *m
	return nil
}

func (r *fakeMovieRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Movie, error) {
	m, ok := r.s.movies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &m, nil
}

func (r *fakeMovieRepo) filter(keep func(model.Movie) bool) []model.Movie {
	var out []model.Movie
	for _, m := range r.s.movies {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (r *fakeMovieRepo) ListAll(context.Context) ([]model.Movie, error) {
	return r.filter(func(model.Movie) bool { return true }), nil
}

func (r *fakeMovieRepo) ListByGenre(_ context.Context, genreID uuid.UUID) ([]model.Movie, error) {
	return r.filter(func(m model.Movie) bool {
		for _, g := range m.Genres {
			if g.ID == genreID {
				return true
			}
		}
		return false
	}), nil
}

func (r *fakeMovieRepo) SearchByTitle(_ context.Context, title string) ([]model.Movie, error) {
	return r.filter(func(m model.Movie) bool {
		return strings.Contains(strings.ToLower(m.Title), strings.ToLower(title))
	}), nil
}

func (r *fakeMovieRepo) Update(_ context.Context, m *model.Movie) error {
	stored := r.s.movies[m.ID]
	genres := stored.Genres
	stored = *m
	stored.Genres = genres
	r.s.movies[m.ID] = stored
	return nil
}

func (r *fakeMovieRepo) ReplaceGenres(_ context.Context, m *model.Movie, genres []model.Genre) error {
	stored := r.s.movies[m.ID]
	stored.Genres = append([]model.Genre(nil), genres...)
	r.s.movies[m.ID] = stored
	return nil
}

func (r *fakeMovieRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.movies[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.movies, id)
	return nil
}

func (r *fakeMovieRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, m := range r.s.movies {
		if m.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

type fakeShowtimeRepo struct{ s *memStore }

func (r *fakeShowtimeRepo) WithTx(*gorm.DB) repository.ShowtimeRepo { return r }

func (r *fakeShowtimeRepo) Create(_ context.Context, st *model.Showtime) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	stored := *st
	stored.Movie = model.Movie{}
	r.s.showtimes[st.ID] = stored
	return nil
}

func (r *fakeShowtimeRepo) load(st model.Showtime) model.Showtime {
	st.Movie = r.s.movies[st.MovieID]
	return st
}

func (r *fakeShowtimeRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Showtime, error) {
	st, ok := r.s.showtimes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	st = r.load(st)
	return &st, nil
}

func (r *fakeShowtimeRepo) filter(keep func(model.Showtime) bool) []model.Showtime {
	var out []model.Showtime
	for _, st := range r.s.showtimes {
		if keep(st) {
			out = append(out, r.load(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *fakeShowtimeRepo) ListAll(context.Context) ([]model.Showtime, error) {
	return r.filter(func(model.Showtime) bool { return true }), nil
}

func (r *fakeShowtimeRepo) ListByMovie(_ context.Context, movieID uuid.UUID) ([]model.Showtime, error) {
	return r.filter(func(st model.Showtime) bool { return st.MovieID == movieID }), nil
}

func (r *fakeShowtimeRepo) ListByDate(_ context.Context, day time.Time) ([]model.Showtime, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	return r.filter(func(st model.Showtime) bool {
		return !st.StartTime.Before(start) && st.StartTime.Before(end)
	}), nil
}

func (r *fakeShowtimeRepo) ListByHallBetween(_ context.Context, hall string, from, to time.Time) ([]model.Showtime, error) {
	return r.filter(func(st model.Showtime) bool {
		return st.Hall == hall && st.StartTime.After(from) && st.StartTime.Before(to)
	}), nil
}

func (r *fakeShowtimeRepo) CountByMovie(_ context.Context, movieID uuid.UUID) (int64, error) {
	var n int64
	for _, st := range r.s.showtimes {
		if st.MovieID == movieID {
			n++
		}
	}
	return n, nil
}

func (r *fakeShowtimeRepo) Update(_ context.Context, st *model.Showtime) error {
	stored := *st
	stored.Movie = model.Movie{}
	r.s.showtimes[st.ID] = stored
	return nil
}

func (r *fakeShowtimeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.showtimes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.showtimes, id)
	return nil
}

func (r *fakeShowtimeRepo) DeactivateEnded(_ context.Context, now time.Time) (int, error) {
	n := 0
	for id, st := range r.s.showtimes {
		if st.IsActive && st.EndTime.Before(now) {
			st.IsActive = false
			r.s.showtimes[id] = st
			n++
		}
	}
	return n, nil
}

type fakeSeatRepo struct{ s *memStore }

func (r *fakeSeatRepo) WithTx(*gorm.DB) repository.SeatRepo { return r }

func (r *fakeSeatRepo) CreateBatch(_ context.Context, seats []model.Seat) error {
	for _, seat := range seats {
		if seat.ID == uuid.Nil {
			seat.ID = uuid.New()
		}
		r.s.seats[seat.ID] = seat
	}
	return nil
}

func (r *fakeSeatRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Seat, error) {
	seat, ok := r.s.seats[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &seat, nil
}

func (r *fakeSeatRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]model.Seat, error) {
	var out []model.Seat
	for _, id := range ids {
		if seat, ok := r.s.seats[id]; ok {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *fakeSeatRepo) GetByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]model.Seat, error) {
	return r.GetByIDs(ctx, ids)
}

func (r *fakeSeatRepo) filter(keep func(model.Seat) bool) []model.Seat {
	var out []model.Seat
	for _, seat := range r.s.seats {
		if keep(seat) {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Number < out[j].Number
	})
	return out
}

func (r *fakeSeatRepo) ListByShowtime(_ context.Context, showtimeID uuid.UUID) ([]model.Seat, error) {
	return r.filter(func(s model.Seat) bool { return s.ShowtimeID == showtimeID }), nil
}

func (r *fakeSeatRepo) ListAvailableByShowtime(_ context.Context, showtimeID uuid.UUID) ([]model.Seat, error) {
	return r.filter(func(s model.Seat) bool {
		return s.ShowtimeID == showtimeID && s.IsAvailable && !s.IsReserved
	}), nil
}

func (r *fakeSeatRepo) CountByShowtime(ctx context.Context, showtimeID uuid.UUID) (int64, error) {
	seats, _ := r.ListByShowtime(ctx, showtimeID)
	return int64(len(seats)), nil
}

func (r *fakeSeatRepo) CountAvailableByShowtime(ctx context.Context, showtimeID uuid.UUID) (int64, error) {
	seats, _ := r.ListAvailableByShowtime(ctx, showtimeID)
	return int64(len(seats)), nil
}

func (r *fakeSeatRepo) SetReserved(_ context.Context, ids []uuid.UUID, reserved bool) error {
	for _, id := range ids {
		seat, ok := r.s.seats[id]
		if !ok {
			continue
		}
		seat.IsReserved = reserved
		r.s.seats[id] = seat
	}
	return nil
}

func (r *fakeSeatRepo) DeleteByShowtime(_ context.Context, showtimeID uuid.UUID) error {
	for id, seat := range r.s.seats {
		if seat.ShowtimeID == showtimeID {
			delete(r.s.seats, id)
		}
	}
	return nil
}

type fakeReservationRepo struct{ s *memStore }

func (r *fakeReservationRepo) WithTx(*gorm.DB) repository.ReservationRepo { return r }

func (r *fakeReservationRepo) Create(_ context.Context, res *model.Reservation) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	res.CreatedAt = time.Now()
	stored := *res
	stored.Seats = append([]model.ReservationSeat(nil), res.Seats...)
	r.s.reservations[res.ID] = stored
	return nil
}

func (r *fakeReservationRepo) load(res model.Reservation) model.Reservation {
	res.User = r.s.users[res.UserID]
	st := r.s.showtimes[res.ShowtimeID]
	st.Movie = r.s.movies[st.MovieID]
	res.Showtime = st
	seats := make([]model.ReservationSeat, 0, len(res.Seats))
	for _, rs := range res.Seats {
		rs.Seat = r.s.seats[rs.SeatID]
		seats = append(seats, rs)
	}
	res.Seats = seats
	return res
}

func (r *fakeReservationRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Reservation, error) {
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	res = r.load(res)
	return &res, nil
}

func (r *fakeReservationRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	*r.s.lockedReservations = append(*r.s.lockedReservations, id)
	return r.GetByID(ctx, id)
}

func (r *fakeReservationRepo) filter(keep func(model.Reservation) bool) []model.Reservation {
	var out []model.Reservation
	for _, res := range r.s.reservations {
		if keep(res) {
			out = append(out, r.load(res))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeReservationRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Reservation, error) {
	return r.filter(func(res model.Reservation) bool { return res.UserID == userID }), nil
}

func (r *fakeReservationRepo) ListByShowtime(_ context.Context, showtimeID uuid.UUID) ([]model.Reservation, error) {
	return r.filter(func(res model.Reservation) bool { return res.ShowtimeID == showtimeID }), nil
}

func (r *fakeReservationRepo) CountByShowtime(ctx context.Context, showtimeID uuid.UUID) (int64, error) {
	list, _ := r.ListByShowtime(ctx, showtimeID)
	return int64(len(list)), nil
}

func (r *fakeReservationRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	list, _ := r.ListByUser(ctx, userID)
	return int64(len(list)), nil
}

func (r *fakeReservationRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.ReservationStatus) error {
	res, ok := r.s.reservations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	res.Status = status
	r.s.reservations[id] = res
	return nil
}

func (r *fakeReservationRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.reservations[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.reservations, id)
	return nil
}

// fakeSeatCache records counters and holds in memory.
type fakeSeatCache struct {
	mu          sync.Mutex
	counts      map[uuid.UUID]int
	locks       map[uuid.UUID]string
	invalidated []uuid.UUID
	lockErr     error
	setErr      error
}

var _ SeatCache = (*fakeSeatCache)(nil)

func newFakeSeatCache() *fakeSeatCache {
	return &fakeSeatCache{counts: map[uuid.UUID]int{}, locks: map[uuid.UUID]string{}}
}

func (c *fakeSeatCache) GetAvailableSeats(_ context.Context, id uuid.UUID) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.counts[id]
	if !ok {
		return 0, cache.ErrCacheMiss
	}
	return n, nil
}

func (c *fakeSeatCache) SetAvailableSeats(_ context.Context, id uuid.UUID, count int, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.counts[id] = count
	return nil
}

func (c *fakeSeatCache) FillAvailableSeats(_ context.Context, id uuid.UUID, count int, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.counts[id]; ok {
		return false, nil
	}
	c.counts[id] = count
	return true, nil
}

func (c *fakeSeatCache) InvalidateAvailableSeats(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

func (c *fakeSeatCache) LockSeats(_ context.Context, _ uuid.UUID, seatIDs []uuid.UUID, owner string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lockErr != nil {
		return c.lockErr
	}
	for _, id := range seatIDs {
		if _, held := c.locks[id]; held {
			return cache.ErrSeatsLocked
		}
	}
	for _, id := range seatIDs {
		c.locks[id] = owner
	}
	return nil
}

func (c *fakeSeatCache) UnlockSeats(_ context.Context, _ uuid.UUID, seatIDs []uuid.UUID, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range seatIDs {
		if c.locks[id] == owner {
			delete(c.locks, id)
		}
	}
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []mq.ReservationEvent
}

func (p *fakePublisher) PublishReservationEvent(_ context.Context, event mq.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(user *model.User) (auth.AccessToken, error) {
	return auth.AccessToken{Token: "token-for-" + user.Email, ExpiresAt: time.Now().Add(time.Hour)}, nil
}
