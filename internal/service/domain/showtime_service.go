package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/cache"
	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/service"
)

// showtimeGap is the cleaning and seating buffer kept between two showtimes in one hall.
const showtimeGap = 30 * time.Minute

type ShowtimeService interface {
	GetAll(ctx context.Context, date *time.Time) ([]ShowtimeDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ShowtimeDTO, error)
	GetByMovie(ctx context.Context, movieID uuid.UUID) ([]ShowtimeDTO, error)
	Create(ctx context.Context, req CreateShowtimeRequest) (*ShowtimeDTO, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateShowtimeRequest) (*ShowtimeDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// AvailabilitySnapshot counts free seats of every active showtime, used to warm the cache.
	AvailabilitySnapshot(ctx context.Context) (map[uuid.UUID]int, error)
	RefreshAvailability(ctx context.Context, id uuid.UUID) (int, error)
	DeactivateEnded(ctx context.Context) (int, error)
}

type showtimeService struct {
	uow      repository.UnitOfWork
	cache    SeatCache
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

var _ ShowtimeService = (*showtimeService)(nil)

func NewShowtimeService(uow repository.UnitOfWork, seatCache SeatCache, cacheTTL time.Duration, logger *zap.Logger) *showtimeService {
	return &showtimeService{
		uow:      uow,
		cache:    seatCache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *showtimeService) GetAll(ctx context.Context, date *time.Time) ([]ShowtimeDTO, error) {
	repo := s.uow.Repos().Showtimes
	var (
		showtimes []model.Showtime
		err       error
	)
	if date != nil {
		showtimes, err = repo.ListByDate(ctx, *date)
	} else {
		showtimes, err = repo.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s.toDTOs(ctx, showtimes)
}

func (s *showtimeService) GetByID(ctx context.Context, id uuid.UUID) (*ShowtimeDTO, error) {
	showtime, err := s.uow.Repos().Showtimes.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Showtime", id)
	}
	available, err := s.availableSeats(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toShowtimeDTO(showtime, available)
	return &dto, nil
}

func (s *showtimeService) GetByMovie(ctx context.Context, movieID uuid.UUID) ([]ShowtimeDTO, error) {
	repos := s.uow.Repos()
	if _, err := repos.Movies.GetByID(ctx, movieID); err != nil {
		return nil, notFound(err, "Movie", movieID)
	}
	showtimes, err := repos.Showtimes.ListByMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(ctx, showtimes)
}

func (s *showtimeService) Create(ctx context.Context, req CreateShowtimeRequest) (*ShowtimeDTO, error) {
	if req.TotalRows < 1 || req.TotalRows > 26 {
		return nil, service.NewValidationError("totalRows", "Total rows must be between 1 and 26")
	}
	if req.SeatsPerRow < 1 {
		return nil, service.NewValidationError("seatsPerRow", "Seats per row must be greater than 0")
	}
	var showtime *model.Showtime
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		movie, err := r.Movies.GetByID(ctx, req.MovieID)
		if err != nil {
			return notFound(err, "Movie", req.MovieID)
		}
		start := req.StartTime.UTC()
		if err := checkHallConflict(ctx, r, req.Theater, start, movie.DurationMinutes, uuid.Nil); err != nil {
			return err
		}
		showtime = &model.Showtime{
			MovieID:    movie.ID,
			StartTime:  start,
			EndTime:    start.Add(time.Duration(movie.DurationMinutes) * time.Minute),
			Hall:       req.Theater,
			Price:      roundCents(req.Price),
			TotalSeats: req.TotalRows * req.SeatsPerRow,
			IsActive:   true,
		}
		if err := r.Showtimes.Create(ctx, showtime); err != nil {
			return err
		}
		showtime.Movie = *movie
		return r.Seats.CreateBatch(ctx, generateSeats(showtime.ID, req.TotalRows, req.SeatsPerRow))
	})
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetAvailableSeats(ctx, showtime.ID, showtime.TotalSeats, s.cacheTTL); err != nil {
		s.logger.Warn("failed to seed seat availability", zap.String("showtime_id", showtime.ID.String()), zap.Error(err))
	}
	dto := toShowtimeDTO(showtime, showtime.TotalSeats)
	return &dto, nil
}

func (s *showtimeService) Update(ctx context.Context, id uuid.UUID, req UpdateShowtimeRequest) (*ShowtimeDTO, error) {
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		showtime, err := r.Showtimes.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "Showtime", id)
		}
		start := req.StartTime.UTC()
		duration := showtime.Movie.DurationMinutes
		if err := checkHallConflict(ctx, r, req.Theater, start, duration, id); err != nil {
			return err
		}
		showtime.StartTime = start
		showtime.EndTime = start.Add(time.Duration(duration) * time.Minute)
		showtime.Hall = req.Theater
		showtime.Price = roundCents(req.Price)
		if req.IsActive != nil {
			showtime.IsActive = *req.IsActive
		}
		return r.Showtimes.Update(ctx, showtime)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *showtimeService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		if _, err := r.Showtimes.GetByID(ctx, id); err != nil {
			return notFound(err, "Showtime", id)
		}
		booked, err := r.Reservations.CountByShowtime(ctx, id)
		if err != nil {
			return err
		}
		if booked > 0 {
			return service.NewAppError("Showtime has %d reservation(s) and cannot be deleted", booked)
		}
		if err := r.Seats.DeleteByShowtime(ctx, id); err != nil {
			return err
		}
		return notFound(r.Showtimes.Delete(ctx, id), "Showtime", id)
	})
	if err != nil {
		return err
	}
	if err := s.cache.InvalidateAvailableSeats(ctx, id); err != nil {
		s.logger.Warn("failed to drop seat availability", zap.String("showtime_id", id.String()), zap.Error(err))
	}
	return nil
}

func (s *showtimeService) AvailabilitySnapshot(ctx context.Context) (map[uuid.UUID]int, error) {
	repos := s.uow.Repos()
	showtimes, err := repos.Showtimes.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int, len(showtimes))
	for _, st := range showtimes {
		if !st.IsActive {
			continue
		}
		n, err := repos.Seats.CountAvailableByShowtime(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		counts[st.ID] = int(n)
	}
	return counts, nil
}

func (s *showtimeService) RefreshAvailability(ctx context.Context, id uuid.UUID) (int, error) {
	n, err := s.uow.Repos().Seats.CountAvailableByShowtime(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetAvailableSeats(ctx, id, int(n), s.cacheTTL); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *showtimeService) DeactivateEnded(ctx context.Context) (int, error) {
	return s.uow.Repos().Showtimes.DeactivateEnded(ctx, s.now().UTC())
}

// availableSeats reads the cached counter and falls back to counting rows.
func (s *showtimeService) availableSeats(ctx context.Context, id uuid.UUID) (int, error) {
	n, err := s.cache.GetAvailableSeats(ctx, id)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("seat availability cache read failed", zap.String("showtime_id", id.String()), zap.Error(err))
	}
	count, err := s.uow.Repos().Seats.CountAvailableByShowtime(ctx, id)
	if err != nil {
		return 0, err
	}
	if _, err := s.cache.FillAvailableSeats(ctx, id, int(count), s.cacheTTL); err != nil {
		s.logger.Debug("seat availability cache write failed", zap.Error(err))
	}
	return int(count), nil
}

func (s *showtimeService) toDTOs(ctx context.Context, showtimes []model.Showtime) ([]ShowtimeDTO, error) {
	out := make([]ShowtimeDTO, 0, len(showtimes))
	for i := range showtimes {
		available, err := s.availableSeats(ctx, showtimes[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, toShowtimeDTO(&showtimes[i], available))
	}
	return out, nil
}

// checkHallConflict rejects a start time closer than the movie length plus showtimeGap
// to any other showtime in the same hall.
func checkHallConflict(ctx context.Context, r *repository.Repositories, hall string, start time.Time, durationMinutes int, self uuid.UUID) error {
	window := time.Duration(durationMinutes)*time.Minute + showtimeGap
	nearby, err := r.Showtimes.ListByHallBetween(ctx, hall, start.Add(-window), start.Add(window))
	if err != nil {
		return err
	}
	for _, other := range nearby {
		if other.ID == self {
			continue
		}
		return service.NewAppError(
			"Showtime conflicts with existing showtime in %s at %s. Please choose a different time or theater.",
			hall, other.StartTime.Format("2006-01-02 15:04"),
		)
	}
	return nil
}

func generateSeats(showtimeID uuid.UUID, rows, perRow int) []model.Seat {
	seats := make([]model.Seat, 0, rows*perRow)
	for i := 0; i < rows; i++ {
		row := string(rune('A' + i))
		for n := 1; n <= perRow; n++ {
			seats = append(seats, model.Seat{
				ID:          uuid.New(),
				ShowtimeID:  showtimeID,
				Row:         row,
				Number:      n,
				IsAvailable: true,
				Type:        model.SeatTypeRegular,
			})
		}
	}
	return seats
}
