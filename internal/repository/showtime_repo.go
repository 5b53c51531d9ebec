package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs-lzh/movie-booking/internal/model"
)

type ShowtimeRepo interface {
	WithTx(tx *gorm.DB) ShowtimeRepo
	Create(ctx context.Context, showtime *model.Showtime) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Showtime, error)
	ListAll(ctx context.Context) ([]model.Showtime, error)
	ListByMovie(ctx context.Context, movieID uuid.UUID) ([]model.Showtime, error)
	ListByDate(ctx context.Context, day time.Time) ([]model.Showtime, error)
	ListByHallBetween(ctx context.Context, hall string, from, to time.Time) ([]model.Showtime, error)
	CountByMovie(ctx context.Context, movieID uuid.UUID) (int64, error)
	Update(ctx context.Context, showtime *model.Showtime) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeactivateEnded(ctx context.Context, now time.Time) (int, error)
}

type showtimeRepoGorm struct {
	db *gorm.DB
}

var _ ShowtimeRepo = (*showtimeRepoGorm)(nil)

func NewShowtimeRepoGorm(db *gorm.DB) *showtimeRepoGorm {
	return &showtimeRepoGorm{
		db: db,
	}
}

func (r *showtimeRepoGorm) WithTx(tx *gorm.DB) ShowtimeRepo {
	return &showtimeRepoGorm{
		db: tx,
	}
}

func (r *showtimeRepoGorm) Create(ctx context.Context, showtime *model.Showtime) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(showtime).Error
}

func (r *showtimeRepoGorm) GetByID(ctx context.Context, id uuid.UUID) (*model.Showtime, error) {
	var showtime model.Showtime
	if err := r.db.WithContext(ctx).Preload("Movie").Where("id = ?", id).First(&showtime).Error; err != nil {
		return nil, err
	}
	return &showtime, nil
}

func (r *showtimeRepoGorm) ListAll(ctx context.Context) ([]model.Showtime, error) {
	return r.find(ctx, r.db.WithContext(ctx))
}

func (r *showtimeRepoGorm) ListByMovie(ctx context.Context, movieID uuid.UUID) ([]model.Showtime, error) {
	return r.find(ctx, r.db.WithContext(ctx).Where("movie_id = ?", movieID))
}

// ListByDate returns showtimes starting on the calendar day of day, in day's location.
func (r *showtimeRepoGorm) ListByDate(ctx context.Context, day time.Time) ([]model.Showtime, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	return r.find(ctx, r.db.WithContext(ctx).Where("start_time >= ? AND start_time < ?", start, end))
}

// ListByHallBetween returns showtimes in hall whose start lies strictly inside (from, to).
func (r *showtimeRepoGorm) ListByHallBetween(ctx context.Context, hall string, from, to time.Time) ([]model.Showtime, error) {
	return r.find(ctx, r.db.WithContext(ctx).Where("hall = ? AND start_time > ? AND start_time < ?", hall, from, to))
}

func (r *showtimeRepoGorm) find(_ context.Context, q *gorm.DB) ([]model.Showtime, error) {
	var showtimes []model.Showtime
	if err := q.Preload("Movie").Order("start_time").Find(&showtimes).Error; err != nil {
		return nil, err
	}
	return showtimes, nil
}

func (r *showtimeRepoGorm) CountByMovie(ctx context.Context, movieID uuid.UUID) (int64, error) {
	return gorm.G[model.Showtime](r.db).Where("movie_id = ?", movieID).Count(ctx, "*")
}

func (r *showtimeRepoGorm) Update(ctx context.Context, showtime *model.Showtime) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(showtime).Error
}

func (r *showtimeRepoGorm) Delete(ctx context.Context, id uuid.UUID) error {
	rows, err := gorm.G[model.Showtime](r.db).Where("id = ?", id).Delete(ctx)
	if err != nil {
		return err
	}
	if rows == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *showtimeRepoGorm) DeactivateEnded(ctx context.Context, now time.Time) (int, error) {
	return gorm.G[model.Showtime](r.db).
		Where("is_active = ? AND end_time < ?", true, now).
		Update(ctx, "is_active", false)
}
