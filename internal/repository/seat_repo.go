package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs-lzh/movie-booking/internal/model"
)

type SeatRepo interface {
	WithTx(tx *gorm.DB) SeatRepo
	CreateBatch(ctx context.Context, seats []model.Seat) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Seat, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Seat, error)
	GetByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]model.Seat, error)
	ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]model.Seat, error)
	ListAvailableByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]model.Seat, error)
	CountByShowtime(ctx context.Context, showtimeID uuid.UUID) (int64, error)
	CountAvailableByShowtime(ctx context.Context, showtimeID uuid.UUID) (int64, error)
	SetReserved(ctx context.Context, ids []uuid.UUID, reserved bool) error
	DeleteByShowtime(ctx context.Context, showtimeID uuid.UUID) error
}

const seatBatchSize = 200

type seatRepoGorm struct {
	db *gorm.DB
}

var _ SeatRepo = (*seatRepoGorm)(nil)

func NewSeatRepoGorm(db *gorm.DB) *seatRepoGorm {
	return &seatRepoGorm{
		db: db,
	}
}

func (r *seatRepoGorm) WithTx(tx *gorm.DB) SeatRepo {
	return &seatRepoGorm{
		db: tx,
	}
}

func (r *seatRepoGorm) CreateBatch(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	return gorm.G[model.Seat](r.db).CreateInBatches(ctx, &seats, seatBatchSize)
}

func (r *seatRepoGorm) GetByID(ctx context.Context, id uuid.UUID) (*model.Seat, error) {
	seat, err := gorm.G[model.Seat](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *seatRepoGorm) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return gorm.G[model.Seat](r.db).Where("id IN ?", ids).Order(`"row", number`).Find(ctx)
}

// GetByIDsForUpdate row-locks the seats until the surrounding transaction ends.
// Rows are locked in id order so concurrent bookings cannot deadlock.
func (r *seatRepoGorm) GetByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var seats []model.Seat
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&seats).Error
	if err != nil {
		return nil, err
	}
	return seats, nil
}

func (r *seatRepoGorm) ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]model.Seat, error) {
	return gorm.G[model.Seat](r.db).Where("showtime_id = ?", showtimeID).Order(`"row", number`).Find(ctx)
}

func (r *seatRepoGorm) ListAvailableByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]model.Seat, error) {
	return gorm.G[model.Seat](r.db).
		Where("showtime_id = ? AND is_reserved = ? AND is_available = ?", showtimeID, false, true).
		Order(`"row", number`).
		Find(ctx)
}

func (r *seatRepoGorm) CountByShowtime(ctx context.Context, showtimeID uuid.UUID) (int64, error) {
	return gorm.G[model.Seat](r.db).Where("showtime_id = ?", showtimeID).Count(ctx, "*")
}

func (r *seatRepoGorm) CountAvailableByShowtime(ctx context.Context, showtimeID uuid.UUID) (int64, error) {
	return gorm.G[model.Seat](r.db).
		Where("showtime_id = ? AND is_reserved = ? AND is_available = ?", showtimeID, false, true).
		Count(ctx, "*")
}

func (r *seatRepoGorm) SetReserved(ctx context.Context, ids []uuid.UUID, reserved bool) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := gorm.G[model.Seat](r.db).Where("id IN ?", ids).Update(ctx, "is_reserved", reserved)
	return err
}

func (r *seatRepoGorm) DeleteByShowtime(ctx context.Context, showtimeID uuid.UUID) error {
	_, err := gorm.G[model.Seat](r.db).Where("showtime_id = ?", showtimeID).Delete(ctx)
	return err
}
