package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs-lzh/movie-booking/internal/model"
)

type ReservationRepo interface {
	WithTx(tx *gorm.DB) ReservationRepo
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Reservation, error)
	ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]model.Reservation, error)
	CountByShowtime(ctx context.Context, showtimeID uuid.UUID) (int64, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReservationStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type reservationRepoGorm struct {
	db *gorm.DB
}

var _ ReservationRepo = (*reservationRepoGorm)(nil)

func NewReservationRepoGorm(db *gorm.DB) *reservationRepoGorm {
	return &reservationRepoGorm{
		db: db,
	}
}

func (r *reservationRepoGorm) WithTx(tx *gorm.DB) ReservationRepo {
	return &reservationRepoGorm{
		db: tx,
	}
}

// Create inserts the reservation row and one reservation_seats row per seat.
func (r *reservationRepoGorm) Create(ctx context.Context, reservation *model.Reservation) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(reservation).Error; err != nil {
		return err
	}
	if len(reservation.Seats) == 0 {
		return nil
	}
	for i := range reservation.Seats {
		reservation.Seats[i].ReservationID = reservation.ID
	}
	return db.Omit(clause.Associations).Create(&reservation.Seats).Error
}

func (r *reservationRepoGorm) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Showtime.Movie").
		Preload("Seats.Seat")
}

func (r *reservationRepoGorm) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var reservation model.Reservation
	if err := r.preloaded(ctx).Where("id = ?", id).First(&reservation).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// GetByIDForUpdate locks the reservation row until the transaction ends, then loads it.
// The lock is taken on a plain select because FOR UPDATE does not reach the preload queries.
func (r *reservationRepoGorm) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var locked model.Reservation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		First(&locked).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *reservationRepoGorm) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := r.preloaded(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepoGorm) ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := r.preloaded(ctx).Where("showtime_id = ?", showtimeID).Order("created_at DESC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepoGorm) CountByShowtime(ctx context.Context, showtimeID uuid.UUID) (int64, error) {
	return gorm.G[model.Reservation](r.db).Where("showtime_id = ?", showtimeID).Count(ctx, "*")
}

func (r *reservationRepoGorm) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return gorm.G[model.Reservation](r.db).Where("user_id = ?", userID).Count(ctx, "*")
}

func (r *reservationRepoGorm) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReservationStatus) error {
	rows, err := gorm.G[model.Reservation](r.db).Where("id = ?", id).Update(ctx, "status", status)
	if err != nil {
		return err
	}
	if rows == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the seat links first; the schema does not cascade.
func (r *reservationRepoGorm) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := gorm.G[model.ReservationSeat](r.db).Where("reservation_id = ?", id).Delete(ctx); err != nil {
		return err
	}
	rows, err := gorm.G[model.Reservation](r.db).Where("id = ?", id).Delete(ctx)
	if err != nil {
		return err
	}
	if rows == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
