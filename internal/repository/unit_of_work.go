package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups one repository per entity, all bound to the same connection or transaction.
type Repositories struct {
	Users        UserRepo
	Movies       MovieRepo
	Genres       GenreRepo
	Showtimes    ShowtimeRepo
	Seats        SeatRepo
	Reservations ReservationRepo
}

// UnitOfWork hands out repositories and commits everything done inside Do at once.
type UnitOfWork interface {
	Repos() *Repositories
	// Do runs fn with repositories bound to a single transaction.
	// A nil return commits, any error rolls every change back.
	Do(ctx context.Context, fn func(repos *Repositories) error) error
}

type unitOfWorkGorm struct {
	db    *gorm.DB
	repos *Repositories
}

var _ UnitOfWork = (*unitOfWorkGorm)(nil)

func NewUnitOfWorkGorm(db *gorm.DB) *unitOfWorkGorm {
	return &unitOfWorkGorm{
		db: db,
		repos: &Repositories{
			Users:        NewUserRepoGorm(db),
			Movies:       NewMovieRepoGorm(db),
			Genres:       NewGenreRepoGorm(db),
			Showtimes:    NewShowtimeRepoGorm(db),
			Seats:        NewSeatRepoGorm(db),
			Reservations: NewReservationRepoGorm(db),
		},
	}
}

func (u *unitOfWorkGorm) Repos() *Repositories {
	return u.repos
}

func (u *unitOfWorkGorm) Do(ctx context.Context, fn func(repos *Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(u.withTx(tx))
	})
}

func (u *unitOfWorkGorm) withTx(tx *gorm.DB) *Repositories {
	return &Repositories{
		Users:        u.repos.Users.WithTx(tx),
		Movies:       u.repos.Movies.WithTx(tx),
		Genres:       u.repos.Genres.WithTx(tx),
		Showtimes:    u.repos.Showtimes.WithTx(tx),
		Seats:        u.repos.Seats.WithTx(tx),
		Reservations: u.repos.Reservations.WithTx(tx),
	}
}
