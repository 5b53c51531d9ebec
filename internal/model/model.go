package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"size:50;not null;uniqueIndex:idx_users_username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:idx_users_email"`
	FullName     string    `gorm:"size:100"`
	PasswordHash string    `gorm:"not null"`
	IsAdmin      bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type UserRole string

const (
	RoleUser  UserRole = "User"
	RoleAdmin UserRole = "Admin"
)

func (u *User) Role() UserRole {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

type Movie struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title           string    `gorm:"size:200;not null"`
	Slug            string    `gorm:"size:220;not null;uniqueIndex:idx_movies_slug"`
	Description     string    `gorm:"type:text"`
	PosterImage     string    `gorm:"size:500"`
	DurationMinutes int       `gorm:"not null;check:duration_minutes > 0"`
	Genres          []Genre   `gorm:"many2many:movie_genres;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (m *Movie) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Genre struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"size:50;not null;uniqueIndex:idx_genres_name"`
}

func (g *Genre) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// MovieGenre is the join row between Movie and Genre.
type MovieGenre struct {
	MovieID uuid.UUID `gorm:"type:uuid;primaryKey"`
	GenreID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (MovieGenre) TableName() string {
	return "movie_genres"
}

type Showtime struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MovieID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Movie      Movie     `gorm:"constraint:OnDelete:RESTRICT"`
	StartTime  time.Time `gorm:"not null;index"`
	EndTime    time.Time `gorm:"not null"`
	Hall       string    `gorm:"size:50;not null;index"`
	Price      float64   `gorm:"type:decimal(10,2);not null"`
	TotalSeats int       `gorm:"not null"`
	IsActive   bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (s *Showtime) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type SeatType string

const (
	SeatTypeRegular    SeatType = "Regular"
	SeatTypePremium    SeatType = "Premium"
	SeatTypeAccessible SeatType = "Accessible"
)

type Seat struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShowtimeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_seat_position"`
	Row         string    `gorm:"size:2;not null;uniqueIndex:idx_seat_position"`
	Number      int       `gorm:"not null;uniqueIndex:idx_seat_position"`
	IsReserved  bool      `gorm:"not null;default:false"`
	IsAvailable bool      `gorm:"not null;default:true"`
	Type        SeatType  `gorm:"type:varchar(16);not null;default:Regular"`
}

func (s *Seat) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Label is the human readable position, e.g. "C7".
func (s *Seat) Label() string {
	return s.Row + strconv.Itoa(s.Number)
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "Pending"
	ReservationConfirmed ReservationStatus = "Confirmed"
	ReservationCancelled ReservationStatus = "Cancelled"
)

type Reservation struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	User            User              `gorm:"constraint:OnDelete:RESTRICT"`
	ShowtimeID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	Showtime        Showtime          `gorm:"constraint:OnDelete:RESTRICT"`
	ReservationDate time.Time         `gorm:"not null"`
	TotalPrice      float64           `gorm:"type:decimal(10,2);not null"`
	Status          ReservationStatus `gorm:"type:varchar(16);not null"`
	Seats           []ReservationSeat
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// SeatIDs lists the seats held by the reservation.
func (r *Reservation) SeatIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Seats))
	for _, rs := range r.Seats {
		ids = append(ids, rs.SeatID)
	}
	return ids
}

type ReservationSeat struct {
	ReservationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	SeatID        uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Seat          Seat      `gorm:"constraint:OnDelete:RESTRICT"`
}

// AutoMigrate creates or updates every table in dependency order.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Movie{}, "Genres", &MovieGenre{}); err != nil {
		return err
	}
	return db.AutoMigrate(All()...)
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&User{},
		&Genre{},
		&Movie{},
		&MovieGenre{},
		&Showtime{},
		&Seat{},
		&Reservation{},
		&ReservationSeat{},
	}
}
