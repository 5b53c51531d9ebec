package domain

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/qs-lzh/movie-booking/internal/model"
)

type GenreDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type GenreRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

type MovieDTO struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Description     string     `json:"description"`
	PosterImage     string     `json:"posterImage"`
	DurationMinutes int        `json:"durationMinutes"`
	Genres          []GenreDTO `json:"genres"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// MovieRequest is used for both create and update; update replaces the genre list.
type MovieRequest struct {
	Title           string      `json:"title" validate:"required,max=200"`
	Description     string      `json:"description" validate:"required"`
	PosterImage     string      `json:"posterImage" validate:"omitempty,url,max=500"`
	DurationMinutes int         `json:"durationMinutes" validate:"gt=0"`
	GenreIDs        []uuid.UUID `json:"genreIds" validate:"required,min=1"`
}

type ShowtimeDTO struct {
	ID             uuid.UUID `json:"id"`
	MovieID        uuid.UUID `json:"movieId"`
	MovieTitle     string    `json:"movieTitle"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	Price          float64   `json:"price"`
	Theater        string    `json:"theater"`
	IsActive       bool      `json:"isActive"`
	AvailableSeats int       `json:"availableSeats"`
	TotalSeats     int       `json:"totalSeats"`
}

type CreateShowtimeRequest struct {
	MovieID     uuid.UUID `json:"movieId" validate:"required"`
	StartTime   time.Time `json:"startTime" validate:"required,future"`
	Price       float64   `json:"price" validate:"gt=0"`
	Theater     string    `json:"theater" validate:"required,max=50"`
	TotalRows   int       `json:"totalRows" validate:"min=1,max=26"`
	SeatsPerRow int       `json:"seatsPerRow" validate:"min=1,max=30"`
}

type UpdateShowtimeRequest struct {
	StartTime time.Time `json:"startTime" validate:"required,future"`
	Price     float64   `json:"price" validate:"gt=0"`
	Theater   string    `json:"theater" validate:"required,max=50"`
	IsActive  *bool     `json:"isActive"`
}

type SeatDTO struct {
	ID          uuid.UUID      `json:"id"`
	ShowtimeID  uuid.UUID      `json:"showtimeId"`
	Row         string         `json:"row"`
	Number      int            `json:"seatNumber"`
	IsReserved  bool           `json:"isReserved"`
	IsAvailable bool           `json:"isAvailable"`
	Type        model.SeatType `json:"type"`
}

type ReservationDTO struct {
	ID            uuid.UUID               `json:"id"`
	UserID        uuid.UUID               `json:"userId"`
	UserName      string                  `json:"userName"`
	ShowtimeID    uuid.UUID               `json:"showtimeId"`
	MovieTitle    string                  `json:"movieTitle"`
	ShowtimeStart time.Time               `json:"showtimeStart"`
	TotalPrice    float64                 `json:"totalPrice"`
	Status        model.ReservationStatus `json:"status"`
	CreatedAt     time.Time               `json:"createdAt"`
	Seats         []SeatDTO               `json:"seats"`
}

type CreateReservationRequest struct {
	UserID     uuid.UUID   `json:"userId"`
	ShowtimeID uuid.UUID   `json:"showtimeId" validate:"required"`
	SeatIDs    []uuid.UUID `json:"seatIds" validate:"required,min=1"`
}

type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"userName"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	IsAdmin   bool      `json:"isAdmin"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Username string `json:"userName" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
	FullName string `json:"fullName" validate:"max=100"`
}

type UpdateProfileRequest struct {
	Email           string `json:"email" validate:"omitempty,email"`
	FullName        string `json:"fullName" validate:"omitempty,max=100"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

func toGenreDTO(g *model.Genre) GenreDTO {
	return GenreDTO{ID: g.ID, Name: g.Name}
}

func toMovieDTO(m *model.Movie) MovieDTO {
	var dto MovieDTO
	_ = copier.Copy(&dto, m)
	if dto.Genres == nil {
		dto.Genres = []GenreDTO{}
	}
	sort.Slice(dto.Genres, func(i, j int) bool { return dto.Genres[i].Name < dto.Genres[j].Name })
	return dto
}

func toShowtimeDTO(s *model.Showtime, available int) ShowtimeDTO {
	return ShowtimeDTO{
		ID:             s.ID,
		MovieID:        s.MovieID,
		MovieTitle:     s.Movie.Title,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Price:          s.Price,
		Theater:        s.Hall,
		IsActive:       s.IsActive,
		AvailableSeats: available,
		TotalSeats:     s.TotalSeats,
	}
}

func toSeatDTO(s *model.Seat) SeatDTO {
	var dto SeatDTO
	_ = copier.Copy(&dto, s)
	return dto
}

func toSeatDTOs(seats []model.Seat) []SeatDTO {
	out := make([]SeatDTO, 0, len(seats))
	for i := range seats {
		out = append(out, toSeatDTO(&seats[i]))
	}
	return out
}

func toReservationDTO(r *model.Reservation) ReservationDTO {
	seats := make([]SeatDTO, 0, len(r.Seats))
	for i := range r.Seats {
		seats = append(seats, toSeatDTO(&r.Seats[i].Seat))
	}
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Number < seats[j].Number
	})
	return ReservationDTO{
		ID:            r.ID,
		UserID:        r.UserID,
		UserName:      r.User.Username,
		ShowtimeID:    r.ShowtimeID,
		MovieTitle:    r.Showtime.Movie.Title,
		ShowtimeStart: r.Showtime.StartTime,
		TotalPrice:    r.TotalPrice,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		Seats:         seats,
	}
}

func toUserDTO(u *model.User) UserDTO {
	var dto UserDTO
	_ = copier.Copy(&dto, u)
	dto.Roles = []string{string(u.Role())}
	return dto
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
