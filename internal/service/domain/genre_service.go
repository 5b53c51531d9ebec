package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/service"
)

type GenreService interface {
	GetAll(ctx context.Context) ([]GenreDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*GenreDTO, error)
	Create(ctx context.Context, req GenreRequest) (*GenreDTO, error)
	Update(ctx context.Context, id uuid.UUID, req GenreRequest) (*GenreDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type genreService struct {
	uow repository.UnitOfWork
}

var _ GenreService = (*genreService)(nil)

func NewGenreService(uow repository.UnitOfWork) *genreService {
	return &genreService{uow: uow}
}

func (s *genreService) GetAll(ctx context.Context) ([]GenreDTO, error) {
	genres, err := s.uow.Repos().Genres.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GenreDTO, 0, len(genres))
	for i := range genres {
		out = append(out, toGenreDTO(&genres[i]))
	}
	return out, nil
}

func (s *genreService) GetByID(ctx context.Context, id uuid.UUID) (*GenreDTO, error) {
	genre, err := s.uow.Repos().Genres.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Genre", id)
	}
	dto := toGenreDTO(genre)
	return &dto, nil
}

func (s *genreService) Create(ctx context.Context, req GenreRequest) (*GenreDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, service.NewValidationError("name", "Name is required")
	}
	genre := &model.Genre{Name: name}
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		if err := ensureGenreNameFree(ctx, r, name, uuid.Nil); err != nil {
			return err
		}
		return r.Genres.Create(ctx, genre)
	})
	if _, dup := repository.DuplicateKey(err); dup {
		return nil, service.NewAppError("Genre '%s' already exists", name)
	}
	if err != nil {
		return nil, err
	}
	dto := toGenreDTO(genre)
	return &dto, nil
}

func (s *genreService) Update(ctx context.Context, id uuid.UUID, req GenreRequest) (*GenreDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, service.NewValidationError("name", "Name is required")
	}
	var genre *model.Genre
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		var err error
		genre, err = r.Genres.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "Genre", id)
		}
		if err := ensureGenreNameFree(ctx, r, name, id); err != nil {
			return err
		}
		genre.Name = name
		return r.Genres.Update(ctx, genre)
	})
	if _, dup := repository.DuplicateKey(err); dup {
		return nil, service.NewAppError("Genre '%s' already exists", name)
	}
	if err != nil {
		return nil, err
	}
	dto := toGenreDTO(genre)
	return &dto, nil
}

func (s *genreService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.uow.Repos().Genres.Delete(ctx, id); err != nil {
		return notFound(err, "Genre", id)
	}
	return nil
}

func ensureGenreNameFree(ctx context.Context, r *repository.Repositories, name string, self uuid.UUID) error {
	existing, err := r.Genres.GetByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return service.NewAppError("Genre '%s' already exists", name)
	}
	return nil
}
