package domain

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/service"
	"github.com/qs-lzh/movie-booking/internal/util"
)

type MovieService interface {
	GetAll(ctx context.Context) ([]MovieDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*MovieDTO, error)
	GetByGenre(ctx context.Context, genreID uuid.UUID) ([]MovieDTO, error)
	Search(ctx context.Context, title string) ([]MovieDTO, error)
	Create(ctx context.Context, req MovieRequest) (*MovieDTO, error)
	Update(ctx context.Context, id uuid.UUID, req MovieRequest) (*MovieDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type movieService struct {
	uow repository.UnitOfWork
}

var _ MovieService = (*movieService)(nil)

func NewMovieService(uow repository.UnitOfWork) *movieService {
	return &movieService{uow: uow}
}

func (s *movieService) GetAll(ctx context.Context) ([]MovieDTO, error) {
	movies, err := s.uow.Repos().Movies.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return toMovieDTOs(movies), nil
}

func (s *movieService) GetByID(ctx context.Context, id uuid.UUID) (*MovieDTO, error) {
	movie, err := s.uow.Repos().Movies.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Movie", id)
	}
	dto := toMovieDTO(movie)
	return &dto, nil
}

func (s *movieService) GetByGenre(ctx context.Context, genreID uuid.UUID) ([]MovieDTO, error) {
	repos := s.uow.Repos()
	if _, err := repos.Genres.GetByID(ctx, genreID); err != nil {
		return nil, notFound(err, "Genre", genreID)
	}
	movies, err := repos.Movies.ListByGenre(ctx, genreID)
	if err != nil {
		return nil, err
	}
	return toMovieDTOs(movies), nil
}

func (s *movieService) Search(ctx context.Context, title string) ([]MovieDTO, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, service.NewValidationError("title", "Title is required")
	}
	movies, err := s.uow.Repos().Movies.SearchByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	return toMovieDTOs(movies), nil
}

func (s *movieService) Create(ctx context.Context, req MovieRequest) (*MovieDTO, error) {
	var movie *model.Movie
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		genres, err := loadGenres(ctx, r, req.GenreIDs)
		if err != nil {
			return err
		}
		slug, err := util.UniqueSlug(req.Title, func(candidate string) (bool, error) {
			return r.Movies.SlugExists(ctx, candidate)
		})
		if err != nil {
			return err
		}
		movie = &model.Movie{
			Title:           strings.TrimSpace(req.Title),
			Slug:            slug,
			Description:     req.Description,
			PosterImage:     req.PosterImage,
			DurationMinutes: req.DurationMinutes,
			Genres:          genres,
		}
		return r.Movies.Create(ctx, movie)
	})
	if err != nil {
		return nil, err
	}
	dto := toMovieDTO(movie)
	return &dto, nil
}

func (s *movieService) Update(ctx context.Context, id uuid.UUID, req MovieRequest) (*MovieDTO, error) {
	var movie *model.Movie
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		var err error
		movie, err = r.Movies.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "Movie", id)
		}
		genres, err := loadGenres(ctx, r, req.GenreIDs)
		if err != nil {
			return err
		}
		title := strings.TrimSpace(req.Title)
		if title != movie.Title {
			slug, err := util.UniqueSlug(title, func(candidate string) (bool, error) {
				if candidate == movie.Slug {
					return false, nil
				}
				return r.Movies.SlugExists(ctx, candidate)
			})
			if err != nil {
				return err
			}
			movie.Slug = slug
		}
		movie.Title = title
		movie.Description = req.Description
		movie.PosterImage = req.PosterImage
		movie.DurationMinutes = req.DurationMinutes
		if err := r.Movies.Update(ctx, movie); err != nil {
			return err
		}
		if err := r.Movies.ReplaceGenres(ctx, movie, genres); err != nil {
			return err
		}
		movie.Genres = genres
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toMovieDTO(movie)
	return &dto, nil
}

func (s *movieService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.uow.Do(ctx, func(r *repository.Repositories) error {
		if _, err := r.Movies.GetByID(ctx, id); err != nil {
			return notFound(err, "Movie", id)
		}
		scheduled, err := r.Showtimes.CountByMovie(ctx, id)
		if err != nil {
			return err
		}
		if scheduled > 0 {
			return service.NewAppError("Movie has %d showtime(s) and cannot be deleted", scheduled)
		}
		return notFound(r.Movies.Delete(ctx, id), "Movie", id)
	})
}

// loadGenres resolves every id or fails naming the first unknown one.
func loadGenres(ctx context.Context, r *repository.Repositories, ids []uuid.UUID) ([]model.Genre, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, service.NewValidationError("genreIds", "At least one genre is required")
	}
	genres, err := r.Genres.GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(genres) == len(unique) {
		return genres, nil
	}
	found := make(map[uuid.UUID]struct{}, len(genres))
	for _, g := range genres {
		found[g.ID] = struct{}{}
	}
	for _, id := range unique {
		if _, ok := found[id]; !ok {
			return nil, service.NewNotFoundError("Genre", id)
		}
	}
	return genres, nil
}

func toMovieDTOs(movies []model.Movie) []MovieDTO {
	out := make([]MovieDTO, 0, len(movies))
	for i := range movies {
		out = append(out, toMovieDTO(&movies[i]))
	}
	return out
}
