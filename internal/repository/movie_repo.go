package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs-lzh/movie-booking/internal/model"
)

type MovieRepo interface {
	WithTx(tx *gorm.DB) MovieRepo
	Create(ctx context.Context, movie *model.Movie) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Movie, error)
	ListAll(ctx context.Context) ([]model.Movie, error)
	ListByGenre(ctx context.Context, genreID uuid.UUID) ([]model.Movie, error)
	SearchByTitle(ctx context.Context, title string) ([]model.Movie, error)
	Update(ctx context.Context, movie *model.Movie) error
	ReplaceGenres(ctx context.Context, movie *model.Movie, genres []model.Genre) error
	Delete(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type movieRepoGorm struct {
	db *gorm.DB
}

var _ MovieRepo = (*movieRepoGorm)(nil)

func NewMovieRepoGorm(db *gorm.DB) *movieRepoGorm {
	return &movieRepoGorm{
		db: db,
	}
}

func (r *movieRepoGorm) WithTx(tx *gorm.DB) MovieRepo {
	return &movieRepoGorm{
		db: tx,
	}
}

// Create inserts the movie and its genre links. Genres must already exist.
func (r *movieRepoGorm) Create(ctx context.Context, movie *model.Movie) error {
	return r.db.WithContext(ctx).Omit("Genres.*").Create(movie).Error
}

func (r *movieRepoGorm) GetByID(ctx context.Context, id uuid.UUID) (*model.Movie, error) {
	var movie model.Movie
	if err := r.db.WithContext(ctx).Preload("Genres").Where("id = ?", id).First(&movie).Error; err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *movieRepoGorm) ListAll(ctx context.Context) ([]model.Movie, error) {
	var movies []model.Movie
	if err := r.db.WithContext(ctx).Preload("Genres").Order("title").Find(&movies).Error; err != nil {
		return nil, err
	}
	return movies, nil
}

func (r *movieRepoGorm) ListByGenre(ctx context.Context, genreID uuid.UUID) ([]model.Movie, error) {
	var movies []model.Movie
	err := r.db.WithContext(ctx).
		Preload("Genres").
		Where("id IN (?)", r.db.Model(&model.MovieGenre{}).Select("movie_id").Where("genre_id = ?", genreID)).
		Order("title").
		Find(&movies).Error
	if err != nil {
		return nil, err
	}
	return movies, nil
}

func (r *movieRepoGorm) SearchByTitle(ctx context.Context, title string) ([]model.Movie, error) {
	var movies []model.Movie
	err := r.db.WithContext(ctx).
		Preload("Genres").
		Where("title ILIKE ?", "%"+title+"%").
		Order("title").
		Find(&movies).Error
	if err != nil {
		return nil, err
	}
	return movies, nil
}

func (r *movieRepoGorm) Update(ctx context.Context, movie *model.Movie) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(movie).Error
}

func (r *movieRepoGorm) ReplaceGenres(ctx context.Context, movie *model.Movie, genres []model.Genre) error {
	if err := r.db.WithContext(ctx).Model(movie).Omit("Genres.*").Association("Genres").Replace(genres); err != nil {
		return err
	}
	movie.Genres = genres
	return nil
}

func (r *movieRepoGorm) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := gorm.G[model.MovieGenre](r.db).Where("movie_id = ?", id).Delete(ctx); err != nil {
		return err
	}
	rows, err := gorm.G[model.Movie](r.db).Where("id = ?", id).Delete(ctx)
	if err != nil {
		return err
	}
	if rows == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *movieRepoGorm) SlugExists(ctx context.Context, slug string) (bool, error) {
	count, err := gorm.G[model.Movie](r.db).Where("slug = ?", slug).Count(ctx, "*")
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
