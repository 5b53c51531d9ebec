package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs-lzh/movie-booking/internal/model"
)

type GenreRepo interface {
	WithTx(tx *gorm.DB) GenreRepo
	Create(ctx context.Context, genre *model.Genre) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Genre, error)
	GetByName(ctx context.Context, name string) (*model.Genre, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Genre, error)
	ListAll(ctx context.Context) ([]model.Genre, error)
	Update(ctx context.Context, genre *model.Genre) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type genreRepoGorm struct {
	db *gorm.DB
}

var _ GenreRepo = (*genreRepoGorm)(nil)

func NewGenreRepoGorm(db *gorm.DB) *genreRepoGorm {
	return &genreRepoGorm{
		db: db,
	}
}

func (r *genreRepoGorm) WithTx(tx *gorm.DB) GenreRepo {
	return &genreRepoGorm{
		db: tx,
	}
}

func (r *genreRepoGorm) Create(ctx context.Context, genre *model.Genre) error {
	return gorm.G[model.Genre](r.db).Create(ctx, genre)
}

func (r *genreRepoGorm) GetByID(ctx context.Context, id uuid.UUID) (*model.Genre, error) {
	genre, err := gorm.G[model.Genre](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, err
	}
	return &genre, nil
}

func (r *genreRepoGorm) GetByName(ctx context.Context, name string) (*model.Genre, error) {
	genre, err := gorm.G[model.Genre](r.db).Where("LOWER(name) = LOWER(?)", name).First(ctx)
	if err != nil {
		return nil, err
	}
	return &genre, nil
}

func (r *genreRepoGorm) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Genre, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return gorm.G[model.Genre](r.db).Where("id IN ?", ids).Find(ctx)
}

func (r *genreRepoGorm) ListAll(ctx context.Context) ([]model.Genre, error) {
	return gorm.G[model.Genre](r.db).Order("name").Find(ctx)
}

func (r *genreRepoGorm) Update(ctx context.Context, genre *model.Genre) error {
	_, err := gorm.G[model.Genre](r.db).Where("id = ?", genre.ID).Update(ctx, "name", genre.Name)
	return err
}

func (r *genreRepoGorm) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := gorm.G[model.MovieGenre](r.db).Where("genre_id = ?", id).Delete(ctx); err != nil {
		return err
	}
	rows, err := gorm.G[model.Genre](r.db).Where("id = ?", id).Delete(ctx)
	if err != nil {
		return err
	}
	if rows == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
