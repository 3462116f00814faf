package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"yamdb/internal/model"
)

// CategoryRepository defines category persistence operations.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindBySlug(ctx context.Context, slug string) (*model.Category, error)
	List(ctx context.Context, search string) ([]model.Category, error)
	DeleteBySlug(ctx context.Context, slug string) error
}

// GenreRepository defines genre persistence operations.
type GenreRepository interface {
	Create(ctx context.Context, genre *model.Genre) error
	FindBySlug(ctx context.Context, slug string) (*model.Genre, error)
	FindBySlugs(ctx context.Context, slugs []string) ([]model.Genre, error)
	List(ctx context.Context, search string) ([]model.Genre, error)
	DeleteBySlug(ctx context.Context, slug string) error
}

// classifierStore implements the operations categories and genres share.
type classifierStore[T model.Category | model.Genre] struct {
	db *gorm.DB
}

func (s classifierStore[T]) create(ctx context.Context, item *T) error {
	return translateWriteError(s.db.WithContext(ctx).Create(item).Error)
}

func (s classifierStore[T]) findBySlug(ctx context.Context, slug string) (*T, error) {
	var item T
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s classifierStore[T]) list(ctx context.Context, search string) ([]T, error) {
	q := s.db.WithContext(ctx).Order("name")
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(search))
	}

	var items []T
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

type categoryRepository struct {
	classifierStore[model.Category]
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{classifierStore[model.Category]{db: db}}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.create(ctx, category)
}

func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*model.Category, error) {
	return r.findBySlug(ctx, slug)
}

func (r *categoryRepository) List(ctx context.Context, search string) ([]model.Category, error) {
	return r.list(ctx, search)
}

// DeleteBySlug removes a category; its titles stay, uncategorised.
func (r *categoryRepository) DeleteBySlug(ctx context.Context, slug string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category model.Category
		if err := tx.Where("slug = ?", slug).First(&category).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Title{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
}

type genreRepository struct {
	classifierStore[model.Genre]
}

// NewGenreRepository creates a new genre repository.
func NewGenreRepository(db *gorm.DB) GenreRepository {
	return &genreRepository{classifierStore[model.Genre]{db: db}}
}

func (r *genreRepository) Create(ctx context.Context, genre *model.Genre) error {
	return r.create(ctx, genre)
}

func (r *genreRepository) FindBySlug(ctx context.Context, slug string) (*model.Genre, error) {
	return r.findBySlug(ctx, slug)
}

// FindBySlugs returns the genres matching slugs; unknown slugs are skipped.
func (r *genreRepository) FindBySlugs(ctx context.Context, slugs []string) ([]model.Genre, error) {
	var genres []model.Genre
	if len(slugs) == 0 {
		return genres, nil
	}
	if err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&genres).Error; err != nil {
		return nil, err
	}
	return genres, nil
}

func (r *genreRepository) List(ctx context.Context, search string) ([]model.Genre, error) {
	return r.list(ctx, search)
}

// DeleteBySlug removes a genre and its title links.
func (r *genreRepository) DeleteBySlug(ctx context.Context, slug string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var genre model.Genre
		if err := tx.Where("slug = ?", slug).First(&genre).Error; err != nil {
			return err
		}
		if err := tx.Where("genre_id = ?", genre.ID).Delete(&model.GenreTitle{}).Error; err != nil {
			return err
		}
		return tx.Delete(&genre).Error
	})
}
