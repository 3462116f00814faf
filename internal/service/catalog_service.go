package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"yamdb/internal/access"
	apperrors "yamdb/internal/errors"
	"yamdb/internal/model"
	"yamdb/internal/repository"
)

// CatalogService manages categories and genres.
type CatalogService interface {
	ListCategories(ctx context.Context, search string) ([]model.Category, error)
	CreateCategory(ctx context.Context, caller *model.User, name, slug string) (*model.Category, error)
	DeleteCategory(ctx context.Context, caller *model.User, slug string) error

	ListGenres(ctx context.Context, search string) ([]model.Genre, error)
	CreateGenre(ctx context.Context, caller *model.User, name, slug string) (*model.Genre, error)
	DeleteGenre(ctx context.Context, caller *model.User, slug string) error
}

type catalogService struct {
	categories repository.CategoryRepository
	genres     repository.GenreRepository
	titles     TitleCache
}

// NewCatalogService wires the category and genre repositories. titles may be
// nil; when set, deletions drop cached titles that embed the classifier.
func NewCatalogService(categories repository.CategoryRepository, genres repository.GenreRepository, titles TitleCache) CatalogService {
	return &catalogService{categories: categories, genres: genres, titles: titles}
}

func (s *catalogService) ListCategories(ctx context.Context, search string) ([]model.Category, error) {
	return s.categories.List(ctx, search)
}

func (s *catalogService) CreateCategory(ctx context.Context, caller *model.User, name, slug string) (*model.Category, error) {
	if err := access.Authorize(caller, access.ResourceCategory, access.ActionCreate, 0); err != nil {
		return nil, err
	}
	if err := validateClassifier(name, slug); err != nil {
		return nil, err
	}

	category := &model.Category{Classifier: model.Classifier{Name: name, Slug: slug}}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, classifierWriteError("category", err)
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, caller *model.User, slug string) error {
	if err := access.Authorize(caller, access.ResourceCategory, access.ActionDelete, 0); err != nil {
		return err
	}
	if err := s.categories.DeleteBySlug(ctx, slug); err != nil {
		return classifierDeleteError("category", err)
	}
	s.invalidateTitles(ctx)
	return nil
}

func (s *catalogService) ListGenres(ctx context.Context, search string) ([]model.Genre, error) {
	return s.genres.List(ctx, search)
}

func (s *catalogService) CreateGenre(ctx context.Context, caller *model.User, name, slug string) (*model.Genre, error) {
	if err := access.Authorize(caller, access.ResourceGenre, access.ActionCreate, 0); err != nil {
		return nil, err
	}
	if err := validateClassifier(name, slug); err != nil {
		return nil, err
	}

	genre := &model.Genre{Classifier: model.Classifier{Name: name, Slug: slug}}
	if err := s.genres.Create(ctx, genre); err != nil {
		return nil, classifierWriteError("genre", err)
	}
	return genre, nil
}

func (s *catalogService) DeleteGenre(ctx context.Context, caller *model.User, slug string) error {
	if err := access.Authorize(caller, access.ResourceGenre, access.ActionDelete, 0); err != nil {
		return err
	}
	if err := s.genres.DeleteBySlug(ctx, slug); err != nil {
		return classifierDeleteError("genre", err)
	}
	s.invalidateTitles(ctx)
	return nil
}

func (s *catalogService) invalidateTitles(ctx context.Context) {
	if s.titles != nil {
		s.titles.InvalidateAll(ctx)
	}
}

func validateClassifier(name, slug string) error {
	errs := fieldErrors{}
	if err := validate.Var(name, "required"); err != nil {
		errs.add("name", "this field is required")
	}
	checkMaxLen(errs, "name", name, model.ClassifierNameMaxLength)
	checkSlug(errs, slug)
	return errs.err()
}

func classifierWriteError(resource string, err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.Validation("invalid request", map[string]string{
			"slug": fmt.Sprintf("a %s with this slug already exists", resource),
		})
	}
	return fmt.Errorf("create %s: %w", resource, err)
}

func classifierDeleteError(resource string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return fmt.Errorf("delete %s: %w", resource, err)
}
