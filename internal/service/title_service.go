package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"yamdb/internal/access"
	apperrors "yamdb/internal/errors"
	"yamdb/internal/model"
	"yamdb/internal/repository"
)

// TitleInput describes a new title. Category and Genres are slugs.
type TitleInput struct {
	Name        string
	Year        int
	Description string
	Category    string
	Genres      []string
}

// TitlePatch is a partial title update; nil fields are left unchanged.
// An empty Category string detaches the category.
type TitlePatch struct {
	Name        *string
	Year        *int
	Description *string
	Category    *string
	Genres      []string
}

// TitleService manages titles.
type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter) ([]model.Title, error)
	Get(ctx context.Context, id uint) (*model.Title, error)
	Create(ctx context.Context, caller *model.User, in TitleInput) (*model.Title, error)
	Update(ctx context.Context, caller *model.User, id uint, patch TitlePatch) (*model.Title, error)
	Delete(ctx context.Context, caller *model.User, id uint) error
}

type titleService struct {
	titles     repository.TitleRepository
	categories repository.CategoryRepository
	genres     repository.GenreRepository
	cache      TitleCache
	now        func() time.Time
}

// NewTitleService wires title storage, the classifier lookups and the title cache.
func NewTitleService(
	titles repository.TitleRepository,
	categories repository.CategoryRepository,
	genres repository.GenreRepository,
	cache TitleCache,
) TitleService {
	return &titleService{
		titles:     titles,
		categories: categories,
		genres:     genres,
		cache:      cache,
		now:        time.Now,
	}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter) ([]model.Title, error) {
	return s.titles.List(ctx, filter)
}

func (s *titleService) Get(ctx context.Context, id uint) (*model.Title, error) {
	if title, ok := s.cache.Get(ctx, id); ok {
		return title, nil
	}
	title, err := s.titles.FindByID(ctx, id)
	if err != nil {
		return nil, titleLookupError(err)
	}
	s.cache.Put(ctx, title)
	return title, nil
}

func (s *titleService) Create(ctx context.Context, caller *model.User, in TitleInput) (*model.Title, error) {
	if err := access.Authorize(caller, access.ResourceTitle, access.ActionCreate, 0); err != nil {
		return nil, err
	}

	errs := fieldErrors{}
	s.checkTitle(errs, in.Name, in.Year)
	if len(in.Genres) == 0 {
		errs.add("genre", "at least one genre is required")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	title := &model.Title{Name: in.Name, Year: in.Year, Description: in.Description}
	category, err := s.resolveCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}
	if category != nil {
		title.CategoryID = &category.ID
	}
	genres, err := s.resolveGenres(ctx, in.Genres)
	if err != nil {
		return nil, err
	}
	title.Genres = genres

	if err := s.titles.Create(ctx, title); err != nil {
		return nil, fmt.Errorf("create title: %w", err)
	}
	return s.reload(ctx, title.ID)
}

func (s *titleService) Update(ctx context.Context, caller *model.User, id uint, patch TitlePatch) (*model.Title, error) {
	if err := access.Authorize(caller, access.ResourceTitle, access.ActionUpdate, 0); err != nil {
		return nil, err
	}

	title, err := s.titles.FindByID(ctx, id)
	if err != nil {
		return nil, titleLookupError(err)
	}

	if patch.Name != nil {
		title.Name = *patch.Name
	}
	if patch.Year != nil {
		title.Year = *patch.Year
	}
	if patch.Description != nil {
		title.Description = *patch.Description
	}

	errs := fieldErrors{}
	s.checkTitle(errs, title.Name, title.Year)
	if patch.Genres != nil && len(patch.Genres) == 0 {
		errs.add("genre", "at least one genre is required")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if patch.Category != nil {
		category, err := s.resolveCategory(ctx, *patch.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = nil
		if category != nil {
			title.CategoryID = &category.ID
		}
	}

	var genres []model.Genre
	if patch.Genres != nil {
		if genres, err = s.resolveGenres(ctx, patch.Genres); err != nil {
			return nil, err
		}
	}

	if err := s.titles.Update(ctx, title, genres); err != nil {
		return nil, fmt.Errorf("update title: %w", err)
	}
	s.cache.Invalidate(ctx, id)
	return s.reload(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, caller *model.User, id uint) error {
	if err := access.Authorize(caller, access.ResourceTitle, access.ActionDelete, 0); err != nil {
		return err
	}
	if err := s.titles.Delete(ctx, id); err != nil {
		return titleLookupError(err)
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

func (s *titleService) checkTitle(errs fieldErrors, name string, year int) {
	if strings.TrimSpace(name) == "" {
		errs.add("name", "this field is required")
	}
	checkMaxLen(errs, "name", name, model.TitleNameMaxLength)
	checkYear(errs, year, s.now())
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*model.Category, error) {
	if slug == "" {
		return nil, nil
	}
	category, err := s.categories.FindBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Validation("invalid request", map[string]string{
			"category": fmt.Sprintf("category %q does not exist", slug),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("lookup category: %w", err)
	}
	return category, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]model.Genre, error) {
	genres, err := s.genres.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, fmt.Errorf("lookup genres: %w", err)
	}

	found := make(map[string]bool, len(genres))
	for _, g := range genres {
		found[g.Slug] = true
	}
	var missing []string
	for _, slug := range slugs {
		if !found[slug] {
			missing = append(missing, slug)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, apperrors.Validation("invalid request", map[string]string{
			"genre": "unknown genres: " + strings.Join(missing, ", "),
		})
	}
	return genres, nil
}

func (s *titleService) reload(ctx context.Context, id uint) (*model.Title, error) {
	title, err := s.titles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload title: %w", err)
	}
	return title, nil
}

func titleLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("title")
	}
	return fmt.Errorf("lookup title: %w", err)
}
