package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yamdb/internal/model"
)

const avgScoreColumn = "(SELECT AVG(reviews.score) FROM reviews WHERE reviews.title_id = titles.id) AS avg_score"

// TitleFilter narrows title listings. Zero values are ignored.
type TitleFilter struct {
	Category string
	Genre    string
	Name     string
	Year     int
}

// TitleRepository defines title persistence operations.
type TitleRepository interface {
	Create(ctx context.Context, title *model.Title) error
	Update(ctx context.Context, title *model.Title, genres []model.Genre) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Title, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, filter TitleFilter) ([]model.Title, error)
}

type titleRepository struct {
	db *gorm.DB
}

// NewTitleRepository creates a new title repository.
func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

// Create inserts the title and links its genres.
func (r *titleRepository) Create(ctx context.Context, title *model.Title) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		genres := title.Genres
		if err := tx.Omit(clause.Associations).Create(title).Error; err != nil {
			return translateWriteError(err)
		}
		return linkGenres(tx, title.ID, genres)
	})
}

// Update saves scalar fields; a non-nil genres slice replaces the links.
func (r *titleRepository) Update(ctx context.Context, title *model.Title, genres []model.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(title).Error; err != nil {
			return translateWriteError(err)
		}
		if genres == nil {
			return nil
		}
		if err := tx.Where("title_id = ?", title.ID).Delete(&model.GenreTitle{}).Error; err != nil {
			return err
		}
		return linkGenres(tx, title.ID, genres)
	})
}

func linkGenres(tx *gorm.DB, titleID uint, genres []model.Genre) error {
	if len(genres) == 0 {
		return nil
	}
	links := make([]model.GenreTitle, 0, len(genres))
	for _, g := range genres {
		links = append(links, model.GenreTitle{TitleID: titleID, GenreID: g.ID})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

// Delete removes a title with its reviews, their comments and genre links.
func (r *titleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviews := tx.Model(&model.Review{}).Select("id").Where("title_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviews).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&model.GenreTitle{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Title{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *titleRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Title{}).
		Select("titles.*, " + avgScoreColumn).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name") })
}

// FindByID loads a title with its category, genres and rating.
func (r *titleRepository) FindByID(ctx context.Context, id uint) (*model.Title, error) {
	var title model.Title
	if err := r.query(ctx).Where("titles.id = ?", id).First(&title).Error; err != nil {
		return nil, err
	}
	return &title, nil
}

func (r *titleRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Title{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns titles newest year first.
func (r *titleRepository) List(ctx context.Context, filter TitleFilter) ([]model.Title, error) {
	q := r.query(ctx).Order("titles.year DESC").Order("titles.id")
	if filter.Category != "" {
		q = q.Joins("JOIN categories ON categories.id = titles.category_id").
			Where("categories.slug = ?", filter.Category)
	}
	if filter.Genre != "" {
		q = q.Where("EXISTS (SELECT 1 FROM genre_titles JOIN genres ON genres.id = genre_titles.genre_id "+
			"WHERE genre_titles.title_id = titles.id AND genres.slug = ?)", filter.Genre)
	}
	if name := strings.TrimSpace(filter.Name); name != "" {
		q = q.Where("LOWER(titles.name) LIKE ?", likePattern(name))
	}
	if filter.Year != 0 {
		q = q.Where("titles.year = ?", filter.Year)
	}

	var titles []model.Title
	if err := q.Find(&titles).Error; err != nil {
		return nil, err
	}
	return titles, nil
}
