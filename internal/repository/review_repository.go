package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yamdb/internal/model"
)

// ReviewRepository defines review persistence operations.
type ReviewRepository interface {
	// Create inserts a review unless its author already reviewed the title,
	// in which case it returns ErrDuplicate. The check and the insert share
	// one transaction and the unique index settles concurrent inserts.
	Create(ctx context.Context, review *model.Review) error
	Exists(ctx context.Context, authorID, titleID uint) (bool, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id uint) error
	FindForTitle(ctx context.Context, titleID, reviewID uint) (*model.Review, error)
	ListByTitle(ctx context.Context, titleID uint) ([]model.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := reviewExists(tx, review.AuthorID, review.TitleID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicate
		}
		return translateWriteError(tx.Omit(clause.Associations).Create(review).Error)
	})
}

func (r *reviewRepository) Exists(ctx context.Context, authorID, titleID uint) (bool, error) {
	return reviewExists(r.db.WithContext(ctx), authorID, titleID)
}

func reviewExists(db *gorm.DB, authorID, titleID uint) (bool, error) {
	var count int64
	err := db.Model(&model.Review{}).
		Where("author_id = ? AND title_id = ?", authorID, titleID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update saves text and score; author and title never change.
func (r *reviewRepository) Update(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).
		Model(review).
		Select("text", "score", "edited_at").
		Updates(review).Error
}

// Delete removes a review and its comments.
func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Review{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FindForTitle loads a review only if it belongs to titleID.
func (r *reviewRepository) FindForTitle(ctx context.Context, titleID, reviewID uint) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND title_id = ?", reviewID, titleID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByTitle(ctx context.Context, titleID uint) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("title_id = ?", titleID).
		Order("pub_date").Order("id").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
