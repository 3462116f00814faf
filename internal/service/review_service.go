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

// ReviewPatch is a partial review update.
type ReviewPatch struct {
	Text  *string
	Score *int
}

// ReviewService manages reviews nested under a title.
type ReviewService interface {
	// CanCreateReview reports whether author has not yet reviewed the title.
	CanCreateReview(ctx context.Context, author *model.User, titleID uint) (bool, error)
	List(ctx context.Context, titleID uint) ([]model.Review, error)
	Get(ctx context.Context, titleID, reviewID uint) (*model.Review, error)
	Create(ctx context.Context, caller *model.User, titleID uint, text string, score int) (*model.Review, error)
	Update(ctx context.Context, caller *model.User, titleID, reviewID uint, patch ReviewPatch) (*model.Review, error)
	Delete(ctx context.Context, caller *model.User, titleID, reviewID uint) error
}

type reviewService struct {
	reviews repository.ReviewRepository
	titles  repository.TitleRepository
	cache   TitleCache
}

// NewReviewService wires review storage. Review writes invalidate the
// cached title so its rating stays current.
func NewReviewService(reviews repository.ReviewRepository, titles repository.TitleRepository, cache TitleCache) ReviewService {
	return &reviewService{reviews: reviews, titles: titles, cache: cache}
}

func (s *reviewService) CanCreateReview(ctx context.Context, author *model.User, titleID uint) (bool, error) {
	if author == nil {
		return false, nil
	}
	exists, err := s.reviews.Exists(ctx, author.ID, titleID)
	if err != nil {
		return false, fmt.Errorf("check review: %w", err)
	}
	return !exists, nil
}

func (s *reviewService) List(ctx context.Context, titleID uint) ([]model.Review, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	return s.reviews.ListByTitle(ctx, titleID)
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID uint) (*model.Review, error) {
	return s.find(ctx, titleID, reviewID)
}

// Create stores a review. A second review by the same author on the same
// title fails with a conflict; the unique index catches the concurrent case
// the pre-check cannot.
func (s *reviewService) Create(ctx context.Context, caller *model.User, titleID uint, text string, score int) (*model.Review, error) {
	if err := access.Authorize(caller, access.ResourceReview, access.ActionCreate, 0); err != nil {
		return nil, err
	}

	errs := fieldErrors{}
	checkText(errs, text)
	checkScore(errs, score)
	if err := errs.err(); err != nil {
		return nil, err
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	ok, err := s.CanCreateReview(ctx, caller, titleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrDuplicateReview
	}

	review := &model.Review{
		Post:    model.Post{AuthorID: caller.ID, Text: text},
		TitleID: titleID,
		Score:   score,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.ErrDuplicateReview
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	review.Author = *caller
	s.cache.Invalidate(ctx, titleID)
	return review, nil
}

func (s *reviewService) Update(ctx context.Context, caller *model.User, titleID, reviewID uint, patch ReviewPatch) (*model.Review, error) {
	review, err := s.find(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(caller, access.ResourceReview, access.ActionUpdate, review.OwnerID()); err != nil {
		return nil, err
	}

	errs := fieldErrors{}
	if patch.Text != nil {
		checkText(errs, *patch.Text)
		review.Text = *patch.Text
	}
	if patch.Score != nil {
		checkScore(errs, *patch.Score)
		review.Score = *patch.Score
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	s.cache.Invalidate(ctx, titleID)
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, caller *model.User, titleID, reviewID uint) error {
	review, err := s.find(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := access.Authorize(caller, access.ResourceReview, access.ActionDelete, review.OwnerID()); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("review")
		}
		return fmt.Errorf("delete review: %w", err)
	}
	s.cache.Invalidate(ctx, titleID)
	return nil
}

func (s *reviewService) requireTitle(ctx context.Context, titleID uint) error {
	ok, err := s.titles.Exists(ctx, titleID)
	if err != nil {
		return fmt.Errorf("lookup title: %w", err)
	}
	if !ok {
		return apperrors.NotFound("title")
	}
	return nil
}

func (s *reviewService) find(ctx context.Context, titleID, reviewID uint) (*model.Review, error) {
	review, err := s.reviews.FindForTitle(ctx, titleID, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("review")
		}
		return nil, fmt.Errorf("lookup review: %w", err)
	}
	return review, nil
}
