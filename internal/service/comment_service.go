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

// CommentService manages comments on a review. Every call is scoped by the
// title and review ids from the path; a review outside the title is not found.
type CommentService interface {
	List(ctx context.Context, titleID, reviewID uint) ([]model.Comment, error)
	Get(ctx context.Context, titleID, reviewID, commentID uint) (*model.Comment, error)
	Create(ctx context.Context, caller *model.User, titleID, reviewID uint, text string) (*model.Comment, error)
	Update(ctx context.Context, caller *model.User, titleID, reviewID, commentID uint, text *string) (*model.Comment, error)
	Delete(ctx context.Context, caller *model.User, titleID, reviewID, commentID uint) error
}

type commentService struct {
	comments repository.CommentRepository
	reviews  repository.ReviewRepository
}

// NewCommentService wires comment storage.
func NewCommentService(comments repository.CommentRepository, reviews repository.ReviewRepository) CommentService {
	return &commentService{comments: comments, reviews: reviews}
}

func (s *commentService) List(ctx context.Context, titleID, reviewID uint) ([]model.Comment, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	return s.comments.ListByReview(ctx, reviewID)
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID uint) (*model.Comment, error) {
	return s.find(ctx, titleID, reviewID, commentID)
}

func (s *commentService) Create(ctx context.Context, caller *model.User, titleID, reviewID uint, text string) (*model.Comment, error) {
	if err := access.Authorize(caller, access.ResourceComment, access.ActionCreate, 0); err != nil {
		return nil, err
	}

	errs := fieldErrors{}
	checkText(errs, text)
	if err := errs.err(); err != nil {
		return nil, err
	}
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		Post:     model.Post{AuthorID: caller.ID, Text: text},
		ReviewID: reviewID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.Author = *caller
	return comment, nil
}

func (s *commentService) Update(ctx context.Context, caller *model.User, titleID, reviewID, commentID uint, text *string) (*model.Comment, error) {
	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(caller, access.ResourceComment, access.ActionUpdate, comment.OwnerID()); err != nil {
		return nil, err
	}

	if text != nil {
		errs := fieldErrors{}
		checkText(errs, *text)
		if err := errs.err(); err != nil {
			return nil, err
		}
		comment.Text = *text
	}

	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return comment, nil
}

func (s *commentService) Delete(ctx context.Context, caller *model.User, titleID, reviewID, commentID uint) error {
	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := access.Authorize(caller, access.ResourceComment, access.ActionDelete, comment.OwnerID()); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("comment")
		}
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *commentService) requireReview(ctx context.Context, titleID, reviewID uint) error {
	_, err := s.reviews.FindForTitle(ctx, titleID, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("review")
		}
		return fmt.Errorf("lookup review: %w", err)
	}
	return nil
}

func (s *commentService) find(ctx context.Context, titleID, reviewID, commentID uint) (*model.Comment, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.comments.FindForReview(ctx, reviewID, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("comment")
		}
		return nil, fmt.Errorf("lookup comment: %w", err)
	}
	return comment, nil
}
