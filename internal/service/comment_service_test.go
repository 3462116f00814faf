package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "yamdb/internal/errors"
	"yamdb/internal/model"
)

func bobsComment() *model.Comment {
	return &model.Comment{
		Post:     model.Post{ID: 20, AuthorID: authorUser.ID, Text: "agreed"},
		ReviewID: 10,
	}
}

func TestCommentService_Create(t *testing.T) {
	reviews := new(MockReviewRepository)
	reviews.On("FindForTitle", mock.Anything, uint(1), uint(10)).Return(bobsReview(), nil)
	comments := new(MockCommentRepository)
	comments.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Comment) bool {
		return c.AuthorID == otherUser.ID && c.ReviewID == 10 && c.Text == "nope"
	})).Return(nil)

	comment, err := NewCommentService(comments, reviews).Create(context.Background(), otherUser, 1, 10, "nope")

	require.NoError(t, err)
	assert.Equal(t, "eve", comment.Author.Username)
	comments.AssertExpectations(t)
}

func TestCommentService_Create_ReviewMustBelongToTitle(t *testing.T) {
	reviews := new(MockReviewRepository)
	reviews.On("FindForTitle", mock.Anything, uint(2), uint(10)).Return(nil, gorm.ErrRecordNotFound)
	comments := new(MockCommentRepository)

	_, err := NewCommentService(comments, reviews).Create(context.Background(), otherUser, 2, 10, "hi")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	comments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCommentService_Create_RequiresText(t *testing.T) {
	_, err := NewCommentService(new(MockCommentRepository), new(MockReviewRepository)).
		Create(context.Background(), otherUser, 1, 10, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCommentService_UpdateDelete_ObjectLevelRule(t *testing.T) {
	tests := []struct {
		name          string
		caller        *model.User
		expectedError error
	}{
		{name: "author", caller: authorUser},
		{name: "moderator", caller: moderatorUser},
		{name: "admin", caller: adminUser},
		{name: "other user", caller: otherUser, expectedError: apperrors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reviews := new(MockReviewRepository)
			reviews.On("FindForTitle", mock.Anything, uint(1), uint(10)).Return(bobsReview(), nil)
			comments := new(MockCommentRepository)
			comments.On("FindForReview", mock.Anything, uint(10), uint(20)).Return(bobsComment(), nil)
			comments.On("Update", mock.Anything, mock.Anything).Return(nil).Maybe()
			comments.On("Delete", mock.Anything, uint(20)).Return(nil).Maybe()
			svc := NewCommentService(comments, reviews)

			_, updateErr := svc.Update(context.Background(), tt.caller, 1, 10, 20, ptr("edited"))
			deleteErr := svc.Delete(context.Background(), tt.caller, 1, 10, 20)

			if tt.expectedError != nil {
				assert.ErrorIs(t, updateErr, tt.expectedError)
				assert.ErrorIs(t, deleteErr, tt.expectedError)
				comments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
				comments.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, updateErr)
				assert.NoError(t, deleteErr)
			}
		})
	}
}

func TestCommentService_List(t *testing.T) {
	reviews := new(MockReviewRepository)
	reviews.On("FindForTitle", mock.Anything, uint(1), uint(10)).Return(bobsReview(), nil)
	comments := new(MockCommentRepository)
	comments.On("ListByReview", mock.Anything, uint(10)).Return([]model.Comment{*bobsComment()}, nil)

	got, err := NewCommentService(comments, reviews).List(context.Background(), 1, 10)

	require.NoError(t, err)
	assert.Len(t, got, 1)
}
