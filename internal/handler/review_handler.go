package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"yamdb/internal/access"
	apperrors "yamdb/internal/errors"
	"yamdb/internal/middleware"
	"yamdb/internal/service"
)

// ReviewHandler serves reviews and their comments.
type ReviewHandler struct {
	reviews  service.ReviewService
	comments service.CommentService
}

// NewReviewHandler creates a review handler.
func NewReviewHandler(reviews service.ReviewService, comments service.CommentService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, comments: comments}
}

// CreateReviewRequest creates a review.
type CreateReviewRequest struct {
	Text  string `json:"text" validate:"required"`
	Score int    `json:"score" validate:"required"`
}

// UpdateReviewRequest is a partial review update. Values are checked after
// the caller's right to edit the review is established.
type UpdateReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

// CommentRequest creates or edits a comment.
type CommentRequest struct {
	Text *string `json:"text"`
}

// ListReviews godoc
// @Summary List reviews of a title
// @Tags reviews
// @Produce json
// @Param title_id path int true "Title ID"
// @Success 200 {array} ReviewResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /titles/{title_id}/reviews [get]
func (h *ReviewHandler) ListReviews(c echo.Context) error {
	titleID, err := pathID(c, "title_id", "title")
	if err != nil {
		return err
	}
	reviews, err := h.reviews.List(c.Request().Context(), titleID)
	if err != nil {
		return err
	}
	resp := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		resp = append(resp, newReviewResponse(&reviews[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetReview godoc
// @Summary Get review
// @Tags reviews
// @Produce json
// @Param title_id path int true "Title ID"
// @Param review_id path int true "Review ID"
// @Success 200 {object} ReviewResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /titles/{title_id}/reviews/{review_id} [get]
func (h *ReviewHandler) GetReview(c echo.Context) error {
	titleID, reviewID, err := reviewPath(c)
	if err != nil {
		return err
	}
	review, err := h.reviews.Get(c.Request().Context(), titleID, reviewID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newReviewResponse(review))
}

// CreateReview godoc
// @Summary Review a title
// @Description One review per title per author.
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param title_id path int true "Title ID"
// @Param request body CreateReviewRequest true "Review"
// @Success 201 {object} ReviewResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /titles/{title_id}/reviews [post]
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	if err := authorize(c, access.ResourceReview, access.ActionCreate); err != nil {
		return err
	}
	titleID, err := pathID(c, "title_id", "title")
	if err != nil {
		return err
	}
	var req CreateReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	review, err := h.reviews.Create(c.Request().Context(), middleware.Caller(c), titleID, req.Text, req.Score)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newReviewResponse(review))
}

// UpdateReview godoc
// @Summary Edit review
// @Description Allowed for the author, moderators and admins.
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param title_id path int true "Title ID"
// @Param review_id path int true "Review ID"
// @Param request body UpdateReviewRequest true "Fields to change"
// @Success 200 {object} ReviewResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /titles/{title_id}/reviews/{review_id} [patch]
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	titleID, reviewID, err := reviewPath(c)
	if err != nil {
		return err
	}
	var req UpdateReviewRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body", nil)
	}

	review, err := h.reviews.Update(c.Request().Context(), middleware.Caller(c), titleID, reviewID, service.ReviewPatch{
		Text:  req.Text,
		Score: req.Score,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newReviewResponse(review))
}

// DeleteReview godoc
// @Summary Delete review
// @Description Allowed for the author, moderators and admins. Comments go with it.
// @Tags reviews
// @Security BearerAuth
// @Param title_id path int true "Title ID"
// @Param review_id path int true "Review ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /titles/{title_id}/reviews/{review_id} [delete]
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	titleID, reviewID, err := reviewPath(c)
	if err != nil {
		return err
	}
	if err := h.reviews.Delete(c.Request().Context(), middleware.Caller(c), titleID, reviewID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListComments godoc
// @Summary List comments of a review
// @Tags comments
// @Produce json
// @Param title_id path int true "Title ID"
// @Param review_id path int true "Review ID"
// @Success 200 {array} CommentResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /titles/{title_id}/reviews/{review_id}/comments [get]
func (h *ReviewHandler) ListComments(c echo.Context) error {
	titleID, reviewID, err := reviewPath(c)
	if err != nil {
		return err
	}
	comments, err := h.comments.List(c.Request().Context(), titleID, reviewID)
	if err != nil {
		return err
	}
	resp := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		resp = append(resp, newCommentResponse(&comments[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetComment godoc
// @Summary Get comment
// @Tags comments
// @Produce json
// @Param title_id path int true "Title ID"
// @Param review_id path int true "Review ID"
// @Param comment_id path int true "Comment ID"
// @Success 200 {object} CommentResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /titles/{title_id}/reviews/{review_id}/comments/{comment_id} [get]
func (h *ReviewHandler) GetComment(c echo.Context) error {
	titleID, reviewID, commentID, err := commentPath(c)
	if err != nil {
		return err
	}
	comment, err := h.comments.Get(c.Request().Context(), titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newCommentResponse(comment))
}

// CreateComment godoc
// @Summary Comment on a review
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param title_id path int true "Title ID"
// @Param review_id path int true "Review ID"
// @Param request body CommentRequest true "Comment"
// @Success 201 {object} CommentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /titles/{title_id}/reviews/{review_id}/comments [post]
func (h *ReviewHandler) CreateComment(c echo.Context) error {
	if err := authorize(c, access.ResourceComment, access.ActionCreate); err != nil {
		return err
	}
	titleID, reviewID, err := reviewPath(c)
	if err != nil {
		return err
	}
	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body", nil)
	}
	text := ""
	if req.Text != nil {
		text = *req.Text
	}

	comment, err := h.comments.Create(c.Request().Context(), middleware.Caller(c), titleID, reviewID, text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newCommentResponse(comment))
}

// UpdateComment godoc
// @Summary Edit comment
// @Description Allowed for the author, moderators and admins.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param title_id path int true "Title ID"
// @Param review_id path int true "Review ID"
// @Param comment_id path int true "Comment ID"
// @Param request body CommentRequest true "Comment"
// @Success 200 {object} CommentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /titles/{title_id}/reviews/{review_id}/comments/{comment_id} [patch]
func (h *ReviewHandler) UpdateComment(c echo.Context) error {
	titleID, reviewID, commentID, err := commentPath(c)
	if err != nil {
		return err
	}
	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body", nil)
	}

	comment, err := h.comments.Update(c.Request().Context(), middleware.Caller(c), titleID, reviewID, commentID, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newCommentResponse(comment))
}

// DeleteComment godoc
// @Summary Delete comment
// @Description Allowed for the author, moderators and admins.
// @Tags comments
// @Security BearerAuth
// @Param title_id path int true "Title ID"
// @Param review_id path int true "Review ID"
// @Param comment_id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /titles/{title_id}/reviews/{review_id}/comments/{comment_id} [delete]
func (h *ReviewHandler) DeleteComment(c echo.Context) error {
	titleID, reviewID, commentID, err := commentPath(c)
	if err != nil {
		return err
	}
	if err := h.comments.Delete(c.Request().Context(), middleware.Caller(c), titleID, reviewID, commentID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func reviewPath(c echo.Context) (titleID, reviewID uint, err error) {
	if titleID, err = pathID(c, "title_id", "title"); err != nil {
		return 0, 0, err
	}
	if reviewID, err = pathID(c, "review_id", "review"); err != nil {
		return 0, 0, err
	}
	return titleID, reviewID, nil
}

func commentPath(c echo.Context) (titleID, reviewID, commentID uint, err error) {
	if titleID, reviewID, err = reviewPath(c); err != nil {
		return 0, 0, 0, err
	}
	if commentID, err = pathID(c, "comment_id", "comment"); err != nil {
		return 0, 0, 0, err
	}
	return titleID, reviewID, commentID, nil
}
