package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"yamdb/internal/access"
	apperrors "yamdb/internal/errors"
	"yamdb/internal/middleware"
	"yamdb/internal/model"
)

// ClassifierResponse renders a category or genre.
type ClassifierResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TitleResponse renders a title with its rating.
type TitleResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Year        int                  `json:"year"`
	Rating      *int                 `json:"rating"`
	Description string               `json:"description"`
	Genre       []ClassifierResponse `json:"genre"`
	Category    *ClassifierResponse  `json:"category"`
}

// ReviewResponse renders a review.
type ReviewResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

// CommentResponse renders a comment.
type CommentResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

// UserResponse renders a user profile.
type UserResponse struct {
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Bio       string     `json:"bio"`
	Role      model.Role `json:"role"`
}

func newClassifierResponse(c model.Classifier) ClassifierResponse {
	return ClassifierResponse{Name: c.Name, Slug: c.Slug}
}

func newTitleResponse(t *model.Title) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       make([]ClassifierResponse, 0, len(t.Genres)),
	}
	for _, g := range t.Genres {
		resp.Genre = append(resp.Genre, newClassifierResponse(g.Classifier))
	}
	if t.Category != nil {
		category := newClassifierResponse(t.Category.Classifier)
		resp.Category = &category
	}
	return resp
}

func newReviewResponse(r *model.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  r.Author.Username,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

func newCommentResponse(c *model.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Text:    c.Text,
		Author:  c.Author.Username,
		PubDate: c.PubDate,
	}
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}

// pathID reads a numeric path parameter. Anything that is not a positive
// integer cannot name an existing resource.
func pathID(c echo.Context, param, resource string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 0)
	if err != nil || id == 0 {
		return 0, apperrors.NotFound(resource)
	}
	return uint(id), nil
}

// authorize checks an object-independent rule before the body is read, so
// callers without the right are refused before their payload is validated.
func authorize(c echo.Context, res access.Resource, act access.Action) error {
	caller := middleware.Caller(c)
	var owner uint
	if res == access.ResourceProfile && caller != nil {
		owner = caller.ID
	}
	return access.Authorize(caller, res, act, owner)
}

// bind decodes and validates the request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperrors.Validation("invalid request body", nil)
	}
	return c.Validate(req)
}
