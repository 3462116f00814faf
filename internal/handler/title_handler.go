package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"yamdb/internal/access"
	apperrors "yamdb/internal/errors"
	"yamdb/internal/middleware"
	"yamdb/internal/repository"
	"yamdb/internal/service"
)

// TitleHandler serves titles.
type TitleHandler struct {
	svc service.TitleService
}

// NewTitleHandler creates a title handler.
func NewTitleHandler(svc service.TitleService) *TitleHandler {
	return &TitleHandler{svc: svc}
}

// CreateTitleRequest creates a title. Genre and category are slugs.
type CreateTitleRequest struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        int      `json:"year" validate:"required"`
	Description string   `json:"description"`
	Genre       []string `json:"genre" validate:"required,min=1"`
	Category    string   `json:"category"`
}

// UpdateTitleRequest is a partial title update.
type UpdateTitleRequest struct {
	Name        *string   `json:"name"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Genre       *[]string `json:"genre"`
	Category    *string   `json:"category"`
}

// ListTitles godoc
// @Summary List titles
// @Tags titles
// @Produce json
// @Param category query string false "Category slug"
// @Param genre query string false "Genre slug"
// @Param name query string false "Name substring"
// @Param year query int false "Release year"
// @Success 200 {array} TitleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /titles [get]
func (h *TitleHandler) ListTitles(c echo.Context) error {
	filter := repository.TitleFilter{
		Category: c.QueryParam("category"),
		Genre:    c.QueryParam("genre"),
		Name:     c.QueryParam("name"),
	}
	if raw := c.QueryParam("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.Validation("invalid filter", map[string]string{"year": "enter a number"})
		}
		filter.Year = year
	}

	titles, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	resp := make([]TitleResponse, 0, len(titles))
	for i := range titles {
		resp = append(resp, newTitleResponse(&titles[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetTitle godoc
// @Summary Get title
// @Tags titles
// @Produce json
// @Param title_id path int true "Title ID"
// @Success 200 {object} TitleResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /titles/{title_id} [get]
func (h *TitleHandler) GetTitle(c echo.Context) error {
	id, err := pathID(c, "title_id", "title")
	if err != nil {
		return err
	}
	title, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTitleResponse(title))
}

// CreateTitle godoc
// @Summary Create title
// @Tags titles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTitleRequest true "Title"
// @Success 201 {object} TitleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /titles [post]
func (h *TitleHandler) CreateTitle(c echo.Context) error {
	if err := authorize(c, access.ResourceTitle, access.ActionCreate); err != nil {
		return err
	}
	var req CreateTitleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	title, err := h.svc.Create(c.Request().Context(), middleware.Caller(c), service.TitleInput{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		Category:    req.Category,
		Genres:      req.Genre,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newTitleResponse(title))
}

// UpdateTitle godoc
// @Summary Update title
// @Tags titles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param title_id path int true "Title ID"
// @Param request body UpdateTitleRequest true "Fields to change"
// @Success 200 {object} TitleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /titles/{title_id} [patch]
func (h *TitleHandler) UpdateTitle(c echo.Context) error {
	if err := authorize(c, access.ResourceTitle, access.ActionUpdate); err != nil {
		return err
	}
	id, err := pathID(c, "title_id", "title")
	if err != nil {
		return err
	}
	var req UpdateTitleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	patch := service.TitlePatch{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.Genre != nil {
		patch.Genres = append([]string{}, *req.Genre...)
	}

	title, err := h.svc.Update(c.Request().Context(), middleware.Caller(c), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTitleResponse(title))
}

// DeleteTitle godoc
// @Summary Delete title
// @Description Deletes the title with its reviews and their comments.
// @Tags titles
// @Security BearerAuth
// @Param title_id path int true "Title ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /titles/{title_id} [delete]
func (h *TitleHandler) DeleteTitle(c echo.Context) error {
	if err := authorize(c, access.ResourceTitle, access.ActionDelete); err != nil {
		return err
	}
	id, err := pathID(c, "title_id", "title")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), middleware.Caller(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
