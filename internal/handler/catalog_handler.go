package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"yamdb/internal/access"
	"yamdb/internal/middleware"
	"yamdb/internal/service"
)

// CatalogHandler serves categories and genres.
type CatalogHandler struct {
	svc service.CatalogService
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ClassifierRequest creates a category or genre.
type ClassifierRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50"`
}

// ListCategories godoc
// @Summary List categories
// @Tags categories
// @Produce json
// @Param search query string false "Name substring"
// @Success 200 {array} ClassifierResponse
// @Router /categories [get]
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	categories, err := h.svc.ListCategories(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	resp := make([]ClassifierResponse, 0, len(categories))
	for _, category := range categories {
		resp = append(resp, newClassifierResponse(category.Classifier))
	}
	return c.JSON(http.StatusOK, resp)
}

// CreateCategory godoc
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ClassifierRequest true "Category"
// @Success 201 {object} ClassifierResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /categories [post]
func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	if err := authorize(c, access.ResourceCategory, access.ActionCreate); err != nil {
		return err
	}
	var req ClassifierRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	category, err := h.svc.CreateCategory(c.Request().Context(), middleware.Caller(c), req.Name, req.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newClassifierResponse(category.Classifier))
}

// DeleteCategory godoc
// @Summary Delete category
// @Tags categories
// @Security BearerAuth
// @Param slug path string true "Category slug"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /categories/{slug} [delete]
func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	if err := h.svc.DeleteCategory(c.Request().Context(), middleware.Caller(c), c.Param("slug")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListGenres godoc
// @Summary List genres
// @Tags genres
// @Produce json
// @Param search query string false "Name substring"
// @Success 200 {array} ClassifierResponse
// @Router /genres [get]
func (h *CatalogHandler) ListGenres(c echo.Context) error {
	genres, err := h.svc.ListGenres(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	resp := make([]ClassifierResponse, 0, len(genres))
	for _, genre := range genres {
		resp = append(resp, newClassifierResponse(genre.Classifier))
	}
	return c.JSON(http.StatusOK, resp)
}

// CreateGenre godoc
// @Summary Create genre
// @Tags genres
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ClassifierRequest true "Genre"
// @Success 201 {object} ClassifierResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /genres [post]
func (h *CatalogHandler) CreateGenre(c echo.Context) error {
	if err := authorize(c, access.ResourceGenre, access.ActionCreate); err != nil {
		return err
	}
	var req ClassifierRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	genre, err := h.svc.CreateGenre(c.Request().Context(), middleware.Caller(c), req.Name, req.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newClassifierResponse(genre.Classifier))
}

// DeleteGenre godoc
// @Summary Delete genre
// @Tags genres
// @Security BearerAuth
// @Param slug path string true "Genre slug"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /genres/{slug} [delete]
func (h *CatalogHandler) DeleteGenre(c echo.Context) error {
	if err := h.svc.DeleteGenre(c.Request().Context(), middleware.Caller(c), c.Param("slug")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
