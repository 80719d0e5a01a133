package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
	"github.com/wtjandra96/modern-webapp-sub000/internal/auth"
	"github.com/wtjandra96/modern-webapp-sub000/internal/model"
	"github.com/wtjandra96/modern-webapp-sub000/internal/repository"
	"github.com/wtjandra96/modern-webapp-sub000/internal/service"
	"github.com/wtjandra96/modern-webapp-sub000/internal/validate"
)

// CategoryHandler exposes category and label endpoints. Every route runs
// behind the auth middleware; the userID comes from the request context,
// never from the request body.
type CategoryHandler struct {
	categories *service.CategoryService
	validator  *validate.Validator
	logger     *slog.Logger
}

func NewCategoryHandler(categories *service.CategoryService, validator *validate.Validator, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, validator: validator, logger: logger}
}

type createCategoryRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

type createLabelRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color" validate:"required,hexcolor"`
}

type editLabelRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=50"`
	Color   *string `json:"color" validate:"omitempty,hexcolor"`
	Checked *bool   `json:"checked"`
}

// HandleList returns the caller's categories, labels included.
//
// GET /api/categories
func (h *CategoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	categories, err := h.categories.GetCategories(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "categories retrieved",
		"categories": categories,
	})
}

// HandleCreate creates a category seeded with the default labels.
//
// POST /api/categories {"name": "..."}
func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	category, err := h.categories.CreateCategory(r.Context(), userID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "category created",
		"category": category,
	})
}

// HandleEdit renames a category.
//
// PUT /api/categories/{id} {"name": "..."}
func (h *CategoryHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	category, err := h.categories.EditCategory(r.Context(), userID, chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "category updated",
		"category": category,
	})
}

// HandleDelete removes a category and everything in it. Idempotent.
//
// DELETE /api/categories/{id}
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	if err := h.categories.DeleteCategory(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "category deleted",
	})
}

// HandleGetLabels lists the labels of one owned category.
//
// GET /api/categories/{id}/labels
func (h *CategoryHandler) HandleGetLabels(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	labels, err := h.categories.GetLabels(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if labels == nil {
		labels = []model.Label{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "labels retrieved",
		"labels":  labels,
	})
}

// HandleAddLabel creates a label in an owned category.
//
// POST /api/categories/{id}/labels {"name": "...", "color": "#rrggbb"}
func (h *CategoryHandler) HandleAddLabel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req createLabelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	label, err := h.categories.AddLabel(r.Context(), userID, chi.URLParam(r, "id"), req.Name, req.Color)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "label created",
		"label":   label,
	})
}

// HandleEditLabel updates a label's name, color, or checked state; absent
// fields are left alone.
//
// PUT /api/labels/{id} {"name"?: "...", "color"?: "...", "checked"?: bool}
func (h *CategoryHandler) HandleEditLabel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req editLabelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	label, err := h.categories.EditLabel(r.Context(), userID, chi.URLParam(r, "id"), repository.LabelUpdate{
		Name:    req.Name,
		Color:   req.Color,
		Checked: req.Checked,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "label updated",
		"label":   label,
	})
}

// HandleDeleteLabel removes a label, detaching it from any posts. Idempotent.
//
// DELETE /api/labels/{id}
func (h *CategoryHandler) HandleDeleteLabel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	if err := h.categories.DeleteLabel(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "label deleted",
	})
}
