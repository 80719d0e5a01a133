package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
	"github.com/wtjandra96/modern-webapp-sub000/internal/auth"
	"github.com/wtjandra96/modern-webapp-sub000/internal/model"
	"github.com/wtjandra96/modern-webapp-sub000/internal/service"
	"github.com/wtjandra96/modern-webapp-sub000/internal/validate"
)

// PostHandler exposes the saved-link endpoints.
type PostHandler struct {
	posts     *service.PostService
	validator *validate.Validator
	logger    *slog.Logger
}

func NewPostHandler(posts *service.PostService, validator *validate.Validator, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, validator: validator, logger: logger}
}

type createPostRequest struct {
	CategoryID   string     `json:"categoryId" validate:"required"`
	Title        string     `json:"title" validate:"required,max=200"`
	URL          string     `json:"url" validate:"required"`
	ImgSrc       *string    `json:"imgSrc"`
	OriginalDate *time.Time `json:"originalDate"`
	Labels       *[]string  `json:"labels"`
}

type editPostRequest struct {
	Title        string     `json:"title" validate:"required,max=200"`
	URL          string     `json:"url" validate:"required"`
	ImgSrc       *string    `json:"imgSrc"`
	OriginalDate *time.Time `json:"originalDate"`
	Labels       *[]string  `json:"labels"`
}

// bookmarkRequest uses a pointer so "isBookmarked": false and a missing
// field are distinguishable.
type bookmarkRequest struct {
	IsBookmarked *bool `json:"isBookmarked"`
}

// HandleCreate saves a link into one of the caller's categories.
//
// POST /api/posts {"categoryId": "...", "title": "...", "url": "...", ...}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.CreatePost(r.Context(), userID, req.CategoryID, req.Title, req.URL, service.PostAttributes{
		ImgSrc:       req.ImgSrc,
		OriginalDate: req.OriginalDate,
		LabelIDs:     req.Labels,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "post created",
		"post":    post,
	})
}

// HandleList returns the caller's posts, newest first.
//
// GET /api/posts?category={id}&labels={id,id}
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	categoryID := r.URL.Query().Get("category")
	var labelIDs []string
	if raw := r.URL.Query().Get("labels"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				labelIDs = append(labelIDs, id)
			}
		}
	}

	posts, err := h.posts.GetPosts(r.Context(), userID, categoryID, labelIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "posts retrieved",
		"posts":   posts,
	})
}

// HandleListBookmarked returns the caller's bookmarked posts.
//
// GET /api/posts/bookmarked
func (h *PostHandler) HandleListBookmarked(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	posts, err := h.posts.GetBookmarkedPosts(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "bookmarked posts retrieved",
		"posts":   posts,
	})
}

// HandleEdit rewrites a post's mutable fields.
//
// PUT /api/posts/{id} {"title": "...", "url": "...", ...}
func (h *PostHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req editPostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.EditPost(r.Context(), userID, chi.URLParam(r, "id"), req.Title, req.URL, service.PostAttributes{
		ImgSrc:       req.ImgSrc,
		OriginalDate: req.OriginalDate,
		LabelIDs:     req.Labels,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "post updated",
		"post":    post,
	})
}

// HandleBookmark sets or clears the bookmark flag.
//
// PATCH /api/posts/{id}/bookmark {"isBookmarked": true}
func (h *PostHandler) HandleBookmark(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req bookmarkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.IsBookmarked == nil {
		writeError(w, apperror.ValidationFailed("isBookmarked", "is required"))
		return
	}

	post, err := h.posts.BookmarkPost(r.Context(), userID, chi.URLParam(r, "id"), *req.IsBookmarked)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "post bookmark updated",
		"post":    post,
	})
}

// HandleDelete removes a post. Idempotent.
//
// DELETE /api/posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	if err := h.posts.DeletePost(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "post deleted",
	})
}
