package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sardor-M/p-website-backend/errs"
	"github.com/Sardor-M/p-website-backend/models"
	"github.com/Sardor-M/p-website-backend/services"
)

type blogPostHandler struct {
	responder Responder
	logger    zerolog.Logger
	service   *services.BlogService
	validate  *validator.Validate
}

func newBlogPostHandler(service *services.BlogService) blogPostHandler {
	logger := log.With().Str("handlerName", "blogPostHandler").Logger()

	return blogPostHandler{
		responder: NewResponder(logger),
		logger:    logger,
		service:   service,
		validate:  newValidator(),
	}
}

// createBlogPost creates a new blog post
// @Summary Create blog post
// @Description Creates a blog post. The store assigns the id and audit timestamps.
// @Tags Blog Posts
// @Accept json
// @Produce json
// @Param X-XSRF-TOKEN header string true "CSRF token matching the XSRF-TOKEN cookie"
// @Param blogPost body models.CreateBlogPost true "Blog post data"
// @Success 201 {object} models.BlogPost "Created blog post"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid blog post data"
// @Failure 403 {object} ErrorResponse "Forbidden - Missing or invalid CSRF token"
// @Failure 415 {object} ErrorResponse "Unsupported Media Type - Body is not application/json"
// @Failure 429 {object} RateLimitResponse "Too Many Requests"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Error creating blog post"
// @Router /blog [post]
func (h blogPostHandler) createBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateBlogPost
		if err := decodeJSONBody(r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := validateRequest(h.validate, req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := h.service.Create(r.Context(), req)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, post)
	}
}

// getAllBlogPosts lists blog posts
// @Summary List blog posts
// @Description Lists blog posts newest first. The relational store honours search, topic and pagination.
// @Tags Blog Posts
// @Produce json
// @Param search query string false "Case-insensitive title substring"
// @Param topic query string false "Topic the post must carry"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.Page "One page of blog posts"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid paging parameters"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Error fetching blog posts"
// @Router /blog [get]
func (h blogPostHandler) getAllBlogPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()
		query := models.BlogQuery{
			Search: values.Get("search"),
			Topic:  values.Get("topic"),
		}

		var err error
		if query.Page, err = intParam(values.Get("page"), "page"); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if query.Limit, err = intParam(values.Get("limit"), "limit"); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		page, err := h.service.FindAll(r.Context(), query)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, page)
	}
}

// getLatestBlogPosts returns the most recent posts
// @Summary Latest blog posts
// @Tags Blog Posts
// @Produce json
// @Param limit query int false "Maximum number of posts" default(5)
// @Success 200 {array} models.BlogPost "Most recent posts"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid limit"
// @Router /blog/latest [get]
func (h blogPostHandler) getLatestBlogPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := models.DefaultLatestLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				h.responder.WriteError(w, errs.NewInvalidFieldError("limit", "must be an integer"))
				return
			}
			limit = n
		}

		posts, err := h.service.FindLatest(r.Context(), limit)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, posts)
	}
}

// getBlogPostsByTopic lists posts carrying a topic
// @Summary Blog posts by topic
// @Tags Blog Posts
// @Produce json
// @Param topic path string true "Topic"
// @Success 200 {array} models.BlogPost "Posts with the topic"
// @Router /blog/topic/{topic} [get]
func (h blogPostHandler) getBlogPostsByTopic() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := h.service.FindByTopic(r.Context(), chi.URLParam(r, "topic"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, posts)
	}
}

// getBlogPost retrieves a specific blog post by ID
// @Summary Get blog post
// @Tags Blog Posts
// @Produce json
// @Param id path string true "Blog Post ID"
// @Success 200 {object} models.BlogPost "Blog post details"
// @Failure 404 {object} ErrorResponse "Not Found - Blog post not found"
// @Router /blog/{id} [get]
func (h blogPostHandler) getBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := h.service.FindOne(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, post)
	}
}

// updateBlogPost applies a partial update
// @Summary Update blog post
// @Description Only the fields present in the body change.
// @Tags Blog Posts
// @Accept json
// @Produce json
// @Param X-XSRF-TOKEN header string true "CSRF token matching the XSRF-TOKEN cookie"
// @Param id path string true "Blog Post ID"
// @Param blogPost body models.BlogPostPatch true "Fields to change"
// @Success 200 {object} models.BlogPost "Updated blog post"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid blog post data"
// @Failure 404 {object} ErrorResponse "Not Found - Blog post not found"
// @Failure 415 {object} ErrorResponse "Unsupported Media Type - Body is not application/json"
// @Router /blog/{id} [put]
func (h blogPostHandler) updateBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch models.BlogPostPatch
		if err := decodeJSONBody(r, &patch); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := validateRequest(h.validate, patch); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, post)
	}
}

// deleteBlogPost deletes a blog post by ID
// @Summary Delete blog post
// @Tags Blog Posts
// @Param X-XSRF-TOKEN header string true "CSRF token matching the XSRF-TOKEN cookie"
// @Param id path string true "Blog Post ID"
// @Success 204 "Deleted"
// @Failure 404 {object} ErrorResponse "Not Found - Blog post not found"
// @Router /blog/{id} [delete]
func (h blogPostHandler) deleteBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// decodeJSONBody only accepts bodies declared as JSON.
func decodeJSONBody(r *http.Request, v any) error {
	if contentType := r.Header.Get("Content-Type"); !isJSON(contentType) {
		return errs.NewUnsupportedMediaTypeError(contentType)
	}
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return errs.NewInvalidJSONError(err)
	}
	return nil
}

// intParam parses an optional positive-or-zero query integer. Empty means unset.
func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.NewInvalidFieldError(name, "must be a non-negative integer")
	}
	return n, nil
}
