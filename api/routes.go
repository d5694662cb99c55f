package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes registers every endpoint. Protection is applied by the
// middleware chain in newRouter; path parameters are filtered once matched.
func setupRoutes(r chi.Router, handlers *routeHandlers) {
	r.Get("/health", handlers.healthHandler.getHealth())
	r.Get("/csrf", handlers.csrfHandler.getCSRFToken())
	r.Get("/csrf-token", handlers.csrfHandler.getCSRFToken())

	r.Route("/blog", func(r chi.Router) {
		r.Post("/", handlers.blogPostHandler.createBlogPost())
		r.Get("/", handlers.blogPostHandler.getAllBlogPosts())
		r.Get("/latest", handlers.blogPostHandler.getLatestBlogPosts())

		r.Group(func(r chi.Router) {
			r.Use(handlers.sanitizer.URLParams)
			r.Get("/topic/{topic}", handlers.blogPostHandler.getBlogPostsByTopic())
			r.Get("/{id}", handlers.blogPostHandler.getBlogPost())
			r.Put("/{id}", handlers.blogPostHandler.updateBlogPost())
			r.Delete("/{id}", handlers.blogPostHandler.deleteBlogPost())
		})
	})
}
