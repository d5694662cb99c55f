package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sardor-M/p-website-backend/services"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	blogPostHandler blogPostHandler
	csrfHandler     csrfHandler
	healthHandler   healthHandler
	sanitizer       *Sanitizer
}

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(service *services.BlogService, csrf *CSRF, sanitizer *Sanitizer, now func() time.Time) *routeHandlers {
	return &routeHandlers{
		blogPostHandler: newBlogPostHandler(service),
		csrfHandler:     newCSRFHandler(csrf),
		healthHandler:   healthHandler{now: now, responder: NewResponder(log.With().Str("handlerName", "healthHandler").Logger())},
		sanitizer:       sanitizer,
	}
}

type csrfHandler struct {
	responder Responder
	csrf      *CSRF
}

func newCSRFHandler(csrf *CSRF) csrfHandler {
	return csrfHandler{
		responder: NewResponder(log.With().Str("handlerName", "csrfHandler").Logger()),
		csrf:      csrf,
	}
}

// getCSRFToken issues a fresh CSRF token
// @Summary Issue CSRF token
// @Description Sets the XSRF-TOKEN cookie and returns the same token. Send it back in the X-XSRF-TOKEN header on unsafe requests.
// @Tags CSRF
// @Produce json
// @Success 200 {object} CSRFTokenResponse "Fresh token"
// @Router /csrf [get]
// @Router /csrf-token [get]
func (h csrfHandler) getCSRFToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := h.csrf.Issue(w)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		h.responder.WriteJSON(w, CSRFTokenResponse{CSRFToken: token})
	}
}

type healthHandler struct {
	responder Responder
	now       func() time.Time
}

// getHealth is the liveness probe
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h healthHandler) getHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, HealthResponse{
			Status:    "ok",
			Timestamp: h.now().UTC(),
		})
	}
}
