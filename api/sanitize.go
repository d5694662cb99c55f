package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sardor-M/p-website-backend/errs"
)

const maxBodyBytes = 1 << 20

// Sanitizer filters cross-site scripting payloads out of every string a
// request carries: JSON body fields at any depth, query values and, through
// URLParams, the path parameters of the matched route.
type Sanitizer struct {
	policy    *bluemonday.Policy
	responder Responder
	logger    zerolog.Logger
}

func NewSanitizer() *Sanitizer {
	logger := log.With().Str("handlerName", "sanitizer").Logger()
	return &Sanitizer{
		policy:    bluemonday.UGCPolicy(),
		responder: NewResponder(logger),
		logger:    logger,
	}
}

// String returns s filtered. Strings without markup characters are returned
// as they are so that plain text is not entity-encoded.
func (s *Sanitizer) String(str string) string {
	if !strings.ContainsAny(str, "<>") {
		return str
	}
	return s.policy.Sanitize(str)
}

// Value returns a filtered copy of a decoded JSON tree. Maps and slices are
// copied; strings are filtered; numbers, booleans and nil are returned
// unchanged.
func (s *Sanitizer) Value(v any) any {
	switch val := v.(type) {
	case string:
		return s.String(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = s.Value(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = s.Value(item)
		}
		return out
	default:
		return v
	}
}

func (s *Sanitizer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			query := r.URL.Query()
			for key, values := range query {
				for i, value := range values {
					values[i] = s.String(value)
				}
				query[key] = values
			}
			r.URL.RawQuery = query.Encode()
		}

		// filtered whatever the declared Content-Type
		if r.Body != nil && r.Body != http.NoBody {
			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				s.responder.WriteError(w, errs.NewMaxBodySizeExceededError(maxBodyBytes))
				return
			}
			body := raw
			if len(bytes.TrimSpace(raw)) > 0 {
				decoder := json.NewDecoder(bytes.NewReader(raw))
				decoder.UseNumber()
				var tree any
				if err := decoder.Decode(&tree); err == nil {
					clean := s.Value(tree)
					if encoded, err := json.Marshal(clean); err == nil {
						body = encoded
						r = r.WithContext(ctxWithSanitizedBody(r.Context(), clean))
					}
				} else {
					// left for the handler to reject
					s.logger.Debug().Err(err).Msg("body is not valid JSON")
				}
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
		}

		next.ServeHTTP(w, r)
	})
}

// URLParams filters the values chi matched for the route's path parameters.
// It has to run after routing, so routes attach it with With.
func (s *Sanitizer) URLParams(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			for i, value := range rctx.URLParams.Values {
				// chi matches on the escaped path when RawPath is set
				if r.URL.RawPath != "" {
					if unescaped, err := url.PathUnescape(value); err == nil {
						value = unescaped
					}
				}
				rctx.URLParams.Values[i] = s.String(value)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
