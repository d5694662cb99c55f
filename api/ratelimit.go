package api

import (
	"net"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sardor-M/p-website-backend/errs"
	"github.com/Sardor-M/p-website-backend/ratelimit"
)

const fallbackClientKey = "0.0.0.0"

// BlogRateLimitRules scopes the per-route limiter to the blog resource.
var BlogRateLimitRules = []PathRule{
	{Pattern: "/blog"},
	{Pattern: "/blog/*"},
}

// RateLimiter takes one point per request from the client's budget and
// answers 429 once it is spent. With no rules it applies to every path.
type RateLimiter struct {
	limiter     ratelimit.Limiter
	rules       []PathRule
	sendHeaders bool
	responder   Responder
	logger      zerolog.Logger
}

func NewRateLimiter(limiter ratelimit.Limiter, rules []PathRule, sendHeaders bool) *RateLimiter {
	logger := log.With().Str("handlerName", "rateLimiter").Logger()
	return &RateLimiter{
		limiter:     limiter,
		rules:       rules,
		sendHeaders: sendHeaders,
		responder:   NewResponder(logger),
		logger:      logger,
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(l.rules) > 0 && !anyRuleMatches(l.rules, r) {
			next.ServeHTTP(w, r)
			return
		}

		decision, err := l.limiter.Take(r.Context(), clientKey(r))
		if err != nil {
			// fail open
			l.logger.Error().Err(err).Msg("rate limiter unavailable, letting request through")
			next.ServeHTTP(w, r)
			return
		}
		if l.sendHeaders && decision.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		}
		if decision.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := decision.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		l.responder.WriteJSONStatus(w, http.StatusTooManyRequests, RateLimitResponse{
			StatusCode: http.StatusTooManyRequests,
			Message:    errs.ErrRateLimitExceeded.Error(),
			RetryAfter: retryAfter,
		})
	})
}

// clientKey is the client's IP address. RemoteAddr already reflects
// forwarding headers when the proxy is trusted.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return fallbackClientKey
	}
	return host
}
