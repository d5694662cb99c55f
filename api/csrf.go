package api

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sardor-M/p-website-backend/errs"
)

const (
	CSRFCookieName = "XSRF-TOKEN"
	csrfBodyField  = "_csrf"
	csrfNonceBytes = 32
)

var csrfHeaders = []string{"X-XSRF-TOKEN", "X-CSRF-Token", "CSRF-Token"}

// DefaultCSRFExclusions leaves the public listing routes alone.
var DefaultCSRFExclusions = []PathRule{
	{Pattern: "/blog", Methods: []string{http.MethodGet}},
	{Pattern: "/blog/*", Methods: []string{http.MethodGet}},
}

// CSRF implements signed double-submit tokens. A token is a random nonce
// plus its HMAC; it is handed to the client in a script-readable cookie and
// must come back both in that cookie and in a header (or the _csrf body
// field) on every unsafe request.
type CSRF struct {
	secret     []byte
	secure     bool
	exclusions []PathRule
	responder  Responder
	logger     zerolog.Logger
}

func NewCSRF(secret string, secure bool, exclusions []PathRule) *CSRF {
	logger := log.With().Str("handlerName", "csrf").Logger()

	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(err)
		}
		logger.Warn().Msg("CSRF_SECRET not set, tokens will not survive a restart")
	}
	return &CSRF{
		secret:     key,
		secure:     secure,
		exclusions: exclusions,
		responder:  NewResponder(logger),
		logger:     logger,
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func (c *CSRF) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) || anyRuleMatches(c.exclusions, r) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(CSRFCookieName)
		supplied := suppliedCSRFToken(r)
		if err != nil || cookie.Value == "" || supplied == "" {
			c.responder.WriteError(w, errs.NewCSRFMissingError())
			return
		}
		if !hmac.Equal([]byte(cookie.Value), []byte(supplied)) || !c.Valid(supplied) {
			c.responder.WriteError(w, errs.NewCSRFInvalidError())
			return
		}

		if _, err := c.Issue(w); err != nil {
			c.responder.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Issue generates a fresh token and writes it to the cookie.
func (c *CSRF) Issue(w http.ResponseWriter) (string, error) {
	nonce := make([]byte, csrfNonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", errs.NewInternalErrorWithCause("could not generate CSRF token", err)
	}
	token := base64.RawURLEncoding.EncodeToString(nonce) + "." + base64.RawURLEncoding.EncodeToString(c.sign(nonce))

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// Valid reports whether token was signed with this secret.
func (c *CSRF) Valid(token string) bool {
	encodedNonce, encodedMAC, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	nonce, err := base64.RawURLEncoding.DecodeString(encodedNonce)
	if err != nil || len(nonce) != csrfNonceBytes {
		return false
	}
	mac, err := base64.RawURLEncoding.DecodeString(encodedMAC)
	if err != nil {
		return false
	}
	return hmac.Equal(mac, c.sign(nonce))
}

func (c *CSRF) sign(nonce []byte) []byte {
	h := hmac.New(sha256.New, c.secret)
	h.Write(nonce)
	return h.Sum(nil)
}

func suppliedCSRFToken(r *http.Request) string {
	for _, name := range csrfHeaders {
		if token := r.Header.Get(name); token != "" {
			return token
		}
	}
	if body, ok := ctxGetSanitizedBody(r.Context()); ok {
		if fields, ok := body.(map[string]any); ok {
			if token, ok := fields[csrfBodyField].(string); ok {
				return token
			}
		}
	}
	return ""
}
