package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func csrfCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == CSRFCookieName {
			return c
		}
	}
	return nil
}

func issueToken(t *testing.T, csrf *CSRF) string {
	t.Helper()
	token, err := csrf.Issue(httptest.NewRecorder())
	require.NoError(t, err)
	return token
}

func TestCSRFSafeMethodsPass(t *testing.T) {
	handler := NewCSRF("secret", false, nil).Middleware(okHandler())

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(method, "/anything", nil))
		assert.Equal(t, http.StatusOK, rec.Code, method)
	}
}

func TestCSRFRejectsUnsafeWithoutToken(t *testing.T) {
	handler := NewCSRF("secret", false, DefaultCSRFExclusions).Middleware(okHandler())

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(method, "/blog", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code, method)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, http.StatusForbidden, body.StatusCode)
		assert.Equal(t, "missing CSRF token", body.Error)
	}
}

func TestCSRFAcceptsMatchingTokenAndRotates(t *testing.T) {
	csrf := NewCSRF("secret", true, nil)
	handler := csrf.Middleware(okHandler())
	token := issueToken(t, csrf)

	for _, header := range []string{"X-XSRF-TOKEN", "X-CSRF-Token", "CSRF-Token"} {
		req := httptest.NewRequest(http.MethodPost, "/blog", nil)
		req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: token})
		req.Header.Set(header, token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, header)
		cookie := csrfCookie(rec)
		require.NotNil(t, cookie)
		assert.NotEqual(t, token, cookie.Value)
		assert.True(t, csrf.Valid(cookie.Value))
		assert.False(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
		assert.Equal(t, "/", cookie.Path)
	}
}

func TestCSRFRejectsMismatchAndForgery(t *testing.T) {
	csrf := NewCSRF("secret", false, nil)
	handler := csrf.Middleware(okHandler())
	token := issueToken(t, csrf)
	other := issueToken(t, csrf)
	forged := issueToken(t, NewCSRF("another-secret", false, nil))

	tests := []struct {
		name   string
		cookie string
		header string
	}{
		{"cookie and header differ", token, other},
		{"signed with another secret", forged, forged},
		{"not a token", "abc", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/blog/1", nil)
			req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: tt.cookie})
			req.Header.Set("X-XSRF-TOKEN", tt.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Nil(t, csrfCookie(rec))
		})
	}
}

func TestCSRFReadsBodyFieldAfterSanitizer(t *testing.T) {
	csrf := NewCSRF("secret", false, nil)
	handler := NewSanitizer().Middleware(csrf.Middleware(okHandler()))
	token := issueToken(t, csrf)

	req := httptest.NewRequest(http.MethodPost, "/blog", strings.NewReader(`{"_csrf":"`+token+`","title":"A"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: token})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFExclusions(t *testing.T) {
	rules := []PathRule{{Pattern: "/blog"}, {Pattern: "/blog/*", Methods: []string{http.MethodGet}}}
	handler := NewCSRF("secret", false, rules).Middleware(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/blog", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "excluded for every method")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/blog/123", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code, "excluded for GET only")
}

func TestPathRuleMatching(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/blog", "/blog", true},
		{"/blog", "/blog/", true},
		{"/blog", "/blog/1", false},
		{"/blog", "/blogs", false},
		{"/blog/*", "/blog/1", true},
		{"/blog/*", "/blog/topic/go", true},
		{"/blog/*", "/blog", false},
		{"/blog/*", "/blog/", false},
		{"/blog/*", "/blogs/1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchPath(tt.pattern, tt.path), "%s vs %s", tt.pattern, tt.path)
	}
}
