package portal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jgoulah/bandwidthscraper/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "test-agent/1.0"

func newTestSession(t *testing.T, handler http.Handler) *Session {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s, err := NewSession(config.PortalConfig{
		BaseURL:   server.URL,
		Username:  "alice",
		Password:  "secret",
		UserAgent: testUserAgent,
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	return s
}

func TestLogin_SeedsCookiesAndPostsForm(t *testing.T) {
	var seeded bool
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		seeded = true
		assert.Equal(t, http.MethodGet, r.Method)
		http.SetCookie(w, &http.Cookie{Name: "CAKEPHP", Value: "seed", Path: "/"})
		w.WriteHeader(http.StatusServiceUnavailable) // root status is ignored
	})
	mux.HandleFunc(LoginPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		if cookie, err := r.Cookie("CAKEPHP"); assert.NoError(t, err) {
			assert.Equal(t, "seed", cookie.Value)
		}

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "POST", r.PostForm.Get("_method"))
		assert.Equal(t, "alice", r.PostForm.Get("data[adsl][username]"))
		assert.Equal(t, "secret", r.PostForm.Get("data[adsl][password]"))

		http.SetCookie(w, &http.Cookie{Name: "auth", Value: "ok", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc(HourlyPath, func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("auth")
		if err != nil || cookie.Value != "ok" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"data":[]}`))
	})

	s := newTestSession(t, mux)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx))
	assert.True(t, seeded)

	body, err := s.Fetch(ctx, HourlyPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, string(body))
}

func TestLogin_NonOKIsAuthError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(LoginPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad credentials"))
	})

	s := newTestSession(t, mux)
	err := s.Login(context.Background())

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Equal(t, "bad credentials", authErr.Body)
}

func TestFetch_Errors(t *testing.T) {
	for _, tt := range []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "server error",
			status:     http.StatusInternalServerError,
			body:       "boom",
			wantStatus: http.StatusInternalServerError,
			wantBody:   "boom",
		},
		{
			name:       "redirected to login page",
			status:     http.StatusOK,
			body:       "<html>login</html>",
			wantStatus: http.StatusOK,
			wantBody:   "invalid JSON: <html>login</html>",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			_, err := s.Fetch(context.Background(), DailyPath)

			var fetchErr *FetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, DailyPath, fetchErr.Endpoint)
			assert.Equal(t, tt.wantStatus, fetchErr.StatusCode)
			assert.Equal(t, tt.wantBody, fetchErr.Body)
		})
	}
}

func TestImportCookies(t *testing.T) {
	s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session")
		if err != nil {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"value":"` + cookie.Value + `"}`))
	}))

	s.ImportCookies([]*http.Cookie{{Name: "session", Value: "from-browser", Path: "/"}})
	require.Len(t, s.Cookies(), 1)

	body, err := s.Fetch(context.Background(), HourlyPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"from-browser"}`, string(body))
}

func TestNewSession_RejectsRelativeURL(t *testing.T) {
	_, err := NewSession(config.PortalConfig{BaseURL: "portal.local"})
	assert.Error(t, err)
}
