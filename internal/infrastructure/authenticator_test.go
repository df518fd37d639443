package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/course-extract-go/internal/domain"
)

type fakeSignInServer struct {
	*httptest.Server
	mu       sync.Mutex
	form     map[string]string
	query    string
	rejected bool
}

func newFakeSignInServer(t *testing.T) *fakeSignInServer {
	t.Helper()
	signInPage, err := os.ReadFile("testdata/sign_in_page.html")
	require.NoError(t, err)

	f := &fakeSignInServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/users/sign_in", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write(signInPage)
		case http.MethodPost:
			require.NoError(t, r.ParseForm())
			f.mu.Lock()
			f.query = r.URL.RawQuery
			f.form = map[string]string{}
			for k := range r.PostForm {
				f.form[k] = r.PostForm.Get(k)
			}
			rejected := f.rejected
			f.mu.Unlock()
			if rejected {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte("Invalid email or password"))
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "_session", Value: "abc", Path: "/"})
			w.Write([]byte("welcome"))
		}
	})
	mux.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("_session"); err != nil || c.Value != "abc" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("secret"))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func testSiteConfig(loginURL string) *domain.SiteConfig {
	return &domain.SiteConfig{
		LoginURL:       loginURL,
		SchoolID:       "146684",
		Username:       "student@example.com",
		Password:       "hunter2",
		UserAgent:      "course-extract-test",
		RequestTimeout: 5 * time.Second,
	}
}

func TestSessionAuthenticator_Login(t *testing.T) {
	server := newFakeSignInServer(t)
	auth := NewSessionAuthenticator(testSiteConfig(server.URL+"/users"), nil)

	session, err := auth.Login(context.Background())
	require.NoError(t, err)

	server.mu.Lock()
	assert.Equal(t, "flow_school_id=146684", server.query)
	assert.Equal(t, map[string]string{
		"utf8":               "✓",
		"authenticity_token": "Hf3k2mB9xQ==",
		"user[school_id]":    "146684",
		"user[email]":        "student@example.com",
		"user[password]":     "hunter2",
		"commit":             "Log In",
	}, server.form)
	server.mu.Unlock()

	// login cookies are carried by the session
	page, err := session.GetPage(context.Background(), server.URL+"/protected")
	require.NoError(t, err)
	assert.True(t, page.OK())
	assert.Equal(t, "secret", string(page.Body))

	body, err := session.Open(context.Background(), server.URL+"/protected")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	body.Close()
	require.NoError(t, err)
	assert.Equal(t, "secret", string(data))
}

func TestSessionAuthenticator_Rejected(t *testing.T) {
	server := newFakeSignInServer(t)
	server.rejected = true
	auth := NewSessionAuthenticator(testSiteConfig(server.URL+"/users"), nil)

	_, err := auth.Login(context.Background())
	require.Error(t, err)

	var authErr *domain.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "sign_in", authErr.Stage)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Contains(t, authErr.Body, "Invalid email or password")
}

func TestSessionAuthenticator_MissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>maintenance</body></html>"))
	}))
	defer server.Close()

	auth := NewSessionAuthenticator(testSiteConfig(server.URL+"/users"), nil)
	_, err := auth.Login(context.Background())
	require.Error(t, err)

	var authErr *domain.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "token", authErr.Stage)
	var parseErr *domain.ParsingError
	assert.True(t, errors.As(err, &parseErr))
}

func TestSessionAuthenticator_MissingCredentials(t *testing.T) {
	config := testSiteConfig("http://127.0.0.1:1/users")
	config.Password = ""

	_, err := NewSessionAuthenticator(config, nil).Login(context.Background())
	var authErr *domain.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "credentials", authErr.Stage)
}

func TestHTTPSession_OpenNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	session, err := NewHTTPSession(testSiteConfig(server.URL), nil)
	require.NoError(t, err)

	_, err = session.Open(context.Background(), server.URL+"/asset.mp4")
	var dlErr *domain.DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.Equal(t, http.StatusInternalServerError, dlErr.StatusCode)

	page, err := session.GetPage(context.Background(), server.URL+"/page")
	require.NoError(t, err)
	assert.False(t, page.OK())
	assert.Equal(t, http.StatusInternalServerError, page.StatusCode)
}
