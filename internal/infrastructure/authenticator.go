package infrastructure

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/yourusername/course-extract-go/internal/domain"
)

const maxDiagnosticBody = 512

// SessionAuthenticator performs the sign-in handshake and owns the
// resulting session
type SessionAuthenticator struct {
	config *domain.SiteConfig
	logger *zap.Logger
}

// NewSessionAuthenticator creates a new authenticator
func NewSessionAuthenticator(config *domain.SiteConfig, logger *zap.Logger) *SessionAuthenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionAuthenticator{config: config, logger: logger}
}

// Login fetches the sign-in form, extracts its authenticity token and posts
// the credentials. The returned session carries the login cookies.
func (a *SessionAuthenticator) Login(ctx context.Context) (*HTTPSession, error) {
	if a.config.Username == "" || a.config.Password == "" {
		return nil, &domain.AuthenticationError{
			Stage: "credentials",
			Err:   errors.New("site username and password are not configured"),
		}
	}

	session, err := NewHTTPSession(a.config, a.logger)
	if err != nil {
		return nil, err
	}

	signInURL := a.config.LoginURL + "/sign_in?clean_login=true&reset_purchase_session=1"
	page, err := session.GetPage(ctx, signInURL)
	if err != nil {
		return nil, &domain.AuthenticationError{Stage: "token", Err: err}
	}
	if !page.OK() {
		return nil, &domain.AuthenticationError{
			Stage:      "token",
			StatusCode: page.StatusCode,
			Body:       truncateString(string(page.Body), maxDiagnosticBody),
		}
	}

	token, err := ExtractAuthToken(page.Body)
	if err != nil {
		return nil, &domain.AuthenticationError{Stage: "token", Err: err}
	}
	a.logger.Debug("Obtained authenticity token", zap.Int("length", len(token)))

	form := map[string]string{
		"utf8":               "✓",
		"authenticity_token": token,
		"user[school_id]":    a.config.SchoolID,
		"user[email]":        a.config.Username,
		"user[password]":     a.config.Password,
		"commit":             "Log In",
	}
	postURL := a.config.LoginURL + "/sign_in?flow_school_id=" + a.config.SchoolID
	resp, err := session.PostForm(ctx, postURL, form)
	if err != nil {
		return nil, &domain.AuthenticationError{Stage: "sign_in", Err: err}
	}
	if !resp.OK() {
		a.logger.Error("Sign-in rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncateString(string(resp.Body), maxDiagnosticBody)))
		return nil, &domain.AuthenticationError{
			Stage:      "sign_in",
			StatusCode: resp.StatusCode,
			Body:       truncateString(string(resp.Body), maxDiagnosticBody),
		}
	}

	a.logger.Info("Signed in", zap.String("user", a.config.Username))
	return session, nil
}

// Site is the production domain.CourseSite: it signs in through the
// authenticator and keeps courses in a CourseStorage.
type Site struct {
	auth    *SessionAuthenticator
	storage *CourseStorage
}

// NewSite creates a new course site
func NewSite(auth *SessionAuthenticator, storage *CourseStorage) *Site {
	return &Site{auth: auth, storage: storage}
}

// Authenticate signs in and returns the run session
func (s *Site) Authenticate(ctx context.Context) (domain.Session, error) {
	session, err := s.auth.Login(ctx)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// PrepareStorage creates the course folder
func (s *Site) PrepareStorage(courseName string) (string, error) {
	return s.storage.PrepareCourseFolder(courseName)
}

// Storage returns the underlying course storage
func (s *Site) Storage() *CourseStorage {
	return s.storage
}
