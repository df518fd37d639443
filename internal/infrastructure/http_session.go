package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/yourusername/course-extract-go/internal/domain"
)

// HTTPSession implements domain.Session on top of resty. Pages and assets
// share one cookie jar; page requests are bounded by the request timeout
// while asset streams are only bounded by the response header timeout and
// the caller's context, so large files are not cut off.
type HTTPSession struct {
	pages  *resty.Client
	assets *resty.Client
}

// NewHTTPSession creates an unauthenticated session
func NewHTTPSession(config *domain.SiteConfig, logger *zap.Logger) (*HTTPSession, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pages := resty.New().
		SetCookieJar(jar).
		SetTimeout(config.RequestTimeout).
		SetHeader("User-Agent", config.UserAgent).
		SetLogger(logger.Sugar())

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = config.RequestTimeout
	assets := resty.New().
		SetTransport(transport).
		SetCookieJar(jar).
		SetHeader("User-Agent", config.UserAgent).
		SetLogger(logger.Sugar())

	return &HTTPSession{pages: pages, assets: assets}, nil
}

// GetPage fetches a page; non-2xx statuses are reported on the page
func (s *HTTPSession) GetPage(ctx context.Context, url string) (*domain.Page, error) {
	resp, err := s.pages.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return &domain.Page{URL: url, StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}

// PostForm submits an url-encoded form
func (s *HTTPSession) PostForm(ctx context.Context, url string, form map[string]string) (*domain.Page, error) {
	resp, err := s.pages.R().SetContext(ctx).SetFormData(form).Post(url)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", url, err)
	}
	return &domain.Page{URL: url, StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}

// Open streams an asset; the caller must close the returned body
func (s *HTTPSession) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := s.assets.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return nil, &domain.DownloadError{URL: url, Err: err}
	}
	body := resp.RawBody()
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		body.Close()
		return nil, &domain.DownloadError{URL: url, StatusCode: resp.StatusCode()}
	}
	return body, nil
}
