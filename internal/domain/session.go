package domain

import (
	"context"
	"io"
	"net/http"
)

// Page is a fetched hypertext document
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status
func (p *Page) OK() bool {
	return p.StatusCode >= http.StatusOK && p.StatusCode < http.StatusMultipleChoices
}

// Session is an authenticated connection to the course site. It is created
// once per run and shared read-only by every component of the run.
type Session interface {
	// GetPage fetches a page. A non-2xx status is not an error.
	GetPage(ctx context.Context, url string) (*Page, error)

	// Open starts streaming an asset. Non-2xx statuses are returned as *DownloadError.
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// CourseSite is the capability the pipeline needs from the outside world:
// an authenticated session and a place to store a course.
type CourseSite interface {
	// Authenticate signs in and returns the session for the run
	Authenticate(ctx context.Context) (Session, error)

	// PrepareStorage makes sure the course folder exists and returns its path
	PrepareStorage(courseName string) (string, error)
}

// Tagger post-processes finished media files
type Tagger interface {
	TagFolder(dir string) (int, error)
}
