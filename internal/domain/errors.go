package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDownloadAsset indicates a lecture page without a download anchor
	ErrNoDownloadAsset = errors.New("no downloadable asset")

	// ErrUnsupportedExtension indicates a download name whose extension cannot be used
	ErrUnsupportedExtension = errors.New("unsupported file extension")

	// ErrDuplicateTarget indicates two tasks resolved to the same file name
	ErrDuplicateTarget = errors.New("duplicate target file name")

	// ErrRunNotFound indicates an unknown run id
	ErrRunNotFound = errors.New("run not found")
)

// AuthenticationError is returned when signing in to the course site fails.
// It is fatal for the run.
type AuthenticationError struct {
	Stage      string // "token" or "sign_in"
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("authentication failed at %s: status %d", e.Stage, e.StatusCode)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// ParsingError is returned when an expected element is missing from a page
type ParsingError struct {
	What string
	Err  error
}

func (e *ParsingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing %s: %v", e.What, e.Err)
	}
	return fmt.Sprintf("parsing %s: not found", e.What)
}

func (e *ParsingError) Unwrap() error { return e.Err }

// ResolutionError is returned when a lecture cannot be resolved to a
// download URL. The lecture is skipped.
type ResolutionError struct {
	LectureID  string
	Name       string
	URL        string
	StatusCode int
	Err        error
}

func (e *ResolutionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("resolving lecture %s (%s): status %d from %s", e.LectureID, e.Name, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("resolving lecture %s (%s): %v", e.LectureID, e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// DownloadError is returned when fetching or writing an asset fails
type DownloadError struct {
	Target     string
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("downloading %s: status %d", e.Target, e.StatusCode)
	}
	return fmt.Sprintf("downloading %s: %v", e.Target, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
