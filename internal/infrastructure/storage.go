package infrastructure

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/course-extract-go/internal/domain"
)

const partialSuffix = ".part"

// CourseStorage keeps one folder per course under the courses directory
type CourseStorage struct {
	fs         afero.Fs
	coursesDir string
	logger     *zap.Logger
}

// NewCourseStorage creates a new course storage
func NewCourseStorage(fs afero.Fs, coursesDir string, logger *zap.Logger) *CourseStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseStorage{fs: fs, coursesDir: coursesDir, logger: logger}
}

// CourseDir returns the folder for a course
func (s *CourseStorage) CourseDir(courseName string) (string, error) {
	name := domain.SanitizeTitle(courseName)
	if name == "" {
		return "", fmt.Errorf("invalid course name %q", courseName)
	}
	return filepath.Join(s.coursesDir, name), nil
}

// PrepareCourseFolder creates the course folder if it does not exist yet
func (s *CourseStorage) PrepareCourseFolder(courseName string) (string, error) {
	dir, err := s.CourseDir(courseName)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create course folder: %w", err)
	}
	s.logger.Debug("Course folder ready", zap.String("dir", dir))
	return dir, nil
}

// Exists reports whether a finished file is present at path
func (s *CourseStorage) Exists(path string) (bool, error) {
	return afero.Exists(s.fs, path)
}

// Write streams r into path. Data goes to a partial file first and is
// renamed into place once complete, so an interrupted write never leaves a
// file that Exists would accept.
func (s *CourseStorage) Write(path string, r io.Reader) (int64, error) {
	partial := path + partialSuffix
	f, err := s.fs.Create(partial)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", partial, err)
	}

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		if rmErr := s.fs.Remove(partial); rmErr != nil {
			s.logger.Warn("Failed to remove partial file", zap.String("path", partial), zap.Error(rmErr))
		}
		if copyErr != nil {
			return n, copyErr
		}
		return n, closeErr
	}

	if err := s.fs.Rename(partial, path); err != nil {
		return n, fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return n, nil
}

// Fs exposes the underlying filesystem
func (s *CourseStorage) Fs() afero.Fs {
	return s.fs
}
