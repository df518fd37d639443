package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"github.com/yourusername/course-extract-go/internal/domain"
	"github.com/yourusername/course-extract-go/internal/infrastructure"
)

const (
	testCourseURL     = "https://school.test/courses/42"
	testLecturePrefix = "https://school.test/courses/42/lectures"
)

// fakeSession serves canned pages and assets and counts requests
type fakeSession struct {
	mu            sync.Mutex
	pages         map[string]*domain.Page
	assets        map[string]string
	assetStatus   map[string]int
	pageRequests  []string
	assetRequests []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		pages:       make(map[string]*domain.Page),
		assets:      make(map[string]string),
		assetStatus: make(map[string]int),
	}
}

func (s *fakeSession) addPage(url string, status int, body string) {
	s.pages[url] = &domain.Page{URL: url, StatusCode: status, Body: []byte(body)}
}

func (s *fakeSession) GetPage(ctx context.Context, url string) (*domain.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageRequests = append(s.pageRequests, url)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p, ok := s.pages[url]; ok {
		return p, nil
	}
	return &domain.Page{URL: url, StatusCode: http.StatusNotFound}, nil
}

func (s *fakeSession) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assetRequests = append(s.assetRequests, url)
	if status, ok := s.assetStatus[url]; ok {
		return nil, &domain.DownloadError{URL: url, StatusCode: status}
	}
	content, ok := s.assets[url]
	if !ok {
		return nil, &domain.DownloadError{URL: url, StatusCode: http.StatusNotFound}
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (s *fakeSession) counts() (pages, assets int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pageRequests), len(s.assetRequests)
}

// fakeSite hands out the fake session and stores courses in memory
type fakeSite struct {
	session   *fakeSession
	storage   *infrastructure.CourseStorage
	authErr   error
	authCalls int
}

func newFakeSite(session *fakeSession) *fakeSite {
	return &fakeSite{
		session: session,
		storage: infrastructure.NewCourseStorage(afero.NewMemMapFs(), "/courses", nil),
	}
}

func (f *fakeSite) Authenticate(ctx context.Context) (domain.Session, error) {
	f.authCalls++
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.session, nil
}

func (f *fakeSite) PrepareStorage(courseName string) (string, error) {
	return f.storage.PrepareCourseFolder(courseName)
}

type fakeTagger struct {
	dirs []string
}

func (t *fakeTagger) TagFolder(dir string) (int, error) {
	t.dirs = append(t.dirs, dir)
	return 0, nil
}

func coursePageHTML(withCanonical bool, sections ...string) string {
	meta := ""
	if withCanonical {
		meta = `<meta property="og:url" content="` + testLecturePrefix + `/100">`
	}
	return "<html><head>" + meta + "</head><body><div class=\"lecture-sidebar\">" +
		strings.Join(sections, "") + "</div></body></html>"
}

func sectionHTML(title string, lectures ...[2]string) string {
	var b strings.Builder
	b.WriteString(`<div class="course-section"><div class="section-title"><span class="section-lock"></span> `)
	b.WriteString(title)
	b.WriteString(`</div><ul class="section-list">`)
	for _, l := range lectures {
		fmt.Fprintf(&b, `<li class="section-item" data-lecture-id="%s"><a class="item" href="#"><span class="lecture-name">%s</span></a></li>`, l[0], l[1])
	}
	b.WriteString(`</ul></div>`)
	return b.String()
}

func lecturePageHTML(downloadName, href string) string {
	if href == "" {
		return `<html><body><div class="lecture-text">Read me</div></body></html>`
	}
	return fmt.Sprintf(`<html><body><a class="download" data-x-origin-download-name="%s" href="%s">Download</a></body></html>`,
		downloadName, href)
}

// newCourseFixture wires a two-section course: lectures 100, 101 and 200
// have assets, 102 and 201 have none.
func newCourseFixture(t *testing.T) *fakeSession {
	t.Helper()
	s := newFakeSession()
	s.addPage(testCourseURL, http.StatusOK, coursePageHTML(true,
		sectionHTML("Intro (00:20)",
			[2]string{"100", "Welcome (1:03)"},
			[2]string{"101", "What is Node? (3:16)"},
			[2]string{"102", "Reading"}),
		sectionHTML("Advanced: Part 2",
			[2]string{"200", "Modules"},
			[2]string{"201", "Quiz"}),
	))

	s.addPage(testLecturePrefix+"/100", http.StatusOK, lecturePageHTML("1- Welcome.mp4", "https://cdn.test/a"))
	s.addPage(testLecturePrefix+"/101", http.StatusOK, lecturePageHTML("2- What is Node.mp4", "https://cdn.test/b"))
	s.addPage(testLecturePrefix+"/102", http.StatusOK, lecturePageHTML("", ""))
	s.addPage(testLecturePrefix+"/200", http.StatusOK, lecturePageHTML("slides.pdf", "/files/c"))
	s.addPage(testLecturePrefix+"/201", http.StatusOK, lecturePageHTML("", ""))

	s.assets["https://cdn.test/a"] = "aaaa"
	s.assets["https://cdn.test/b"] = "bbbbbb"
	s.assets["https://school.test/files/c"] = "cc"
	return s
}

// mockRepo implements domain.RunRepository for testing
type mockRepo struct {
	mu    sync.Mutex
	runs  []*domain.Run
	items map[string][]*domain.RunItem
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[string][]*domain.RunItem)}
}

func (m *mockRepo) Create(run *domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *run
	m.runs = append(m.runs, &c)
	return nil
}

func (m *mockRepo) Update(run *domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.runs {
		if r.ID == run.ID {
			c := *run
			m.runs[i] = &c
			return nil
		}
	}
	return domain.ErrRunNotFound
}

func (m *mockRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.runs {
		if r.ID == id {
			m.runs = append(m.runs[:i], m.runs[i+1:]...)
			delete(m.items, id)
			return nil
		}
	}
	return nil
}

func (m *mockRepo) FindByID(id string) (*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == id {
			c := *r
			return &c, nil
		}
	}
	return nil, domain.ErrRunNotFound
}

func (m *mockRepo) FindPending() ([]*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Run
	for _, r := range m.runs {
		if r.Status == domain.StatusQueued {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *mockRepo) FindAll(filters map[string]interface{}) ([]*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Run
	for _, r := range m.runs {
		if status, ok := filters["status"]; ok && status != string(r.Status) && status != r.Status {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	return out, nil
}

func (m *mockRepo) SaveItems(runID string, items []*domain.RunItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[runID] = items
	return nil
}

func (m *mockRepo) FindItems(runID string) ([]*domain.RunItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[runID], nil
}

func (m *mockRepo) ResetOrphanedProcessing() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.runs {
		if r.Status == domain.StatusProcessing {
			r.Status = domain.StatusQueued
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) GetStats() (*domain.RunStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.RunStats{Total: int64(len(m.runs))}
	for _, r := range m.runs {
		switch r.Status {
		case domain.StatusQueued:
			stats.Queued++
		case domain.StatusProcessing:
			stats.Processing++
		case domain.StatusCompleted:
			stats.Completed++
		case domain.StatusFailed:
			stats.Failed++
		case domain.StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}
