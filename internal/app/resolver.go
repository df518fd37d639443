package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/course-extract-go/internal/domain"
	"github.com/yourusername/course-extract-go/internal/infrastructure"
)

// LectureResolver turns lectures into download URLs by visiting each
// lecture page
type LectureResolver struct {
	session domain.Session
	workers int
	logger  *zap.Logger
}

// NewLectureResolver creates a resolver bound to a run's session
func NewLectureResolver(session domain.Session, workers int, logger *zap.Logger) *LectureResolver {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LectureResolver{session: session, workers: workers, logger: logger}
}

// PagePrefix fetches the course root once and derives the lecture page
// prefix from its canonical URL. Failure is fatal for the run.
func (r *LectureResolver) PagePrefix(ctx context.Context, courseURL string) (string, error) {
	page, err := r.session.GetPage(ctx, courseURL)
	if err != nil {
		return "", fmt.Errorf("fetching course root: %w", err)
	}
	if !page.OK() {
		return "", fmt.Errorf("fetching course root: status %d", page.StatusCode)
	}
	return r.PagePrefixFromBody(page.Body)
}

// PagePrefixFromBody derives the lecture page prefix from an already
// fetched course page
func (r *LectureResolver) PagePrefixFromBody(body []byte) (string, error) {
	prefix, err := infrastructure.ExtractLecturePagePrefix(body)
	if err != nil {
		return "", err
	}
	r.logger.Debug("Lecture page prefix", zap.String("prefix", prefix))
	return prefix, nil
}

// Resolve fetches the page of a single lecture. A lecture without a
// download anchor resolves to an empty URL; every other failure is returned
// as a *domain.ResolutionError on the Resolution.
func (r *LectureResolver) Resolve(ctx context.Context, prefix string, lecture domain.Lecture) domain.Resolution {
	res := domain.Resolution{Lecture: lecture}
	pageURL := strings.TrimSuffix(prefix, "/") + "/" + url.PathEscape(lecture.ID)

	fail := func(status int, err error) domain.Resolution {
		res.Err = &domain.ResolutionError{
			LectureID:  lecture.ID,
			Name:       lecture.Title,
			URL:        pageURL,
			StatusCode: status,
			Err:        err,
		}
		return res
	}

	page, err := r.session.GetPage(ctx, pageURL)
	if err != nil {
		return fail(0, err)
	}
	if !page.OK() {
		return fail(page.StatusCode, nil)
	}

	ext, href, err := infrastructure.ExtractDownloadLink(page.Body)
	if err != nil {
		return fail(0, err)
	}
	if href == "" {
		return res
	}

	abs, err := absoluteURL(pageURL, href)
	if err != nil {
		return fail(0, err)
	}
	res.Extension = ext
	res.URL = abs
	return res
}

// ResolveAll resolves every lecture with a bounded pool. Results keep the
// order of lectures; one lecture failing never affects another.
func (r *LectureResolver) ResolveAll(ctx context.Context, prefix string, lectures []domain.Lecture) []domain.Resolution {
	results := make([]domain.Resolution, len(lectures))

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for i, lecture := range lectures {
		i, lecture := i, lecture
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = domain.Resolution{
					Lecture: lecture,
					Err:     &domain.ResolutionError{LectureID: lecture.ID, Name: lecture.Title, Err: err},
				}
				return nil
			}
			results[i] = r.Resolve(ctx, prefix, lecture)
			r.logResolution(results[i])
			return nil
		})
	}
	g.Wait()

	return results
}

func (r *LectureResolver) logResolution(res domain.Resolution) {
	fields := []zap.Field{
		zap.String("lecture_id", res.Lecture.ID),
		zap.String("name", res.Lecture.FileName()),
	}

	var resErr *domain.ResolutionError
	switch {
	case errors.As(res.Err, &resErr):
		fields = append(fields, zap.String("url", resErr.URL), zap.Int("status", resErr.StatusCode))
		if resErr.Err != nil {
			fields = append(fields, zap.Error(resErr.Err))
		}
		r.logger.Warn("Lecture skipped", fields...)
	case res.Err != nil:
		r.logger.Warn("Lecture skipped", append(fields, zap.Error(res.Err))...)
	case res.URL == "":
		r.logger.Info("Lecture has no download asset", fields...)
	default:
		r.logger.Debug("Lecture resolved", append(fields, zap.String("ext", res.Extension))...)
	}
}

// absoluteURL resolves href against the page it was found on
func absoluteURL(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	h, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid download href %q: %w", href, err)
	}
	return b.ResolveReference(h).String(), nil
}
