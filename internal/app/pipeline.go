package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/course-extract-go/internal/domain"
	"github.com/yourusername/course-extract-go/internal/infrastructure"
)

// RunReport is everything a single pipeline execution produced
type RunReport struct {
	CourseDir   string
	Structure   *domain.CourseStructure
	Resolutions []domain.Resolution
	Results     []domain.TaskResult
	Summary     domain.RunSummary
}

// Pipeline runs one course end to end: authenticate, extract the course
// structure, resolve lectures and download their assets
type Pipeline struct {
	site   domain.CourseSite
	store  FileStore
	tagger domain.Tagger
	config *domain.DownloadConfig
	logger *zap.Logger
}

// NewPipeline creates a new pipeline. tagger may be nil.
func NewPipeline(
	site domain.CourseSite,
	store FileStore,
	tagger domain.Tagger,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		site:   site,
		store:  store,
		tagger: tagger,
		config: config,
		logger: logger,
	}
}

// Execute runs the course. The returned error is only set for failures
// that abort the whole run; per-lecture problems are reported in the
// summary and results.
func (p *Pipeline) Execute(ctx context.Context, courseName, courseURL string) (*RunReport, error) {
	log := p.logger.With(zap.String("course", courseName))
	report := &RunReport{}

	dir, err := p.site.PrepareStorage(courseName)
	if err != nil {
		return report, fmt.Errorf("preparing storage: %w", err)
	}
	report.CourseDir = dir

	session, err := p.site.Authenticate(ctx)
	if err != nil {
		return report, err
	}

	page, err := session.GetPage(ctx, courseURL)
	if err != nil {
		return report, fmt.Errorf("fetching course page: %w", err)
	}
	if !page.OK() {
		return report, fmt.Errorf("fetching course page %s: status %d", courseURL, page.StatusCode)
	}

	structure, issues, err := infrastructure.ExtractStructure(page.Body)
	if err != nil {
		return report, err
	}
	report.Structure = structure
	for _, issue := range issues {
		log.Warn("Course structure issue", zap.Error(issue))
	}

	lectures, duplicates := structure.Lectures()
	for _, id := range duplicates {
		log.Warn("Duplicate lecture id, keeping last occurrence", zap.String("lecture_id", id))
	}
	if len(lectures) == 0 {
		log.Warn("No lectures found")
		return report, nil
	}
	log.Info("Course structure extracted",
		zap.Int("sections", len(structure.Sections)),
		zap.Int("lectures", len(lectures)))

	resolver := NewLectureResolver(session, p.config.ResolveWorkers, log)
	prefix, err := resolver.PagePrefixFromBody(page.Body)
	if err != nil {
		return report, err
	}

	report.Resolutions = resolver.ResolveAll(ctx, prefix, lectures)
	for _, res := range report.Resolutions {
		report.Summary.AddResolution(res)
	}

	tasks, rejected := domain.BuildTasks(report.Resolutions)
	for _, r := range rejected {
		log.Error("Duplicate target file name",
			zap.String("lecture_id", r.Task.LectureID),
			zap.String("file", r.Task.FileName))
	}

	scheduler := NewDownloadScheduler(session, p.store, p.config.Workers, log)
	report.Results = append(scheduler.Run(ctx, dir, tasks), rejected...)
	for _, r := range report.Results {
		report.Summary.AddResult(r)
	}

	log.Info("Run finished", zap.String("summary", report.Summary.String()))

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if p.tagger != nil {
		if n, err := p.tagger.TagFolder(dir); err != nil {
			log.Warn("Tagging failed", zap.Error(err))
		} else {
			log.Info("Tagged files", zap.Int("count", n))
		}
	}

	return report, nil
}
