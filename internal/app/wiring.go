package app

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/course-extract-go/internal/domain"
	"github.com/yourusername/course-extract-go/internal/infrastructure"
)

// BuildPipeline wires the production pipeline: a signed-in site session,
// course folders on the OS filesystem and, when enabled, the ID3 tagger
func BuildPipeline(config *domain.Config, log *zap.Logger) *Pipeline {
	fs := afero.NewOsFs()
	storage := infrastructure.NewCourseStorage(fs, config.Download.CoursesDir(), log)
	auth := infrastructure.NewSessionAuthenticator(&config.Site, log)
	site := infrastructure.NewSite(auth, storage)

	var tagger domain.Tagger
	if config.Tagging.Enabled {
		tagger = infrastructure.NewID3Tagger(fs, log)
	}

	return NewPipeline(site, storage, tagger, &config.Download, log)
}
