package infrastructure

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var albumPattern = regexp.MustCompile(`.+\((.+?)\)`)

// TrackTags are the ID3 fields derived from a file name
type TrackTags struct {
	Title  string
	Artist string
	Album  string
}

// TagsFromFileName derives tags from names like "Artist - Title (Album).mp3".
// Names without exactly one dash use the whole name as title and artist; the
// album is the last parenthesized group, falling back to the artist.
func TagsFromFileName(name string) TrackTags {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	tags := TrackTags{Title: base, Artist: base}
	if parts := strings.Split(base, "-"); len(parts) == 2 {
		tags.Artist = strings.TrimSpace(parts[0])
		tags.Title = strings.TrimSpace(parts[1])
	}

	tags.Album = tags.Artist
	if m := albumPattern.FindStringSubmatch(base); m != nil {
		tags.Album = strings.TrimSpace(m[1])
	}
	return tags
}

// ID3Tagger writes ID3v2 tags onto the mp3 files of a folder
type ID3Tagger struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewID3Tagger creates a new tagger. Tag files are opened from the OS
// filesystem; fs is only used for listing.
func NewID3Tagger(fs afero.Fs, logger *zap.Logger) *ID3Tagger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ID3Tagger{fs: fs, logger: logger}
}

// TagFolder tags every mp3 file directly inside dir and returns how many
// were written. Files that fail are logged and skipped.
func (t *ID3Tagger) TagFolder(dir string) (int, error) {
	entries, err := afero.ReadDir(t.fs, dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	tagged := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := t.TagFile(path); err != nil {
			t.logger.Warn("Failed to tag file", zap.String("path", path), zap.Error(err))
			continue
		}
		tagged++
	}

	t.logger.Info("Tagging finished", zap.String("dir", dir), zap.Int("tagged", tagged))
	return tagged, nil
}

// TagFile writes tags derived from the file name
func (t *ID3Tagger) TagFile(path string) error {
	tags := TagsFromFileName(path)

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(tags.Title)
	tag.SetArtist(tags.Artist)
	tag.SetAlbum(tags.Album)

	if err := tag.Save(); err != nil {
		return err
	}
	t.logger.Debug("Tagged file",
		zap.String("path", path),
		zap.String("title", tags.Title),
		zap.String("artist", tags.Artist),
		zap.String("album", tags.Album))
	return nil
}
