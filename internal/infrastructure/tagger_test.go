package infrastructure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagsFromFileName(t *testing.T) {
	tests := []struct {
		name     string
		expected TrackTags
	}{
		{
			name:     "Miles Davis - So What.mp3",
			expected: TrackTags{Title: "So What", Artist: "Miles Davis", Album: "Miles Davis"},
		},
		{
			name:     "Miles Davis - So What (Kind of Blue).mp3",
			expected: TrackTags{Title: "So What (Kind of Blue)", Artist: "Miles Davis", Album: "Kind of Blue"},
		},
		{
			name:     "/music/Backing Track.mp3",
			expected: TrackTags{Title: "Backing Track", Artist: "Backing Track", Album: "Backing Track"},
		},
		{
			name:     "a-b-c.mp3",
			expected: TrackTags{Title: "a-b-c", Artist: "a-b-c", Album: "a-b-c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TagsFromFileName(tt.name))
		})
	}
}

func TestID3Tagger_TagFolder(t *testing.T) {
	dir := t.TempDir()
	mp3 := filepath.Join(dir, "Artist - Song (Album).mp3")
	require.NoError(t, os.WriteFile(mp3, []byte{}, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	tagger := NewID3Tagger(afero.NewOsFs(), nil)
	n, err := tagger.TagFolder(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tag, err := id3v2.Open(mp3, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()
	assert.Equal(t, "Song (Album)", tag.Title())
	assert.Equal(t, "Artist", tag.Artist())
	assert.Equal(t, "Album", tag.Album())
}

func TestID3Tagger_TagFolder_MissingDir(t *testing.T) {
	tagger := NewID3Tagger(afero.NewMemMapFs(), nil)
	_, err := tagger.TagFolder("/nope")
	assert.Error(t, err)
}
