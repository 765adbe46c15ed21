package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrack_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		track      Track
		wantTitle  string
		wantArtist string
		wantAlbum  string
	}{
		{
			name:       "all fields present",
			track:      Track{Title: "One More Time", Artist: "Daft Punk", Album: "Discovery"},
			wantTitle:  "One More Time",
			wantArtist: "Daft Punk",
			wantAlbum:  "Discovery",
		},
		{
			name:       "all fields absent",
			track:      Track{},
			wantTitle:  UnknownTitle,
			wantArtist: UnknownArtist,
			wantAlbum:  UnknownAlbum,
		},
		{
			name:       "whitespace counts as absent",
			track:      Track{Title: "  ", Artist: "\t", Album: "Discovery"},
			wantTitle:  UnknownTitle,
			wantArtist: UnknownArtist,
			wantAlbum:  "Discovery",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tt.track
			tr.Normalize()
			assert.Equal(t, tt.wantTitle, tr.Title)
			assert.Equal(t, tt.wantArtist, tr.Artist)
			assert.Equal(t, tt.wantAlbum, tr.Album)
		})
	}
}

func TestTrack_Normalize_NegativeDuration(t *testing.T) {
	tr := Track{Title: "x", Artist: "y", Album: "z", Duration: -3 * time.Second}
	tr.Normalize()
	assert.Equal(t, time.Duration(0), tr.Duration)
	assert.False(t, tr.HasKnownDuration())
}

func TestTrack_Source(t *testing.T) {
	local := Track{Source: SourceLocal, Locator: "/music/a.mp3"}
	stream := Track{Source: SourceStream, Locator: "https://example.com/a.mp3"}

	assert.True(t, local.IsLocal())
	assert.False(t, local.IsStream())
	assert.True(t, stream.IsStream())
	assert.False(t, stream.IsLocal())
}

func TestTrack_IsRemote(t *testing.T) {
	assert.True(t, (&Track{ID: "remote-12345"}).IsRemote())
	assert.False(t, (&Track{ID: "2b4f0c1e-1111-4222-8333-444455556666"}).IsRemote())
}
