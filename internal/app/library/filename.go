package library

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// trackNumberPrefix matches a leading track number like "01 ", "03.", "7 -".
var trackNumberPrefix = regexp.MustCompile(`^\d{1,3}[\s._-]+`)

// ParseFilename derives best-effort artist and title from an audio
// filename. The pattern "Artist - Title" splits on the first " - ";
// without it, a leading track-number prefix is stripped and the remainder
// becomes the title with the artist left unknown.
func ParseFilename(name string) (artist, title string) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	if artist, title, ok := strings.Cut(base, " - "); ok {
		artist = strings.TrimSpace(artist)
		title = strings.TrimSpace(title)
		if artist != "" && title != "" {
			return artist, title
		}
	}

	title = strings.TrimSpace(trackNumberPrefix.ReplaceAllString(base, ""))
	if title == "" {
		title = strings.TrimSpace(base)
	}
	return track.UnknownArtist, title
}
