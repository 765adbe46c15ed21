package audio

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecode_UnsupportedExtension(t *testing.T) {
	tests := []struct {
		name    string
		locator string
	}{
		{name: "unknown extension", locator: "/music/a.xyz"},
		{name: "no extension", locator: "/music/trackfile"},
		{name: "url with unknown extension", locator: "https://example.com/a.mov?sig=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := decode(tt.locator, nopSeekCloser{bytes.NewReader(nil)})
			assert.ErrorIs(t, err, ErrNoDecoder)
		})
	}
}

func TestStripQuery(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a.mp3", stripQuery("https://cdn.example.com/a.mp3?token=xyz&ttl=60"))
	assert.Equal(t, "/music/a.mp3", stripQuery("/music/a.mp3"))
}

func TestProbe_MissingFile(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	d, err := Probe(ctx, "/nonexistent/track.mp3")
	assert.Error(t, err)
	assert.Equal(t, time.Duration(0), d)
}

func TestProbe_UndecodableBytes(t *testing.T) {
	path := t.TempDir() + "/garbage.mp3"
	writeTestFile(t, path, bytes.Repeat([]byte{0x00, 0x7f}, 512))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	d, err := Probe(ctx, path)
	assert.Error(t, err)
	assert.Equal(t, time.Duration(0), d)
}
