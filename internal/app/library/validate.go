package library

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// Check validates a candidate file before any bytes are persisted.
// Checks run in sequence; the first rejection stops acquisition.
type Check interface {
	Name() string
	Check(path string, info fs.FileInfo) error
}

// DefaultExtensions is the audio format allow-list.
var DefaultExtensions = []string{"mp3", "wav", "ogg", "aac", "flac", "opus", "m4a"}

// extensionCheck rejects files whose extension is not in the allow-list.
type extensionCheck struct {
	allowed map[string]bool
}

func newExtensionCheck(extensions []string) *extensionCheck {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return &extensionCheck{allowed: allowed}
}

func (c *extensionCheck) Name() string { return "extension" }

func (c *extensionCheck) Check(path string, _ fs.FileInfo) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !c.allowed[ext] {
		return &UnsupportedFormatError{Filename: filepath.Base(path), Extension: ext}
	}
	return nil
}

// allows reports whether the extension check accepts the path.
func (c *extensionCheck) allows(path string) bool {
	return c.Check(path, nil) == nil
}

// sizeCheck rejects files exceeding the configured ceiling.
type sizeCheck struct {
	limit int64
}

func (c *sizeCheck) Name() string { return "size" }

func (c *sizeCheck) Check(path string, info fs.FileInfo) error {
	if info.Size() > c.limit {
		return &FileTooLargeError{Filename: filepath.Base(path), Size: info.Size(), Limit: c.limit}
	}
	return nil
}

func defaultChecks(extensions []string, maxBytes int64) []Check {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return []Check{
		newExtensionCheck(lo.Uniq(extensions)),
		&sizeCheck{limit: maxBytes},
	}
}
