package library

import "fmt"

// UnsupportedFormatError rejects a file whose type is not in the audio
// allow-list. It is surfaced at acquisition time and never reaches the
// playback engine.
type UnsupportedFormatError struct {
	Filename  string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported audio format %q for file %q", e.Extension, e.Filename)
}

// FileTooLargeError rejects a file exceeding the configured size ceiling,
// reporting the actual size.
type FileTooLargeError struct {
	Filename string
	Size     int64
	Limit    int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %q is %d bytes, exceeding the %d byte limit", e.Filename, e.Size, e.Limit)
}
