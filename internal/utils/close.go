package utils

import (
	"io"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical.
func Close(c io.Closer) {
	_ = c.Close()
}

// DrainClose reads at most limit bytes from rc before closing it, so the
// underlying keep-alive connection can be reused.
func DrainClose(rc io.ReadCloser, limit int64) {
	_, _ = io.CopyN(io.Discard, rc, limit)
	_ = rc.Close()
}
