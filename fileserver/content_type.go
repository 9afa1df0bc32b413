package fileserver

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// ContentTyper is the injection point for Content-Type determination on
// 200/206 responses. It must not modify Content-Length or ETag. Callers may
// substitute a richer implementation (e.g. backed by a shared MIME
// database); DefaultContentTyper is a reasonable standalone default.
type ContentTyper interface {
	ContentType(f *os.File, info os.FileInfo, path string, r *http.Request) (string, error)
}

// DefaultContentTyper resolves Content-Type by file extension first, falling
// back to sniffing the first 512 bytes the way net/http.ServeContent does.
// The sniff uses ReadAt rather than Read/Seek so it never disturbs the
// file's offset for whatever reads the streamer performs afterward.
type DefaultContentTyper struct{}

func (DefaultContentTyper) ContentType(f *os.File, info os.FileInfo, path string, r *http.Request) (string, error) {
	if ctype := mime.TypeByExtension(filepath.Ext(path)); ctype != "" {
		return ctype, nil
	}

	var buf [512]byte
	n, err := f.ReadAt(buf[:], 0)
	if err != nil && err != io.EOF {
		return "", err
	}
	if n == 0 {
		return "application/octet-stream", nil
	}
	return http.DetectContentType(buf[:n]), nil
}
