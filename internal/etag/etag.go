// Package etag computes the weak validators (ETag and Last-Modified) shared
// by file and directory-index responses.
package etag

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

// Weak returns the weak entity tag for the given file size and modification
// time, formatted as W/"<size-hex>-<mtime-secs-hex>.<mtime-nsecs-hex>".
//
// The tag is a deterministic function of size and mtime only: two distinct
// files that happen to share both will collide, which is the point of a weak
// validator.
func Weak(size int64, mtime time.Time) string {
	secs := mtime.Unix()
	nsecs := mtime.Nanosecond()
	return fmt.Sprintf(`W/"%x-%x.%x"`, size, secs, nsecs)
}

// ForFileInfo is a convenience wrapper around Weak for os.FileInfo.
func ForFileInfo(fi os.FileInfo) string {
	return Weak(fi.Size(), fi.ModTime())
}

// LastModified formats a modification time the way net/http expects it on
// the wire (RFC 1123, GMT, second resolution).
func LastModified(mtime time.Time) string {
	return mtime.UTC().Truncate(time.Second).Format(http.TimeFormat)
}
