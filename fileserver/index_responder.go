package fileserver

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/staticfs/staticd/internal/etag"
	"github.com/staticfs/staticd/internal/metrics"
)

// IndexResponder renders (or probes) a directory listing, sharing the
// file responder's cache contract (etag/Last-Modified/conditional 304).
type IndexResponder struct {
	Config  *Config
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Serve answers an HTTP request for a resolved directory at fsPath whose
// metadata (info) has already been fetched by MetadataGate.
func (ir *IndexResponder) Serve(w http.ResponseWriter, r *http.Request, urlPath, fsPath string, info os.FileInfo) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		mapError(ir.Logger, ir.Metrics, w, r, methodErr(r.Method, urlPath))
		return
	}

	if !strings.HasSuffix(urlPath, "/") {
		loc := urlPath + "/"
		if r.URL.RawQuery != "" {
			loc += "?" + r.URL.RawQuery
		}
		w.Header().Set("Location", loc)
		w.WriteHeader(http.StatusMovedPermanently)
		ir.count(r.Method, http.StatusMovedPermanently)
		return
	}

	entries, err := os.ReadDir(fsPath)
	if err != nil {
		mapError(ir.Logger, ir.Metrics, w, r, ioErr("readdir", fsPath, err))
		return
	}

	if !ir.Config.ShowIndex {
		w.WriteHeader(http.StatusOK)
		ir.count(r.Method, http.StatusOK)
		return
	}

	etagVal := etag.ForFileInfo(info)
	lastMod := etag.LastModified(info.ModTime())

	h := w.Header()
	h.Set("Last-Modified", lastMod)
	h.Set("ETag", etagVal)
	if ir.Config.CacheSecs > 0 {
		h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", ir.Config.CacheSecs))
	}

	if inm := r.Header.Get("If-None-Match"); inm != "" && ir.Config.CacheSecs > 0 && etagMatches(inm, etagVal) {
		w.WriteHeader(http.StatusNotModified)
		ir.count(r.Method, http.StatusNotModified)
		return
	}

	body, dirCount, fileCount, hidden, totalSize := ir.render(urlPath, fsPath, entries)
	if ir.Logger != nil {
		if c := ir.Logger.Check(zap.DebugLevel, "rendering directory listing"); c != nil {
			c.Write(
				zap.String("path", fsPath),
				zap.Int("dirs", dirCount),
				zap.Int("files", fileCount),
				zap.Int("hidden", hidden),
				zap.String("total_file_size", humanize.IBytes(uint64(totalSize))),
			)
		}
	}

	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", "text/html; charset=utf-8")
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	ir.count(r.Method, http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	n, _ := w.Write(body)
	if ir.Metrics != nil {
		ir.Metrics.ResponseBytes.WithLabelValues("index").Observe(float64(n))
	}
}

// render builds the fixed-template HTML listing described in
// SPEC_FULL.md §4.4, one level deep, honoring HideEntry and FollowLinks. It
// also reports directory/file/hidden counts and the summed size of listed
// files for the debug log line above, in the manner of the teacher's
// browselisting.go dirCount/fileCount accumulator.
func (ir *IndexResponder) render(urlPath, fsPath string, entries []os.DirEntry) (body []byte, dirCount, fileCount, hidden int, totalSize int64) {
	title := path.Base(strings.TrimSuffix(urlPath, "/"))
	if title == "" || title == "." {
		title = "/"
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE HTML><html><head><meta http-equiv="Content-Type" content="text/html; charset=utf-8">` + "\n")
	b.WriteString(`<title>Index listing for ` + html.EscapeString(title) + `</title></head>` + "\n")
	b.WriteString(`<body><h1>Index listing for <a href="` + html.EscapeString(urlPath) + `../">` + html.EscapeString(title) + `</a></h1><hr><ul>` + "\n")

	for _, entry := range entries {
		name := entry.Name()
		if ir.Config.HideEntry && strings.HasPrefix(name, ".") {
			hidden++
			continue
		}

		isDir := entry.IsDir()
		if !isDir && entry.Type()&os.ModeSymlink != 0 && ir.Config.FollowLinks {
			if info, err := os.Stat(filepath.Join(fsPath, name)); err == nil {
				isDir = info.IsDir()
			}
		}
		if isDir {
			dirCount++
		} else {
			fileCount++
			if info, err := entry.Info(); err == nil {
				totalSize += info.Size()
			}
		}

		display := name
		href := url.PathEscape(name)
		if isDir {
			display += "/"
			href += "/"
		}

		fmt.Fprintf(&b, "  <li><a href=\"%s\">%s</a></li>\n", href, html.EscapeString(display))
	}

	b.WriteString("</ul><hr></body></html>")
	return []byte(b.String()), dirCount, fileCount, hidden, totalSize
}

func (ir *IndexResponder) count(method string, status int) {
	if ir.Metrics != nil {
		ir.Metrics.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	}
}
