package fileserver

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolvedPath is the Router's output: a normalized URL path paired with the
// filesystem path it maps to under Config.Root.
type ResolvedPath struct {
	// URLPath is the re-formed, normalized request path: "/"-prefixed
	// segments with a trailing "/" preserved iff the decoded input ended
	// in one.
	URLPath string
	// FSPath is the absolute filesystem path under Config.Root. It is
	// always inside (or equal to) Config.Root.
	FSPath string
}

// route turns a percent-decoded request path into a ResolvedPath, clamping
// any ".." segments at the root rather than rejecting them, and matching the
// configured mount prefix. See SPEC_FULL.md §4.1 for the algorithm this
// implements segment-for-segment.
func route(decodedPath, mountPrefix, root string) (ResolvedPath, error) {
	trailingSlash := strings.HasSuffix(decodedPath, "/")

	stack := normalize(decodedPath)

	var urlPath string
	for _, seg := range stack {
		urlPath += "/" + seg
	}
	if trailingSlash && (urlPath != "" || len(stack) == 0) {
		if urlPath == "" {
			urlPath = "/"
		} else {
			urlPath += "/"
		}
	}

	prefixSegs := normalize(mountPrefix)
	if len(prefixSegs) > len(stack) {
		return ResolvedPath{}, routeErr(decodedPath)
	}
	for i, seg := range prefixSegs {
		if stack[i] != seg {
			return ResolvedPath{}, routeErr(decodedPath)
		}
	}
	remainder := stack[len(prefixSegs):]

	if len(remainder) == 0 {
		return ResolvedPath{URLPath: urlPath, FSPath: root}, nil
	}

	fsPath := filepath.Join(append([]string{root}, remainder...)...)
	if _, err := os.Lstat(fsPath); err != nil {
		return ResolvedPath{}, ioErr("stat", decodedPath, err)
	}

	return ResolvedPath{URLPath: urlPath, FSPath: fsPath}, nil
}

// normalize splits path on '/', drops empty segments and literal ".", and
// folds ".." against a stack: a ".." pops the stack if non-empty, otherwise
// is silently dropped. The result never contains ".." or "." segments and
// never underflows below the configured root.
func normalize(path string) []string {
	parts := strings.Split(path, "/")
	stack := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, p)
		}
	}
	return stack
}
