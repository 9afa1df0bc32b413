package fileserver

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteRange is an inclusive, clamped byte range: 0 <= Start <= End < size.
type ByteRange struct {
	Start, End int64
}

// Len returns the number of bytes covered by r.
func (r ByteRange) Len() int64 { return r.End - r.Start + 1 }

// errUnsatisfiableRange is returned by parseRange when any requested range spec
// cannot be satisfied against size; the caller must reply 416.
type errUnsatisfiableRange struct{}

func (errUnsatisfiableRange) Error() string { return "unsatisfiable range" }

// parseRange parses an HTTP Range header value (e.g. "bytes=0-99,200-299" or
// "bytes=-500" for a suffix range) and clamps every spec against size. If
// any spec is unsatisfiable after clamping, it returns errUnsatisfiableRange
// and the request must be answered with 416. A header with no "bytes=" unit
// or with zero specs is treated as absent (nil, nil).
func parseRange(header string, size int64) ([]ByteRange, error) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return nil, nil
	}
	raw := strings.TrimPrefix(header, prefix)
	if raw == "" {
		return nil, nil
	}

	specs := strings.Split(raw, ",")
	ranges := make([]ByteRange, 0, len(specs))
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		dash := strings.IndexByte(spec, '-')
		if dash < 0 {
			return nil, errUnsatisfiableRange{}
		}
		startStr, endStr := spec[:dash], spec[dash+1:]

		var start, end int64
		switch {
		case startStr == "":
			// Suffix range: "-N" means the last N bytes.
			n, err := strconv.ParseInt(endStr, 10, 64)
			if err != nil || n <= 0 {
				return nil, errUnsatisfiableRange{}
			}
			if n > size {
				n = size
			}
			start = size - n
			end = size - 1
		case endStr == "":
			n, err := strconv.ParseInt(startStr, 10, 64)
			if err != nil || n < 0 {
				return nil, errUnsatisfiableRange{}
			}
			start = n
			end = size - 1
		default:
			s, err1 := strconv.ParseInt(startStr, 10, 64)
			e, err2 := strconv.ParseInt(endStr, 10, 64)
			if err1 != nil || err2 != nil || s < 0 || e < s {
				return nil, errUnsatisfiableRange{}
			}
			start, end = s, e
			if end > size-1 {
				end = size - 1
			}
		}

		if size == 0 || start < 0 || start > size-1 || end < start {
			return nil, errUnsatisfiableRange{}
		}
		ranges = append(ranges, ByteRange{Start: start, End: end})
	}
	if len(ranges) == 0 {
		return nil, errUnsatisfiableRange{}
	}
	return ranges, nil
}

// contentRange formats the Content-Range header value for a satisfiable set
// of ranges against a file of the given size.
func contentRange(ranges []ByteRange, size int64) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = fmt.Sprintf("%d-%d", r.Start, r.End)
	}
	return fmt.Sprintf("bytes %s/%d", strings.Join(parts, ","), size)
}

// totalLen sums Len() across ranges, used for Content-Length on 206.
func totalLen(ranges []ByteRange) int64 {
	var n int64
	for _, r := range ranges {
		n += r.Len()
	}
	return n
}
