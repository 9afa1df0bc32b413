package fileserver

import "testing"

func TestParseRangeBoundaries(t *testing.T) {
	// B2: bytes=0-0 on a 1-byte file.
	ranges, err := parseRange("bytes=0-0", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != 1 || ranges[0] != (ByteRange{0, 0}) {
		t.Fatalf("got %+v", ranges)
	}

	// B3: bytes=0- covers the whole file.
	ranges, err = parseRange("bytes=0-", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != 1 || ranges[0] != (ByteRange{0, 99}) {
		t.Fatalf("got %+v", ranges)
	}

	// B4: an out-of-bounds start on a 10-byte file is unsatisfiable.
	if _, err := parseRange("bytes=999999-", 10); err == nil {
		t.Fatal("expected unsatisfiable range error")
	}

	// B5: multi-range bytes=0-0,5-5 on a 10-byte file.
	ranges, err = parseRange("bytes=0-0,5-5", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []ByteRange{{0, 0}, {5, 5}}
	if len(ranges) != len(want) || ranges[0] != want[0] || ranges[1] != want[1] {
		t.Fatalf("got %+v, want %+v", ranges, want)
	}
	if totalLen(ranges) != 2 {
		t.Fatalf("totalLen = %d, want 2", totalLen(ranges))
	}
}

func TestParseRangeSuffix(t *testing.T) {
	ranges, err := parseRange("bytes=-500", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != 1 || ranges[0] != (ByteRange{500, 999}) {
		t.Fatalf("got %+v", ranges)
	}

	// Suffix length larger than the file clamps to the whole file.
	ranges, err = parseRange("bytes=-5000", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != 1 || ranges[0] != (ByteRange{0, 999}) {
		t.Fatalf("got %+v", ranges)
	}
}

func TestParseRangeEndClampedToFileSize(t *testing.T) {
	ranges, err := parseRange("bytes=1000-1999999", 1<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != 1 || ranges[0].Start != 1000 || ranges[0].End != (1<<20)-1 {
		t.Fatalf("got %+v", ranges)
	}
}

func TestParseRangeAbsentHeader(t *testing.T) {
	ranges, err := parseRange("", 10)
	if err != nil || ranges != nil {
		t.Fatalf("expected (nil, nil) for absent header, got (%+v, %v)", ranges, err)
	}
}

func TestContentRangeFormat(t *testing.T) {
	got := contentRange([]ByteRange{{1000, 1999}}, 1 << 20)
	want := "bytes 1000-1999/1048576"
	if got != want {
		t.Fatalf("contentRange = %q, want %q", got, want)
	}
}
