package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Flags explicitly passed on the command line win over a loaded config
// file; unset flags leave the file's value alone.
func TestApplyFlagOverrides(t *testing.T) {
	cmd := newRootCommand()
	if err := cmd.ParseFlags([]string{"--listen", ":9999", "--show-index"}); err != nil {
		t.Fatal(err)
	}

	file := fileConfig{
		ListenAddr:  ":8080",
		Root:        "/srv/www",
		MountPrefix: "/doc/",
		ShowIndex:   false,
		CacheSecs:   30,
	}
	flagVals := fileConfig{
		ListenAddr: ":9999",
		ShowIndex:  true,
		ChunkSize:  16384,
		LogLevel:   "info",
	}

	merged := applyFlagOverrides(cmd, file, flagVals)

	if merged.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q, want explicit flag value :9999", merged.ListenAddr)
	}
	if !merged.ShowIndex {
		t.Errorf("ShowIndex = false, want explicit flag value true")
	}
	// Root and MountPrefix were not passed as flags; the file's values
	// must survive untouched.
	if merged.Root != "/srv/www" {
		t.Errorf("Root = %q, want file value /srv/www", merged.Root)
	}
	if merged.MountPrefix != "/doc/" {
		t.Errorf("MountPrefix = %q, want file value /doc/", merged.MountPrefix)
	}
	if merged.CacheSecs != 30 {
		t.Errorf("CacheSecs = %d, want file value 30", merged.CacheSecs)
	}
}

func TestMountAt(t *testing.T) {
	marker := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, prefix := range []string{"", "/", "/doc/"} {
		router := chi.NewRouter()
		mountAt(router, prefix, marker)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/doc/a.txt", nil))
		if rr.Code != http.StatusTeapot {
			t.Errorf("prefix %q: status = %d, want %d", prefix, rr.Code, http.StatusTeapot)
		}
	}
}
