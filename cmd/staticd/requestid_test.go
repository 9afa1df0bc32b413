package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestWithRequestIDMintsWhenAbsent(t *testing.T) {
	var seen string
	h := withRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("request ID not attached to context")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("minted ID %q is not a valid UUID: %v", seen, err)
	}
	if got := rr.Header().Get(requestIDHeader); got != seen {
		t.Errorf("response header %s = %q, want %q", requestIDHeader, got, seen)
	}
}

func TestWithRequestIDHonorsIncomingHeader(t *testing.T) {
	want := uuid.New().String()
	var seen string
	h := withRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, want)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen != want {
		t.Errorf("request ID = %q, want propagated %q", seen, want)
	}
}

func TestWithRequestIDRejectsMalformedHeader(t *testing.T) {
	var seen string
	h := withRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("malformed incoming header should be replaced with a fresh UUID, got %q", seen)
	}
}
