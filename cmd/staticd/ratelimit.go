package main

import (
	"net/http"

	"golang.org/x/time/rate"
)

// rateLimit wraps h with a process-wide token-bucket limiter, the same
// golang.org/x/time/rate primitive the teacher project uses to bound
// accept-rate on its listeners. A zero or negative rps disables limiting
// entirely (the common case for trusted or already-fronted deployments).
func rateLimit(h http.Handler, rps float64, burst int) http.Handler {
	if rps <= 0 {
		return h
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		h.ServeHTTP(w, r)
	})
}
