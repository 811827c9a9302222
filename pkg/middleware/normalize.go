package middleware

import (
	"net/http"
	"strings"
)

// Normalize standardizes request fields coming through proxies
//   - trims whitespace and a trailing slash from URL.Path
//   - restores scheme/host from forwarding headers for logs and ICS UIDs
func Normalize() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := strings.TrimSpace(r.URL.Path)
			if len(p) > 1 {
				p = strings.TrimRight(p, "/")
			}
			if p == "" {
				p = "/"
			}
			r.URL.Path = p
			r.URL.RawPath = ""

			if xfproto := r.Header.Get("X-Forwarded-Proto"); xfproto != "" {
				r.URL.Scheme = xfproto
			}
			if xfhost := r.Header.Get("X-Forwarded-Host"); xfhost != "" {
				r.Host = xfhost
			}
			next.ServeHTTP(w, r)
		})
	}
}
