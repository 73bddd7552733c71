package middleware

import (
	"net/http"
	"strings"
)

const unknownClient = "unknown"

// ClientIP identifies the caller for rate limiting: the first X-Forwarded-For
// entry, then X-Real-IP, then CF-Connecting-IP, else "unknown".
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	for _, h := range []string{"X-Real-IP", "CF-Connecting-IP"} {
		if ip := strings.TrimSpace(r.Header.Get(h)); ip != "" {
			return ip
		}
	}
	return unknownClient
}
