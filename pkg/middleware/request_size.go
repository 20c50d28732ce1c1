package middleware

import (
	"net/http"

	apperrors "jdpanel/pkg/errors"
)

// MaxRequestSize rejects declared oversize bodies up front and caps the rest
// while they are read.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				reject(w, r, nil, apperrors.PayloadTooLarge(maxBytes))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
