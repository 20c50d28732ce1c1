package middleware

import (
	"mime"
	"net/http"

	apperrors "jdpanel/pkg/errors"
	"jdpanel/pkg/logger"
)

const jsonContentType = "application/json"

// ContentTypeValidation requires application/json on write requests that
// carry a body. Bodyless actions such as POST /sync pass through.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !carriesBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != jsonContentType {
				reject(w, r, log, apperrors.UnsupportedMediaType(jsonContentType),
					"content_type", r.Header.Get("Content-Type"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func carriesBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	default:
		return false
	}
}
