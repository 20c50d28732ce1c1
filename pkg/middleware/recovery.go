package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "jdpanel/pkg/errors"
	"jdpanel/pkg/logger"
)

// Recovery turns a handler panic into a 500 and logs the stack.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				log.Error("Panic recovered",
					"request_id", RequestIDFrom(r.Context()),
					"panic", fmt.Sprint(p),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				reject(w, r, nil, apperrors.Internal("Internal server error", fmt.Errorf("panic: %v", p)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
