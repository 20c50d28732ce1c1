package middleware

import (
	"bytes"
	"net/http"

	apperrors "jdpanel/pkg/errors"
	httputil "jdpanel/pkg/http"
	"jdpanel/pkg/logger"
)

// reject logs why the chain stopped and renders err in the same envelope the
// handlers use.
func reject(w http.ResponseWriter, r *http.Request, log *logger.Logger, err *apperrors.AppError, attrs ...any) {
	if log != nil {
		log.Warn("Request rejected", append([]any{
			"request_id", RequestIDFrom(r.Context()),
			"code", err.Code,
			"method", r.Method,
			"path", r.URL.Path,
		}, attrs...)...)
	}
	_ = httputil.WriteError(w, err)
}

// recorder remembers the first status written. When body is non-nil it also
// keeps a copy of everything written.
type recorder struct {
	http.ResponseWriter
	status int
	body   *bytes.Buffer
}

func (rw *recorder) WriteHeader(status int) {
	if rw.status != 0 {
		return
	}
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *recorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.body != nil {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *recorder) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}
