package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	apperrors "jdpanel/pkg/errors"
)

// guardedWriter drops handler writes once the deadline response has gone out.
type guardedWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	header  http.Header
	status  int
	expired bool
}

func (g *guardedWriter) Header() http.Header { return g.header }

func (g *guardedWriter) WriteHeader(status int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writeHeaderLocked(status)
}

func (g *guardedWriter) writeHeaderLocked(status int) {
	if g.expired || g.status != 0 {
		return
	}
	g.status = status
	dst := g.w.Header()
	for k, v := range g.header {
		dst[k] = v
	}
	g.w.WriteHeader(status)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expired {
		return 0, http.ErrHandlerTimeout
	}
	g.writeHeaderLocked(http.StatusOK)
	return g.w.Write(b)
}

// expire reports whether the handler had not started its response yet.
func (g *guardedWriter) expire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expired = true
	return g.status == 0
}

// RequestTimeout bounds every request, and with it every outbound gateway
// call made on the request context.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			gw := &guardedWriter{w: w, header: make(http.Header)}
			done := make(chan struct{})
			panicked := make(chan any, 1)
			go func() {
				defer close(done)
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(gw, r)
			}()

			// Panics are re-raised here so Recovery, which runs on this
			// goroutine, still sees them.
			select {
			case <-done:
				select {
				case p := <-panicked:
					panic(p)
				default:
				}
			case <-ctx.Done():
				if gw.expire() {
					reject(w, r, nil, apperrors.Timeout("Request timeout"))
				}
			}
		})
	}
}
