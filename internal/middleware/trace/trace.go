// Package trace assigns request IDs and reports each finished request.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// HeaderRequestID carries the request ID in and out.
const HeaderRequestID = "X-Request-ID"

// Completion describes a finished request.
type Completion struct {
	Request   *http.Request
	Status    int
	Bytes     int
	Duration  time.Duration
	RequestID string
}

// Middleware tags requests with an ID and hands every completion to a
// callback.
type Middleware struct {
	onComplete func(Completion)
	total      atomic.Int64
	failed     atomic.Int64
}

func NewMiddleware(onComplete func(Completion)) *Middleware {
	return &Middleware{onComplete: onComplete}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(HeaderRequestID)
		if !validID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		r = r.WithContext(WithRequestID(r.Context(), id))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.total.Add(1)
		if rw.statusCode >= 500 {
			m.failed.Add(1)
		}
		if m.onComplete != nil {
			m.onComplete(Completion{
				Request:   r,
				Status:    rw.statusCode,
				Bytes:     rw.bytes,
				Duration:  time.Since(start),
				RequestID: id,
			})
		}
	})
}

// validID accepts short printable client-supplied IDs.
func validID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the ID stored by the middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestIDFromRequest adapts RequestID for middleware that take a request.
func RequestIDFromRequest(r *http.Request) string {
	return RequestID(r.Context())
}

// Totals returns the number of requests served and how many ended in 5xx.
func (m *Middleware) Totals() (total, failed int64) {
	return m.total.Load(), m.failed.Load()
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
