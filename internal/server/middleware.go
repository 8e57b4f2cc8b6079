package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/markis/bizcoach/internal/logging"
	log "github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

type ctxKey struct{}

// entryFrom returns the request-scoped log entry.
func entryFrom(ctx context.Context) *log.Entry {
	if e, ok := ctx.Value(ctxKey{}).(*log.Entry); ok {
		return e
	}
	return log.NewEntry(logging.GetLogger())
}

// requestID tags each request with an id, reusing the caller's if present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		entry := logging.WithFields(log.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, entry)))
	})
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer's Flush.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		entryFrom(r.Context()).WithFields(log.Fields{
			"status":   rec.status,
			"duration": time.Since(start).Round(time.Millisecond),
		}).Info("request")
	})
}
