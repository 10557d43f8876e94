package middleware

import (
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestObserver records per-request metrics. metrics.Metrics satisfies it.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// AccessLog logs one line per request and feeds observer when non-nil.
// Expected order in router: RequestID -> RealIP -> AccessLog -> Recover.
func AccessLog(logger log.Interface, observer RequestObserver) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.Log
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := newStatusRecorder(w)
			start := time.Now()
			next.ServeHTTP(recorder, r)
			elapsed := time.Since(start)

			route := routePattern(r)
			if observer != nil {
				observer.ObserveRequest(r.Method, route, recorder.statusCode, elapsed)
			}

			entry := logger.WithFields(log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       route,
				"status":      recorder.statusCode,
				"bytes":       recorder.bytes,
				"duration_ms": elapsed.Milliseconds(),
				"remote":      r.RemoteAddr,
				"request_id":  chimw.GetReqID(r.Context()),
				"outcome":     outcomeFromStatus(recorder.statusCode),
			})
			switch {
			case recorder.statusCode >= http.StatusInternalServerError:
				entry.Error("request")
			case recorder.statusCode >= http.StatusBadRequest:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
		})
	}
}

// statusRecorder captures the status and size of a response.
type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if sr, ok := w.(*statusRecorder); ok {
		return sr
	}
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.statusCode = statusCode
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// routePattern returns the matched chi pattern, or "" outside a chi router.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}

func outcomeFromStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "other"
	}
}
