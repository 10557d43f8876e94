package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/apex/log"
)

const internalErrorBody = `{"error":"internal server error"}`

// Recover turns a panic into a 500 error envelope so that no request ends
// with an empty body. http.ErrAbortHandler is re-raised.
func Recover(logger log.Interface) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.Log
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := newStatusRecorder(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint
					panic(rec)
				}
				logger.WithFields(log.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  fmt.Sprint(rec),
					"stack":  string(debug.Stack()),
				}).Error("panic recovered")

				if recorder.wroteHeader {
					return
				}
				recorder.Header().Set("Content-Type", "application/json")
				recorder.WriteHeader(http.StatusInternalServerError)
				recorder.Write([]byte(internalErrorBody)) //nolint:errcheck
			}()
			next.ServeHTTP(recorder, r)
		})
	}
}
