package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// Headers browsers may send on cross-origin calls to the API.
var corsAllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// CORS allows every origin and answers every OPTIONS request with an empty
// 200. The allow headers are set on every response, including errors and
// requests without an Origin header.
func CORS(exposedHeaders ...string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:     corsAllowedHeaders,
		ExposedHeaders:     exposedHeaders,
		OptionsPassthrough: true,
	})
	allowHeaders := strings.Join(corsAllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		fixed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
		return c.Handler(fixed)
	}
}
