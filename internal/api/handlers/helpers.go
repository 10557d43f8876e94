package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/matiasleandrokruk/nutrisense/internal/domain/nutrition"
)

const (
	headerContentType = "Content-Type"
	mimeJSON          = "application/json"

	// HeaderSource reports which pipeline step produced a resolution.
	HeaderSource = "X-Nutrition-Source"
)

// requestError is a client error detected at the handler boundary.
type requestError struct {
	status  int
	message string
}

func (e requestError) Error() string { return e.message }

func badRequest(message string) requestError {
	return requestError{status: http.StatusBadRequest, message: message}
}

var errInvalidBody = badRequest("invalid request body")

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		http.Error(w, `{"error":"failed to encode error response"}`, http.StatusInternalServerError)
	}
}

// NotFound answers unmatched routes with the error envelope.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// writeRequestError maps err to the error envelope. Anything that is not a
// requestError or an invalid-request domain error is reported as 500 with
// fallback as the message.
func writeRequestError(w http.ResponseWriter, err error, fallback string) {
	var reqErr requestError
	if errors.As(err, &reqErr) {
		writeError(w, reqErr.status, reqErr.message)
		return
	}
	if errors.Is(err, nutrition.ErrInvalidRequest) {
		writeError(w, http.StatusBadRequest, invalidRequestMessage(err))
		return
	}
	writeError(w, http.StatusInternalServerError, fallback)
}

func invalidRequestMessage(err error) string {
	var nerr *nutrition.Error
	if errors.As(err, &nerr) && nerr.Err != nil {
		return nerr.Err.Error()
	}
	return "invalid request"
}

// decodeBody decodes the JSON body of r into v, capping it at maxBytes when
// maxBytes is positive.
func decodeBody(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	body := r.Body
	if maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return requestError{status: http.StatusRequestEntityTooLarge, message: "request body too large"}
		}
		return errInvalidBody
	}
	return nil
}

func setSource(w http.ResponseWriter, src nutrition.Source) {
	w.Header().Set(HeaderSource, string(src))
}

// Weight is a gram amount sent either as a JSON number or a JSON string.
// Absent, empty or unusable values resolve to nutrition.ReferenceGrams.
type Weight struct {
	raw string
	set bool
}

// UnmarshalJSON accepts 200, 200.5, "200" and "200.5". Other JSON values
// are kept as unparsable so that Grams falls back to the default.
func (wt *Weight) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*wt = Weight{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*wt = Weight{raw: str, set: true}
		return nil
	}
	*wt = Weight{raw: s, set: true}
	return nil
}

// Grams returns the normalized weight in grams.
func (wt Weight) Grams() float64 {
	if !wt.set {
		return nutrition.ReferenceGrams
	}
	return nutrition.ParseWeight(wt.raw)
}

// queryFloat parses a query parameter as a float. Missing or malformed
// values yield 0.
func queryFloat(r *http.Request, key string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get(key)), 64)
	if err != nil {
		return 0
	}
	return v
}
