package nutrition

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// DecodeImage accepts a data URI ("data:image/jpeg;base64,...") or bare
// base64 (standard or URL alphabet, padding optional) and returns the bytes
// and their MIME type. Bare payloads are sniffed.
func DecodeImage(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	mime := ""
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, "", invalidRequest("decode image", "data URI must be base64 encoded")
		}
		mime = strings.TrimSuffix(meta, ";base64")
		payload = data
	}

	data, err := decodeBase64(payload)
	if err != nil || len(data) == 0 {
		return nil, "", invalidRequest("decode image", "image payload is not valid base64")
	}

	sniffed := http.DetectContentType(data)
	if mime == "" {
		mime = sniffed
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, "", invalidRequest("decode image", "payload is not an image")
	}
	return data, mime, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
	s = strings.TrimRight(s, "=")
	if strings.ContainsAny(s, "-_") {
		return base64.RawURLEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}
