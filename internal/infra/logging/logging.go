// Package logging builds the apex/log logger shared by the service.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// Formats accepted by New.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New returns a logger writing to w at the given level ("debug", "info",
// "warn", "error", "fatal") in the given format ("json" or "text").
func New(level, format string, w io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	var h log.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		h = json.New(w)
	case FormatText, "":
		h = text.New(w)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
	return &log.Logger{Handler: h, Level: lvl}, nil
}

// Discard returns a logger that drops every entry.
func Discard() *log.Logger {
	return &log.Logger{Handler: discard.New(), Level: log.FatalLevel}
}

// OrDefault returns l, or the package-level apex logger when l is nil.
func OrDefault(l log.Interface) log.Interface {
	if l == nil {
		return log.Log
	}
	return l
}
