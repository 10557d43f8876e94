package api

import "errors"

var (
	// ErrMissingService is returned by NewRouter when Deps.Service is nil.
	ErrMissingService = errors.New("router requires a nutrition service")
)
