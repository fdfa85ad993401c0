package gateway

import "errors"

var (
	ErrIdRequired    = errors.New("ID is required")
	ErrMalformedBody = errors.New("request body must be a JSON object")
)
