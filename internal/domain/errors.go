package domain

import "errors"

var (
	// ErrInvalidQuery signals a missing or malformed request parameter.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrIndexUnavailable signals a keyword or vector index failure.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrInference signals an inference resource failure or malformed model output.
	ErrInference = errors.New("inference error")
	// ErrEngineClosed signals an operation on a shut-down engine.
	ErrEngineClosed = errors.New("engine closed")
)
