package domain

import "errors"

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrUnsupportedFormat = errors.New("unsupported format pair")
	ErrNotFound          = errors.New("not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrAlreadyTerminal   = errors.New("conversion already terminal")
)
