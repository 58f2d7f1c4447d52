package manager

import "errors"

var (
	ErrAlreadyRunning = errors.New("server is already running")
	ErrNotRunning     = errors.New("server is not running")
	ErrAlreadyExists  = errors.New("server already exists")
	ErrInvalidName    = errors.New("invalid server name")
	ErrNotFound       = errors.New("server not found")
)
