package repository

import "errors"

var (
	// ErrUnknownSource indicates an UploadSource with no kind set
	ErrUnknownSource = errors.New("unknown upload source")
)
