package tracker

import "errors"

var (
	ErrNotFound     = errors.New("tracker: not found")
	ErrConflict     = errors.New("tracker: resource conflict")
	ErrInvalidInput = errors.New("tracker: invalid input")
)
