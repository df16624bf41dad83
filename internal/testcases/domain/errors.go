package domain

import "errors"

var (
	ErrNotFound     = errors.New("test case not found")
	ErrInvalidInput = errors.New("invalid input")
)
