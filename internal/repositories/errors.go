package repositories

import "errors"

var (
	ErrNotFound      = errors.New("record not found")
	ErrStatusChanged = errors.New("status changed concurrently")
)
