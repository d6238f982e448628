package payment

import "errors"

var (
	ErrInvalidInput = errors.New("invalid payment input")
	ErrProcessor    = errors.New("payment processor error")
	ErrDeclined     = errors.New("payment declined")
	ErrForbidden    = errors.New("payment instrument belongs to another user")
)
