package datalayer

import "errors"

var (
	ErrUnknownMacro  = errors.New("unknown function call macro")
	ErrInvalidParams = errors.New("invalid macro parameters")
)
