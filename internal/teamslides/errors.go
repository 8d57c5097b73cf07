package teamslides

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemplateNotFound = errors.New("template not found")
	ErrExampleNotFound  = errors.New("example slide not found")
)
