package notification

import "errors"

var (
	ErrNotFound    = errors.New("notification not found")
	ErrEmptyNotice = errors.New("notice needs a recipient and text")
)
