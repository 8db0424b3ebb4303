package chat

import "errors"

var (
	// ErrEmptyMessage is returned when the user message is blank.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrMissingCredential is returned when no API credential is supplied.
	ErrMissingCredential = errors.New("api credential is required")

	// ErrEmptyReply is returned when the upstream model produces no text.
	ErrEmptyReply = errors.New("model returned an empty reply")
)
