package songwriter

import (
	"errors"
	"fmt"
)

var (
	// ErrPromptRequired is returned when a new song is requested without a story prompt
	ErrPromptRequired = errors.New("a story prompt is required to write a new song")
	// ErrNoResponse is returned when the provider replies with an empty body
	ErrNoResponse = errors.New("no response from AI")
	// ErrMalformedResponse matches any reply that could not be decoded as a song
	ErrMalformedResponse = errors.New("AI response was not valid song JSON")
)

// MalformedResponseError carries the raw provider text that failed to decode
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: %v", ErrMalformedResponse.Error(), e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}
