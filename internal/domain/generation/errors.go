package generation

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse marks a backend payload that does not match its schema.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrSubmissionInFlight rejects a submission while another is running.
	ErrSubmissionInFlight = errors.New("a generation is already in progress")
	ErrEmptyPrompt        = errors.New("prompt is empty")
)

// StatusError is a non-OK HTTP answer from the backend.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

// Alert texts. Exactly one is raised for every failed or timed-out run.
const (
	MsgSubmitRejected  = "Error generating image. Please try again."
	MsgSubmitFailed    = "An error occurred. Please try again."
	MsgPollTimedOut    = "Polling timed out. Please try again later."
	MsgServerBudget    = "Server error. Max retries reached."
	MsgStatusRejected  = "Error retrieving task status. Please try again."
	MsgStatusFailed    = "An error occurred while checking task status."
	MsgInFlight        = "A generation is already in progress."
	MsgEmptyPrompt     = "Please enter a prompt."
	MsgSaveFailed      = "The image was generated but could not be saved to the gallery."
	msgRetriesExceeded = "Error: %s. Max retries reached."
)

func retriesExceededMessage(reason string) string {
	if reason == "" {
		reason = "task failed"
	}
	return fmt.Sprintf(msgRetriesExceeded, reason)
}
