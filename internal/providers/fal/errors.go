package fal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("fal: api key is required")

// ProviderError reports a non-success HTTP status from a provider call.
// Detail carries whatever diagnostic text could be read from the body.
type ProviderError struct {
	Status int
	Detail string
}

func (e *ProviderError) Error() string {
	if strings.TrimSpace(e.Detail) != "" {
		return fmt.Sprintf("fal: HTTP %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("fal: HTTP %d", e.Status)
}

// ImageFetchError reports a failed download of an image URL found in a
// provider response.
type ImageFetchError struct {
	Status int
}

func (e *ImageFetchError) Error() string {
	return fmt.Sprintf("fal: image fetch HTTP %d", e.Status)
}

// MissingImageError means no extraction strategy found an image in the
// provider response. It is definitive and never retried.
type MissingImageError struct {
	Operation string
}

func (e *MissingImageError) Error() string {
	return fmt.Sprintf("fal: %s response missing image", e.Operation)
}

// ProtocolError reports a queue submit response that lacked both a status
// URL and a request id.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "fal: " + e.Reason
}

// PollExhaustedError means the consecutive-error ceiling was reached while
// polling a queued request.
type PollExhaustedError struct {
	Operation string
	Errors    int
}

func (e *PollExhaustedError) Error() string {
	return fmt.Sprintf("fal: %s polling aborted after %d consecutive errors", e.Operation, e.Errors)
}

// PollTimeoutError means the attempt ceiling was reached while the queued
// request was still in progress.
type PollTimeoutError struct {
	Operation string
	Attempts  int
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("fal: %s polling timed out after %d attempts", e.Operation, e.Attempts)
}

// ProviderJobFailedError means the provider reported the queued request as
// definitively failed. Detail carries the provider's error or log text.
type ProviderJobFailedError struct {
	Operation string
	Detail    string
}

func (e *ProviderJobFailedError) Error() string {
	if strings.TrimSpace(e.Detail) != "" {
		return fmt.Sprintf("fal: %s failed: %s", e.Operation, e.Detail)
	}
	return fmt.Sprintf("fal: %s failed", e.Operation)
}
