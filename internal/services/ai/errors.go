package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed inference attempt.
type Kind string

const (
	KindNotFound     Kind = "HF_NOT_FOUND"
	KindUnauthorized Kind = "HF_UNAUTHORIZED"
	KindRateLimited  Kind = "HF_RATE_LIMIT"
	KindModelLoading Kind = "HF_LOADING"
	KindServerError  Kind = "HF_SERVER"
	KindNetworkError Kind = "HF_NETWORK"
	KindBadResponse  Kind = "HF_BAD_RESPONSE"
)

// maxDetailBytes bounds the upstream body excerpt kept on an error.
const maxDetailBytes = 200

// InferenceError is returned for every failed call to the inference API.
type InferenceError struct {
	Kind   Kind
	Status int
	Model  string
	// Detail holds at most maxDetailBytes of the upstream body, or the
	// transport error text.
	Detail string
	// Message replaces the default "<kind>: <model>" text when set.
	Message string
	Err     error
}

func (e *InferenceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Model)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Note is the short "<kind>:<model>" form recorded on fallback responses.
func (e *InferenceError) Note() string {
	return fmt.Sprintf("%s:%s", e.Kind, e.Model)
}

// KindOf returns the kind of an inference error, or "" for other errors.
func KindOf(err error) Kind {
	var ie *InferenceError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

// kindForStatus maps a non-2xx upstream status to an error kind.
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusServiceUnavailable:
		return KindModelLoading
	default:
		return KindServerError
	}
}

func truncate(b []byte) string {
	if len(b) > maxDetailBytes {
		b = b[:maxDetailBytes]
	}
	return string(b)
}
