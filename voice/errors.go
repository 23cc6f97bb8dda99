package voice

import (
	"errors"
	"fmt"
)

// DecodeError indicates the input bytes are not a decodable audio container.
// Terminal for the request and attributable to the caller's input.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("audio decode failed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EmptyAudioError indicates decoding succeeded but yielded zero samples.
// Terminal for the request and attributable to the caller's input.
type EmptyAudioError struct{}

func (e *EmptyAudioError) Error() string { return "decoded audio contains no samples" }

// FeatureComputationError indicates the extractor could not run at all.
// Individual feature-group failures never raise this; they fall back to
// zero defaults. Terminal for the request and attributable to the server.
type FeatureComputationError struct {
	Err error
}

func (e *FeatureComputationError) Error() string {
	return fmt.Sprintf("feature extraction failed: %v", e.Err)
}

func (e *FeatureComputationError) Unwrap() error { return e.Err }

// IsClientFault reports whether err should be surfaced as a client-input
// fault rather than a server fault.
func IsClientFault(err error) bool {
	var decodeErr *DecodeError
	var emptyErr *EmptyAudioError
	return errors.As(err, &decodeErr) || errors.As(err, &emptyErr)
}
