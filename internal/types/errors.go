package types

import "fmt"

type ErrorCode string

const (
	ErrQuotaExceeded         ErrorCode = "QUOTA_EXCEEDED"
	ErrInvalidReference      ErrorCode = "INVALID_REFERENCE"
	ErrUpstreamInitTimeout   ErrorCode = "UPSTREAM_INIT_TIMEOUT"
	ErrUpstreamInfoTimeout   ErrorCode = "UPSTREAM_INFO_TIMEOUT"
	ErrVideoTooLong          ErrorCode = "VIDEO_TOO_LONG"
	ErrTranscriptUnavailable ErrorCode = "TRANSCRIPT_UNAVAILABLE"
	ErrNoTranscriptContent   ErrorCode = "NO_TRANSCRIPT_CONTENT"
	ErrCompletionProvider    ErrorCode = "COMPLETION_PROVIDER_ERROR"
	ErrCompletionStream      ErrorCode = "COMPLETION_STREAM_ERROR"
	ErrCallerDisconnected    ErrorCode = "CALLER_DISCONNECTED"
	ErrUnknown               ErrorCode = "UNKNOWN_ERROR"
)

// Exposed reports whether the code is written on the wire next to the message.
// Quota and reference errors carry only the localized message.
func (c ErrorCode) Exposed() bool {
	switch c {
	case "", ErrQuotaExceeded, ErrInvalidReference, ErrCallerDisconnected:
		return false
	default:
		return true
	}
}

// StageError is returned by pipeline stages so the controller can map a
// failure to exactly one terminal event.
type StageError struct {
	Code ErrorCode
	Err  error
}

func NewStageError(code ErrorCode, err error) *StageError {
	return &StageError{Code: code, Err: err}
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
