package backend

import "errors"

// Error taxonomy for backend communication. Strategies wrap these sentinels
// with detail via fmt.Errorf("%w: ..."); callers classify with errors.Is.
var (
	// ErrConnectionFailed means the server could not be reached at all.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrRequestFailed means the server answered with a non-success status,
	// or a queued job did not finish within the poll budget.
	ErrRequestFailed = errors.New("request failed")

	// ErrVoiceNotFound means the named voice does not exist on the server.
	ErrVoiceNotFound = errors.New("voice not found")

	// ErrInvalidResponse means the response body did not parse into the
	// expected shape or lacked a required field.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrFileNotFound means a local audio file was missing before any
	// network call was attempted.
	ErrFileNotFound = errors.New("file not found")

	// ErrBackend means the server itself signaled a job failure.
	ErrBackend = errors.New("backend error")
)
