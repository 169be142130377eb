package ledger

import "errors"

// Errors returned by ledger operations. Callers match with errors.Is to
// pick differentiated retry policies.
var (
	// ErrValidation indicates the caller supplied invalid input. Not retriable.
	ErrValidation = errors.New("invalid input")
	// ErrUnsupportedMediaType indicates the content type is not an accepted
	// image format. Not retriable.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrConcurrentModification indicates a concurrent writer won the race
	// and bounded retries were exhausted. The whole operation may be retried.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrBackendUnavailable indicates a transport or auth failure talking to
	// the blob store. Retriable with backoff.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNotFound indicates a required blob does not exist. A missing ledger
	// document is not an error; it reads as an empty ledger.
	ErrNotFound = errors.New("asset not found")
)
