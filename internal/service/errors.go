package service

import "errors"

// Upload failures. Returned errors wrap one of these and the cause, so both
// match with errors.Is.
var (
	ErrServiceUnready       = errors.New("model backend is not ready")
	ErrDocumentStore        = errors.New("could not store document")
	ErrBadDocument          = errors.New("unreadable document")
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")
	ErrIndexBuildFailed     = errors.New("index build failed")
)

// Ask failures.
var (
	ErrNoDocument       = errors.New("no document uploaded")
	ErrEmptyQuestion    = errors.New("empty question")
	ErrGenerationFailed = errors.New("failed to answer question")
)

// Result maps an error from Upload or Ask to a short label for metrics and
// logs.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrServiceUnready):
		return "unready"
	case errors.Is(err, ErrDocumentStore):
		return "store_failed"
	case errors.Is(err, ErrBadDocument):
		return "bad_document"
	case errors.Is(err, ErrEmbeddingUnavailable):
		return "embedding_unavailable"
	case errors.Is(err, ErrIndexBuildFailed):
		return "index_failed"
	case errors.Is(err, ErrNoDocument):
		return "no_document"
	case errors.Is(err, ErrEmptyQuestion):
		return "empty_question"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	default:
		return "error"
	}
}
