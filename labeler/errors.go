package labeler

import "errors"

var (
	// ErrInvalidInput reports a caller contract violation such as a
	// score/label length mismatch or a non-positive k.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal reports a broken ranking invariant.
	ErrInternal = errors.New("internal error")

	// ErrClassifierUnavailable reports that the classifier could not score
	// an issue (model not loaded, embedder failure, no labels).
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrInvalidRecord reports an issue the classifier cannot score.
	ErrInvalidRecord = errors.New("invalid record")
)
