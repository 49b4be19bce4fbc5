package container

import "errors"

var (
	ErrFetchTimeout       = errors.New("container fetch timed out")
	ErrFetchFailure       = errors.New("container fetch failed")
	ErrProviderStatus     = errors.New("unexpected container provider status")
	ErrMalformedContainer = errors.New("malformed container document")
	ErrNotFound           = errors.New("container not found")
)
