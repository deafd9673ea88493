package pipeline

import "errors"

var (
	// ErrNoContext means neither the vector index nor the stored document
	// text yielded anything to ground an answer on. Surfaced to the caller
	// as a user-visible condition; the generator is never invoked.
	ErrNoContext = errors.New("document has no readable text to answer from")

	// ErrGenerationFailed means every candidate model failed. The caller
	// still receives the failure-marker answer text alongside this error.
	ErrGenerationFailed = errors.New("all candidate models failed to generate an answer")
)
