package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job id has no directory on disk
	ErrJobNotFound = errors.New("job not found")

	// ErrOCRFailure is returned when the document-intelligence API call failed
	// or returned no usable text
	ErrOCRFailure = errors.New("document extraction failed")

	// ErrLLMFailure is returned when the LLM request failed after retries
	ErrLLMFailure = errors.New("LLM request failed")

	// ErrEmptyCompletion is returned when the LLM kept returning empty content
	ErrEmptyCompletion = errors.New("empty completion from LLM")

	// ErrMalformedResponse is returned when LLM output is not valid JSON after
	// stripping markdown code fences
	ErrMalformedResponse = errors.New("malformed LLM response")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
