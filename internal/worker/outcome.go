package worker

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTranscript   = errors.New("transform returned no chunks")
	ErrTransformTimeout  = errors.New("transform timed out")
	ErrTransformPanicked = errors.New("transform panicked")
)

// Outcome is the result of running the transform for a single work item.
// A zero Err means success; the chunks may still be empty, in which case the item
// is reconciled as failed.
type Outcome struct {
	Chunks []string
	Err    error
}

func Success(chunks []string) Outcome {
	return Outcome{Chunks: chunks}
}

func Failure(err error) Outcome {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return Outcome{Err: err}
}

func (o Outcome) IsSuccess() bool {
	return o.Err == nil
}

// HasTranscript is true when the outcome carries at least one chunk to persist.
func (o Outcome) HasTranscript() bool {
	return o.IsSuccess() && len(o.Chunks) > 0
}

func (o Outcome) String() string {
	if o.IsSuccess() {
		return fmt.Sprintf("success(%d chunks)", len(o.Chunks))
	}
	return fmt.Sprintf("failure(%s)", o.Err)
}
