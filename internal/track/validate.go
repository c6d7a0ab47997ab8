package track

import (
	"errors"
	"fmt"
)

// ErrInvalidTrack is returned when a required field is empty after
// normalization. The whole batch is rejected; nothing is ever submitted
// partially.
var ErrInvalidTrack = errors.New("invalid track")

// DefaultDuration is the fallback length for tracks in a multi-track batch
// that carry no usable duration.
const DefaultDuration = 300

// Normalize applies the duration policy and the required-field gate,
// returning a copy of the batch ready for submission.
//
// A single-track batch always reports duration 0, whatever the input, so a
// lone playback is never rejected by the service's too-short heuristics. In
// a larger batch a missing duration becomes DefaultDuration and a set one
// is kept.
func Normalize(batch TrackBatch) (TrackBatch, error) {
	out := make(TrackBatch, len(batch))
	for i, t := range batch {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: track %d has no name", ErrInvalidTrack, i)
		}
		if t.Artist == "" {
			return nil, fmt.Errorf("%w: track %d has no artist", ErrInvalidTrack, i)
		}

		if len(batch) == 1 {
			t.Duration = 0
		} else if t.Duration <= 0 {
			t.Duration = DefaultDuration
		}
		out[i] = t
	}
	return out, nil
}
