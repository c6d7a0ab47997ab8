// Package track converts between free-form text, querystring-encoded forms,
// and normalized track batches.
package track

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrMalformedBatch is returned when an encoded form cannot be decoded into
// a batch, e.g. because the index sequence has gaps.
var ErrMalformedBatch = errors.New("malformed track batch")

// Encode serializes a batch into a flat indexed querystring
// (track[0]=...&artist[0]=...&album[0]=...). Values are percent-escaped, so
// user text containing '&', '=' or '%' survives a round-trip. The output is
// self-describing: Decode needs nothing but the string.
func Encode(batch TrackBatch) string {
	values := url.Values{}
	for i, t := range batch {
		values.Set(fmt.Sprintf("track[%d]", i), t.Name)
		values.Set(fmt.Sprintf("artist[%d]", i), t.Artist)
		values.Set(fmt.Sprintf("album[%d]", i), t.Album)
		if t.Duration > 0 {
			values.Set(fmt.Sprintf("duration[%d]", i), strconv.Itoa(t.Duration))
		}
	}
	return values.Encode()
}

// Decode is the inverse of Encode. The batch length is the number of indexed
// track fields; tracks are rebuilt in index order. A gap in the index
// sequence is corrupt input and fails with ErrMalformedBatch. No validation
// is applied here; that is the validator's job.
func Decode(encoded string) (TrackBatch, error) {
	values, err := url.ParseQuery(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBatch, err)
	}

	count := 0
	for key := range values {
		if strings.HasPrefix(key, "track[") {
			count++
		}
	}

	batch := make(TrackBatch, 0, count)
	for i := 0; i < count; i++ {
		nameKey := fmt.Sprintf("track[%d]", i)
		if !values.Has(nameKey) {
			return nil, fmt.Errorf("%w: missing index %d", ErrMalformedBatch, i)
		}
		// A missing or non-numeric duration decodes to 0; the validator
		// re-applies the default policy before submission.
		duration, _ := strconv.Atoi(values.Get(fmt.Sprintf("duration[%d]", i)))

		batch = append(batch, Track{
			Name:     values.Get(nameKey),
			Artist:   values.Get(fmt.Sprintf("artist[%d]", i)),
			Album:    values.Get(fmt.Sprintf("album[%d]", i)),
			Duration: duration,
		})
	}

	return batch, nil
}

// ParseFreeText builds a batch from free-form lines, one track name per
// line, preserving line order. Artist and album are left blank; the caller
// fills them in from context before validation.
func ParseFreeText(lines []string) TrackBatch {
	batch := make(TrackBatch, 0, len(lines))
	for _, line := range lines {
		batch = append(batch, Track{Name: strings.TrimSpace(line)})
	}
	return batch
}

// ParseTrackList builds a batch from tracklist lines of the form
// "Artist | Title | Album", the album part optional. A line without
// separators becomes a name-only track, which the validator will reject.
func ParseTrackList(lines []string) TrackBatch {
	batch := make(TrackBatch, 0, len(lines))
	for _, line := range lines {
		parts := strings.Split(line, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		t := Track{}
		switch len(parts) {
		case 1:
			t.Name = parts[0]
		case 2:
			t.Artist = parts[0]
			t.Name = parts[1]
		default:
			t.Artist = parts[0]
			t.Name = parts[1]
			t.Album = parts[2]
		}
		batch = append(batch, t)
	}
	return batch
}

// SplitLines splits a chat message into non-empty trimmed lines.
func SplitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
