package track

import (
	"errors"
	"testing"
)

func TestNormalize_DurationPolicy(t *testing.T) {
	tests := []struct {
		name          string
		batch         TrackBatch
		wantDurations []int
	}{
		{
			name:          "single track duration always zero",
			batch:         TrackBatch{{Name: "a", Artist: "b", Duration: 247}},
			wantDurations: []int{0},
		},
		{
			name:          "single track without duration stays zero",
			batch:         TrackBatch{{Name: "a", Artist: "b"}},
			wantDurations: []int{0},
		},
		{
			name: "multi track missing duration gets default",
			batch: TrackBatch{
				{Name: "a", Artist: "x"},
				{Name: "b", Artist: "x", Duration: 180},
			},
			wantDurations: []int{DefaultDuration, 180},
		},
		{
			name: "multi track negative duration gets default",
			batch: TrackBatch{
				{Name: "a", Artist: "x", Duration: -1},
				{Name: "b", Artist: "x", Duration: 200},
			},
			wantDurations: []int{DefaultDuration, 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.batch)
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			for i, want := range tt.wantDurations {
				if got[i].Duration != want {
					t.Errorf("Track %d duration = %d, want %d", i, got[i].Duration, want)
				}
			}
		})
	}
}

func TestNormalize_RequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		batch TrackBatch
	}{
		{
			name:  "missing name",
			batch: TrackBatch{{Artist: "x"}},
		},
		{
			name:  "missing artist",
			batch: TrackBatch{{Name: "a"}},
		},
		{
			name: "one bad track rejects whole batch",
			batch: TrackBatch{
				{Name: "a", Artist: "x"},
				{Name: "b"},
				{Name: "c", Artist: "x"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.batch)
			if !errors.Is(err, ErrInvalidTrack) {
				t.Errorf("Expected ErrInvalidTrack, got %v", err)
			}
			if got != nil {
				t.Errorf("Expected nil batch on validation failure, got %+v", got)
			}
		})
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	batch := TrackBatch{{Name: "a", Artist: "x", Duration: 123}}

	if _, err := Normalize(batch); err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if batch[0].Duration != 123 {
		t.Errorf("Input batch mutated: duration = %d, want 123", batch[0].Duration)
	}
}
