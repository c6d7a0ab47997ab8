package track

import (
	"errors"
	"reflect"
	"testing"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		batch TrackBatch
	}{
		{
			name:  "empty batch",
			batch: TrackBatch{},
		},
		{
			name: "single track",
			batch: TrackBatch{
				{Name: "Karma Police", Artist: "Radiohead", Album: "OK Computer"},
			},
		},
		{
			name: "multiple tracks preserve order",
			batch: TrackBatch{
				{Name: "Airbag", Artist: "Radiohead", Album: "OK Computer"},
				{Name: "Paranoid Android", Artist: "Radiohead", Album: "OK Computer"},
				{Name: "Subterranean Homesick Alien", Artist: "Radiohead", Album: "OK Computer"},
			},
		},
		{
			name: "delimiter characters in values",
			batch: TrackBatch{
				{Name: "Track & Field = 100%", Artist: "A|B [artist]", Album: "Album?key=value"},
				{Name: "track[1]", Artist: "artist[0]", Album: ""},
			},
		},
		{
			name: "missing album",
			batch: TrackBatch{
				{Name: "Chan Chan", Artist: "Buena Vista Social Club"},
			},
		},
		{
			name: "durations survive the round trip",
			batch: TrackBatch{
				{Name: "Airbag", Artist: "Radiohead", Album: "OK Computer", Duration: 284},
				{Name: "Paranoid Android", Artist: "Radiohead", Album: "OK Computer", Duration: 387},
				{Name: "Fitter Happier", Artist: "Radiohead", Album: "OK Computer"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := Decode(Encode(tt.batch))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if len(tt.batch) == 0 {
				if len(decoded) != 0 {
					t.Errorf("Expected empty batch, got %d tracks", len(decoded))
				}
				return
			}
			if !reflect.DeepEqual(decoded, tt.batch) {
				t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", decoded, tt.batch)
			}
		})
	}
}

func TestDecode_MalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{
			name:    "index gap",
			encoded: "track%5B0%5D=a&artist%5B0%5D=b&track%5B2%5D=c&artist%5B2%5D=d",
		},
		{
			name:    "invalid query escape",
			encoded: "track%5B0%5D=%zz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.encoded)
			if !errors.Is(err, ErrMalformedBatch) {
				t.Errorf("Expected ErrMalformedBatch, got %v", err)
			}
		})
	}
}

func TestParseFreeText_PreservesOrder(t *testing.T) {
	lines := []string{"First Song", "Second Song", "Third Song"}

	batch := ParseFreeText(lines)

	if len(batch) != 3 {
		t.Fatalf("Expected 3 tracks, got %d", len(batch))
	}
	for i, line := range lines {
		if batch[i].Name != line {
			t.Errorf("Track %d name = %q, want %q", i, batch[i].Name, line)
		}
		if batch[i].Artist != "" || batch[i].Album != "" {
			t.Errorf("Track %d should have empty artist and album, got %+v", i, batch[i])
		}
	}
}

func TestParseTrackList(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  TrackBatch
	}{
		{
			name:  "full form",
			lines: []string{"Radiohead | Airbag | OK Computer"},
			want:  TrackBatch{{Name: "Airbag", Artist: "Radiohead", Album: "OK Computer"}},
		},
		{
			name:  "no album",
			lines: []string{"Gorillaz | Clint Eastwood"},
			want:  TrackBatch{{Name: "Clint Eastwood", Artist: "Gorillaz"}},
		},
		{
			name:  "name only line",
			lines: []string{"Clint Eastwood"},
			want:  TrackBatch{{Name: "Clint Eastwood"}},
		},
		{
			name: "mixed forms keep order",
			lines: []string{
				"Radiohead | Airbag | OK Computer",
				"Gorillaz | Clint Eastwood",
			},
			want: TrackBatch{
				{Name: "Airbag", Artist: "Radiohead", Album: "OK Computer"},
				{Name: "Clint Eastwood", Artist: "Gorillaz"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTrackList(tt.lines)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTrackList:\n got %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	lines := SplitLines("  First \n\n Second\n   \nThird")

	want := []string{"First", "Second", "Third"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("SplitLines = %v, want %v", lines, want)
	}
}
