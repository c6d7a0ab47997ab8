package track

// Track is a single playable-track record. Fields are mutable while a batch
// is being composed and are treated as frozen once a submission attempt has
// been recorded against them.
type Track struct {
	Name     string
	Artist   string
	Album    string
	Duration int // seconds; 0 means "not set" until the validator has run
}

// TrackBatch is an ordered list of tracks submitted together. The order is
// the submission order and survives encode/decode round-trips.
type TrackBatch []Track
