// Package spotify implements track metadata retrieval from the Spotify Web API
// and exposes it as MCP tools.
// file: internal/spotify/types.go
package spotify

// Artist is a credited artist on a track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TrackRecord is the normalized metadata for one track.
// PreviewURL and ISRC are empty when the Web API does not provide them.
type TrackRecord struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Artists      []Artist `json:"artists"`
	AlbumTitle   string   `json:"albumTitle"`
	DurationMs   int      `json:"durationMs"`
	Popularity   int      `json:"popularity"`
	Explicit     bool     `json:"explicit"`
	PreviewURL   string   `json:"previewUrl,omitempty"`
	ISRC         string   `json:"isrc,omitempty"`
	CanonicalURL string   `json:"canonicalUrl"`
}

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	// OutcomeFound means the identifier resolved to a record.
	OutcomeFound OutcomeKind = iota + 1
	// OutcomeAbsent means the Web API had no record for the identifier.
	OutcomeAbsent
)

// String implements fmt.Stringer.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFound:
		return "found"
	case OutcomeAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Outcome is the result of resolving a single identifier.
// Track is set only for OutcomeFound; ID always holds the requested identifier.
type Outcome struct {
	Kind  OutcomeKind
	ID    string
	Track *TrackRecord
}

// Found builds an Outcome for a resolved record.
func Found(id string, track TrackRecord) Outcome {
	track.ID = id
	return Outcome{Kind: OutcomeFound, ID: id, Track: &track}
}

// Absent builds an Outcome for an identifier with no record.
func Absent(id string) Outcome {
	return Outcome{Kind: OutcomeAbsent, ID: id}
}

// IsFound reports whether the outcome carries a record.
func (o Outcome) IsFound() bool {
	return o.Kind == OutcomeFound && o.Track != nil
}

// CountFound returns the number of found outcomes.
func CountFound(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.IsFound() {
			n++
		}
	}
	return n
}
