// file: internal/spotify/render.go
package spotify

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Fixed responses.
const (
	MsgNoTrackIDs       = "No track IDs provided. Please supply between 1 and 50 Spotify track IDs."
	MsgNoTracksFound    = "No tracks found for the provided IDs."
	errorResponsePrefix = "Error retrieving track metadata: "
)

// FormatDuration renders milliseconds as M:SS, truncating partial seconds.
func FormatDuration(ms int) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func artistNames(artists []Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// RenderTrack renders the full metadata block for a single track.
func RenderTrack(t TrackRecord) string {
	var b strings.Builder
	b.WriteString("# Track Metadata\n\n")
	fmt.Fprintf(&b, "**Track**: \"%s\"\n", t.Title)
	fmt.Fprintf(&b, "**Artists**: %s\n", artistNames(t.Artists))
	fmt.Fprintf(&b, "**Album**: %s\n", t.AlbumTitle)
	fmt.Fprintf(&b, "**Duration**: %s\n", FormatDuration(t.DurationMs))
	fmt.Fprintf(&b, "**Popularity**: %d/100\n", t.Popularity)
	fmt.Fprintf(&b, "**Explicit**: %s\n", yesNo(t.Explicit))
	fmt.Fprintf(&b, "**ISRC**: %s\n", orDefault(t.ISRC, "N/A"))
	fmt.Fprintf(&b, "**Preview**: %s\n", orDefault(t.PreviewURL, "Not available"))
	fmt.Fprintf(&b, "**Spotify URL**: %s\n", t.CanonicalURL)
	fmt.Fprintf(&b, "**ID**: %s", t.ID)
	return b.String()
}

// RenderTrackNotFound renders the response for an identifier with no track.
func RenderTrackNotFound(id string) string {
	return fmt.Sprintf("Track with ID \"%s\" not found", id)
}

// RenderOutcome renders a single lookup outcome.
func RenderOutcome(o Outcome) string {
	if o.IsFound() {
		return RenderTrack(*o.Track)
	}
	return RenderTrackNotFound(o.ID)
}

func renderBatchEntry(position int, o Outcome) string {
	if !o.IsFound() {
		return fmt.Sprintf("[Invalid ID]: %s - Track not found", o.ID)
	}
	t := o.Track
	var b strings.Builder
	fmt.Fprintf(&b, "## %d. \"%s\"\n", position, t.Title)
	fmt.Fprintf(&b, "**Artists**: %s\n", artistNames(t.Artists))
	fmt.Fprintf(&b, "**Album**: %s\n", t.AlbumTitle)
	fmt.Fprintf(&b, "**Duration**: %s\n", FormatDuration(t.DurationMs))
	fmt.Fprintf(&b, "**Popularity**: %d/100\n", t.Popularity)
	fmt.Fprintf(&b, "**ID**: %s", t.ID)
	return b.String()
}

// RenderBatch renders one block per outcome in order, numbered from 1.
// Absent entries still consume their position number.
func RenderBatch(outcomes []Outcome) string {
	blocks := make([]string, 0, len(outcomes))
	for i, o := range outcomes {
		blocks = append(blocks, renderBatchEntry(i+1, o))
	}
	header := fmt.Sprintf("# Track Metadata (%d of %d tracks)", CountFound(outcomes), len(outcomes))
	return header + "\n\n" + strings.Join(blocks, "\n\n")
}

// RenderError renders a remote failure using the message of the innermost
// cause, without the wrapping context added on the way up.
func RenderError(err error) string {
	if err == nil {
		return errorResponsePrefix + "unknown error"
	}
	msg := errors.UnwrapAll(err).Error()
	if strings.TrimSpace(msg) == "" {
		msg = err.Error()
	}
	return errorResponsePrefix + msg
}
