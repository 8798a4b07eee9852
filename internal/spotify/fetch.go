// file: internal/spotify/fetch.go
package spotify

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/logging"
)

// Fetcher turns TrackClient results into Outcomes.
type Fetcher struct {
	client TrackClient
	logger logging.Logger
}

// NewFetcher creates a Fetcher for the given client.
func NewFetcher(client TrackClient, logger logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &Fetcher{
		client: client,
		logger: logger.WithField("component", "track_fetcher"),
	}
}

// FetchOne resolves a single identifier. The identifier is forwarded as-is,
// including the empty string. An error means the remote call itself failed.
func (f *Fetcher) FetchOne(ctx context.Context, id string) (Outcome, error) {
	track, err := f.client.GetTrack(ctx, id)
	if err != nil {
		return Outcome{}, errors.Wrapf(err, "failed to get track %q", id)
	}
	if track == nil {
		f.logger.Debug("Track not found.", "trackId", id)
		return Absent(id), nil
	}
	return Found(id, *track), nil
}

// FetchMany resolves ids with a single remote call and returns one Outcome
// per input, in input order. ok is false when the remote returned no
// sequence at all for a non-empty request.
func (f *Fetcher) FetchMany(ctx context.Context, ids []string) ([]Outcome, bool, error) {
	if len(ids) == 0 {
		return []Outcome{}, true, nil
	}

	tracks, err := f.client.GetTracks(ctx, ids)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get %d tracks", len(ids))
	}
	if len(tracks) == 0 {
		f.logger.Warn("Remote returned no tracks for a non-empty request.", "requested", len(ids))
		return nil, false, nil
	}
	if len(tracks) != len(ids) {
		f.logger.Warn("Remote returned a different number of tracks than requested.",
			"requested", len(ids), "returned", len(tracks))
	}

	outcomes := make([]Outcome, len(ids))
	for i, id := range ids {
		if i < len(tracks) && tracks[i] != nil {
			outcomes[i] = Found(id, *tracks[i])
			continue
		}
		outcomes[i] = Absent(id)
	}
	return outcomes, true, nil
}
