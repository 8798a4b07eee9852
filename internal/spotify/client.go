// file: internal/spotify/client.go
package spotify

import "context"

// TrackClient is the remote collaborator that resolves track identifiers.
type TrackClient interface {
	// GetTrack looks up a single track. A nil record with a nil error means
	// the Web API has no track for the identifier.
	GetTrack(ctx context.Context, id string) (*TrackRecord, error)

	// GetTracks looks up tracks in one request. The result is positional:
	// slot i answers for ids[i] and a nil slot means no track was found.
	GetTracks(ctx context.Context, ids []string) ([]*TrackRecord, error)

	// HasCredentials reports whether the client is configured to authenticate.
	HasCredentials() bool
}
