// file: internal/spotify/mock_client_test.go
package spotify

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTrackClient is a testify mock of TrackClient.
type MockTrackClient struct {
	mock.Mock
}

func (m *MockTrackClient) GetTrack(ctx context.Context, id string) (*TrackRecord, error) {
	args := m.Called(ctx, id)
	track, _ := args.Get(0).(*TrackRecord)
	return track, args.Error(1)
}

func (m *MockTrackClient) GetTracks(ctx context.Context, ids []string) ([]*TrackRecord, error) {
	args := m.Called(ctx, ids)
	tracks, _ := args.Get(0).([]*TrackRecord)
	return tracks, args.Error(1)
}

func (m *MockTrackClient) HasCredentials() bool {
	return m.Called().Bool(0)
}

func sampleTrack(id, title string) *TrackRecord {
	return &TrackRecord{
		ID:           id,
		Title:        title,
		Artists:      []Artist{{ID: "a1", Name: "Artist One"}},
		AlbumTitle:   "Album of " + title,
		DurationMs:   225000,
		Popularity:   70,
		CanonicalURL: "https://open.spotify.com/track/" + id,
	}
}
