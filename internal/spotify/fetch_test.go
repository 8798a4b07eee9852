// file: internal/spotify/fetch_test.go
package spotify

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFetchOne(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		client := new(MockTrackClient)
		client.On("GetTrack", mock.Anything, "id1").Return(sampleTrack("id1", "Song"), nil)

		out, err := NewFetcher(client, nil).FetchOne(ctx, "id1")
		require.NoError(t, err)
		assert.Equal(t, OutcomeFound, out.Kind)
		assert.Equal(t, "Song", out.Track.Title)
		client.AssertExpectations(t)
	})

	t.Run("absent", func(t *testing.T) {
		client := new(MockTrackClient)
		client.On("GetTrack", mock.Anything, "").Return(nil, nil)

		out, err := NewFetcher(client, nil).FetchOne(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, OutcomeAbsent, out.Kind)
		assert.Equal(t, "", out.ID)
		assert.Nil(t, out.Track)
	})

	t.Run("remote failure", func(t *testing.T) {
		client := new(MockTrackClient)
		client.On("GetTrack", mock.Anything, "id1").Return(nil, errors.New("connection refused"))

		_, err := NewFetcher(client, nil).FetchOne(ctx, "id1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestFetchMany_PreservesOrderAndLength(t *testing.T) {
	ids := []string{"id1", "bogus", "id3", "id1"}
	client := new(MockTrackClient)
	client.On("GetTracks", mock.Anything, ids).Return([]*TrackRecord{
		sampleTrack("id1", "One"), nil, sampleTrack("id3", "Three"), sampleTrack("id1", "One"),
	}, nil).Once()

	outcomes, ok, err := NewFetcher(client, nil).FetchMany(context.Background(), ids)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, outcomes, len(ids))

	for i, id := range ids {
		assert.Equal(t, id, outcomes[i].ID, "slot %d", i)
	}
	assert.True(t, outcomes[0].IsFound())
	assert.Equal(t, OutcomeAbsent, outcomes[1].Kind)
	assert.True(t, outcomes[2].IsFound())
	assert.True(t, outcomes[3].IsFound())
	assert.Equal(t, 3, CountFound(outcomes))
	client.AssertNumberOfCalls(t, "GetTracks", 1)
}

func TestFetchMany_ShortAndLongResponses(t *testing.T) {
	ids := []string{"a", "b", "c"}

	short := new(MockTrackClient)
	short.On("GetTracks", mock.Anything, ids).Return([]*TrackRecord{sampleTrack("a", "A")}, nil)
	outcomes, ok, err := NewFetcher(short, nil).FetchMany(context.Background(), ids)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, outcomes, 3)
	assert.Equal(t, []OutcomeKind{OutcomeFound, OutcomeAbsent, OutcomeAbsent},
		[]OutcomeKind{outcomes[0].Kind, outcomes[1].Kind, outcomes[2].Kind})

	long := new(MockTrackClient)
	long.On("GetTracks", mock.Anything, ids).Return([]*TrackRecord{
		sampleTrack("a", "A"), sampleTrack("b", "B"), sampleTrack("c", "C"), sampleTrack("d", "D"),
	}, nil)
	outcomes, ok, err = NewFetcher(long, nil).FetchMany(context.Background(), ids)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, outcomes, 3)
}

func TestFetchMany_EmptyRemoteSequence(t *testing.T) {
	client := new(MockTrackClient)
	client.On("GetTracks", mock.Anything, []string{"a"}).Return(nil, nil)

	outcomes, ok, err := NewFetcher(client, nil).FetchMany(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, outcomes)
}

func TestFetchMany_RemoteFailure(t *testing.T) {
	client := new(MockTrackClient)
	client.On("GetTracks", mock.Anything, []string{"a", "b"}).Return(nil, errors.New("HTTP 503"))

	outcomes, _, err := NewFetcher(client, nil).FetchMany(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Nil(t, outcomes)
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestFetchMany_EmptyInputSkipsRemote(t *testing.T) {
	client := new(MockTrackClient)
	outcomes, ok, err := NewFetcher(client, nil).FetchMany(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, outcomes)
	client.AssertNotCalled(t, "GetTracks", mock.Anything, mock.Anything)
}
