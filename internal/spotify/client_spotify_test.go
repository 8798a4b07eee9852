// file: internal/spotify/client_spotify_test.go
package spotify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkoosis/spotignition/internal/mcperror"
	"github.com/dkoosis/spotignition/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const fullTrackJSON = `{
  "id": "11dFghVXANMlKmJXsNCbNl",
  "name": "Cut To The Feeling",
  "artists": [{"id": "6sFIWsNpZYqfjUpaCgueju", "name": "Carly Rae Jepsen"}],
  "album": {"id": "0tGPJ0bkWOUmH7MEOR77qc", "name": "Cut To The Feeling"},
  "duration_ms": 225000,
  "popularity": 63,
  "explicit": false,
  "preview_url": null,
  "external_ids": {"isrc": "USUM71703861"},
  "external_urls": {"spotify": "https://open.spotify.com/track/11dFghVXANMlKmJXsNCbNl"}
}`

// relinkedInputID is served under a different track id, as the Web API
// does for market-relinked tracks.
const relinkedInputID = "1VbsSYNXKBpjPvqddk8zjs"

const relinkedTrackJSON = `{
  "id": "6kLCHFM39wkFjOuyPGLGeQ",
  "name": "Heaven and Hell",
  "artists": [{"id": "5IH6FPUwQTxPSXurCrcIov", "name": "Alec Benjamin"}],
  "album": {"id": "6ACwFwKD6kVb5Mwlek8J6J", "name": "Heaven and Hell"},
  "duration_ms": 181000,
  "popularity": 55,
  "explicit": false,
  "external_ids": {"isrc": "USAT21600001"},
  "external_urls": {"spotify": "https://open.spotify.com/track/6kLCHFM39wkFjOuyPGLGeQ"},
  "linked_from": {
    "id": "1VbsSYNXKBpjPvqddk8zjs",
    "type": "track",
    "uri": "spotify:track:1VbsSYNXKBpjPvqddk8zjs",
    "external_urls": {"spotify": "https://open.spotify.com/track/1VbsSYNXKBpjPvqddk8zjs"}
  }
}`

type fakeWebAPI struct {
	server      *httptest.Server
	tokenHits   atomic.Int32
	lastQuery   atomic.Value
	batchStatus int
}

func newFakeWebAPI(t *testing.T) *fakeWebAPI {
	t.Helper()
	f := &fakeWebAPI{batchStatus: http.StatusOK}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`))
	})

	mux.HandleFunc("/v1/tracks/", func(w http.ResponseWriter, r *http.Request) {
		f.lastQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"status":401,"message":"No token provided"}}`))
			return
		}
		switch strings.TrimPrefix(r.URL.Path, "/v1/tracks/") {
		case "11dFghVXANMlKmJXsNCbNl":
			_, _ = w.Write([]byte(fullTrackJSON))
		case relinkedInputID:
			_, _ = w.Write([]byte(relinkedTrackJSON))
		case "badformat":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"status":400,"message":"invalid id"}}`))
		case "forbidden":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"status":403,"message":"Forbidden"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"status":404,"message":"Resource not found"}}`))
		}
	})

	mux.HandleFunc("/v1/tracks", func(w http.ResponseWriter, r *http.Request) {
		f.lastQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		if f.batchStatus != http.StatusOK {
			w.WriteHeader(f.batchStatus)
			_, _ = w.Write([]byte(`{"error":{"status":502,"message":"Bad gateway"}}`))
			return
		}
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		parts := make([]string, len(ids))
		for i, id := range ids {
			switch id {
			case "11dFghVXANMlKmJXsNCbNl":
				parts[i] = fullTrackJSON
			case relinkedInputID:
				parts[i] = relinkedTrackJSON
			default:
				parts[i] = "null"
			}
		}
		_, _ = w.Write([]byte(`{"tracks":[` + strings.Join(parts, ",") + `]}`))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestWebClient(t *testing.T, f *fakeWebAPI, storage TokenStorage, collector *metrics.Collector) *WebClient {
	t.Helper()
	client, err := NewWebClient(WebClientOptions{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Market:       "US",
		BaseURL:      f.server.URL + "/v1",
		TokenURL:     f.server.URL + "/api/token",
		HTTPClient:   f.server.Client(),
		Storage:      storage,
		Metrics:      collector,
	})
	require.NoError(t, err)
	return client
}

func TestNewWebClient_RequiresCredentials(t *testing.T) {
	_, err := NewWebClient(WebClientOptions{ClientID: "id"})
	require.Error(t, err)
	assert.Equal(t, mcperror.CategoryAuth, mcperror.GetErrorCategory(err))
}

func TestWebClient_GetTrack(t *testing.T) {
	f := newFakeWebAPI(t)
	collector := metrics.NewCollector(5)
	client := newTestWebClient(t, f, nil, collector)

	track, err := client.GetTrack(context.Background(), "11dFghVXANMlKmJXsNCbNl")
	require.NoError(t, err)
	require.NotNil(t, track)

	assert.Equal(t, "11dFghVXANMlKmJXsNCbNl", track.ID)
	assert.Equal(t, "Cut To The Feeling", track.Title)
	assert.Equal(t, []Artist{{ID: "6sFIWsNpZYqfjUpaCgueju", Name: "Carly Rae Jepsen"}}, track.Artists)
	assert.Equal(t, "Cut To The Feeling", track.AlbumTitle)
	assert.Equal(t, 225000, track.DurationMs)
	assert.Equal(t, 63, track.Popularity)
	assert.Equal(t, "USUM71703861", track.ISRC)
	assert.Empty(t, track.PreviewURL)
	assert.Equal(t, "https://open.spotify.com/track/11dFghVXANMlKmJXsNCbNl", track.CanonicalURL)
	assert.Contains(t, f.lastQuery.Load(), "market=US")
	assert.Equal(t, int32(1), f.tokenHits.Load())

	snap := collector.Snapshot()
	assert.Equal(t, 1, snap.SpotifyAPICallCount)
	assert.Equal(t, 0, snap.SpotifyAPIErrorCount)
}

func TestWebClient_GetTrack_NotFoundStatuses(t *testing.T) {
	f := newFakeWebAPI(t)
	client := newTestWebClient(t, f, nil, nil)

	for _, id := range []string{"0000000000000000000000", "badformat", "", "   "} {
		track, err := client.GetTrack(context.Background(), id)
		require.NoError(t, err, "id %q", id)
		assert.Nil(t, track, "id %q", id)
	}
}

func TestWebClient_GetTrack_OtherStatusIsError(t *testing.T) {
	f := newFakeWebAPI(t)
	client := newTestWebClient(t, f, nil, nil)

	track, err := client.GetTrack(context.Background(), "forbidden")
	require.Error(t, err)
	assert.Nil(t, track)
	assert.True(t, mcperror.IsSpotifyError(err))
	status, ok := mcperror.TryGetProperty(err, "http_status")
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestWebClient_GetTracks_NullSlots(t *testing.T) {
	f := newFakeWebAPI(t)
	collector := metrics.NewCollector(5)
	client := newTestWebClient(t, f, nil, collector)

	ids := []string{"11dFghVXANMlKmJXsNCbNl", "missing", "11dFghVXANMlKmJXsNCbNl"}
	tracks, err := client.GetTracks(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, tracks, 3)
	assert.NotNil(t, tracks[0])
	assert.Nil(t, tracks[1])
	assert.NotNil(t, tracks[2])

	snap := collector.Snapshot()
	assert.Equal(t, 3, snap.TracksRequested)
	assert.Equal(t, 1, snap.TracksNotFound)
}

func TestWebClient_GetTracks_Failure(t *testing.T) {
	f := newFakeWebAPI(t)
	f.batchStatus = http.StatusBadGateway
	client := newTestWebClient(t, f, nil, nil)

	tracks, err := client.GetTracks(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Nil(t, tracks)
	assert.True(t, mcperror.IsSpotifyError(err))
}

func TestWebClient_TokenIsCachedAndReused(t *testing.T) {
	f := newFakeWebAPI(t)
	path := filepath.Join(t.TempDir(), "token.json")
	storage, err := NewFileTokenStorage("client-id", path, nil)
	require.NoError(t, err)

	client := newTestWebClient(t, f, storage, nil)
	_, err = client.GetTrack(context.Background(), "11dFghVXANMlKmJXsNCbNl")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.tokenHits.Load())

	saved, err := storage.LoadToken()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "fresh-token", saved.AccessToken)

	// A second client picks up the cached token without hitting the token endpoint.
	second := newTestWebClient(t, f, storage, nil)
	_, err = second.GetTrack(context.Background(), "11dFghVXANMlKmJXsNCbNl")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.tokenHits.Load())
}

func TestWebClient_ExpiredCachedTokenIsReplaced(t *testing.T) {
	f := newFakeWebAPI(t)
	storage, err := NewFileTokenStorage("client-id", filepath.Join(t.TempDir(), "token.json"), nil)
	require.NoError(t, err)
	require.NoError(t, storage.SaveToken(&oauth2.Token{AccessToken: "stale", Expiry: time.Now().Add(-time.Hour)}))

	client := newTestWebClient(t, f, storage, nil)
	tok, err := client.Authenticate()
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", tok.AccessToken)
	assert.Equal(t, int32(1), f.tokenHits.Load())
}

func TestExternalID(t *testing.T) {
	assert.Equal(t, "X1", externalID(map[string]string{"isrc": "X1"}, "isrc"))
	assert.Equal(t, "", externalID(map[string]string{}, "isrc"))
	assert.Equal(t, "", externalID(nil, "isrc"))

	var decoded struct {
		ISRC string `json:"isrc"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"isrc":"Y2"}`), &decoded))
	assert.Equal(t, "Y2", externalID(decoded, "isrc"))
}

func TestWebClient_RelinkedTrackKeepsRequestedID(t *testing.T) {
	f := newFakeWebAPI(t)
	client := newTestWebClient(t, f, nil, nil)

	track, err := client.GetTrack(context.Background(), relinkedInputID)
	require.NoError(t, err)
	require.NotNil(t, track)
	assert.Equal(t, relinkedInputID, track.ID)
	assert.Equal(t, "Heaven and Hell", track.Title)
	assert.Equal(t, "USAT21600001", track.ISRC)

	tracks, err := client.GetTracks(context.Background(), []string{"missing", relinkedInputID})
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Nil(t, tracks[0])
	require.NotNil(t, tracks[1])
	assert.Equal(t, relinkedInputID, tracks[1].ID)
}

func TestWebClient_RelinkedTrackRendersRequestedID(t *testing.T) {
	f := newFakeWebAPI(t)
	svc := NewService(newTestWebClient(t, f, nil, nil), nil, nil)
	require.NoError(t, svc.Initialize(context.Background()))

	res, err := svc.CallTool(context.Background(), ToolGetTrack,
		json.RawMessage(`{"trackId":"`+relinkedInputID+`"}`))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "**ID**: "+relinkedInputID)
	assert.NotContains(t, text, "**ID**: 6kLCHFM39wkFjOuyPGLGeQ")

	ids := []string{relinkedInputID, "11dFghVXANMlKmJXsNCbNl"}
	res, err = svc.CallTool(context.Background(), ToolGetTracks, idsArgs(t, ids))
	require.NoError(t, err)
	assertBatchSlots(t, resultText(t, res), ids, []bool{true, true})
}
