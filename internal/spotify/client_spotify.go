// file: internal/spotify/client_spotify.go
package spotify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/logging"
	"github.com/dkoosis/spotignition/internal/mcperror"
	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// openTrackURL is used when a track has no external Spotify URL.
const openTrackURL = "https://open.spotify.com/track/"

// MetricsRecorder receives Web API call statistics.
type MetricsRecorder interface {
	RecordSpotifyAPICall(elapsed time.Duration, requested, missing int, err error)
	SetTokenStorageMethod(method string)
}

// WebClientOptions configures a WebClient.
type WebClientOptions struct {
	ClientID     string
	ClientSecret string
	// Market is an optional ISO 3166-1 alpha-2 code applied to every lookup.
	Market string
	// BaseURL overrides the Web API endpoint, e.g. for tests.
	BaseURL string
	// TokenURL overrides the accounts token endpoint.
	TokenURL string
	// HTTPClient is the underlying client for both token and API requests.
	HTTPClient *http.Client
	// Storage caches access tokens between runs. Optional.
	Storage     TokenStorage
	RateLimiter *RateLimiter
	Metrics     MetricsRecorder
	Logger      logging.Logger
}

// WebClient is a TrackClient backed by the Spotify Web API.
type WebClient struct {
	api      *spotifyapi.Client
	tokens   oauth2.TokenSource
	market   string
	hasCreds bool
	limiter  *RateLimiter
	metrics  MetricsRecorder
	logger   logging.Logger
}

var _ TrackClient = (*WebClient)(nil)

// NewWebClient creates a WebClient authenticating with the client-credentials flow.
// No request is made until the first lookup.
func NewWebClient(opts WebClientOptions) (*WebClient, error) {
	if opts.Logger == nil {
		opts.Logger = logging.GetNoopLogger()
	}
	logger := opts.Logger.WithField("component", "spotify_client")
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, mcperror.NewAuthError("Spotify client ID and secret are required", nil,
			map[string]any{"has_client_id": opts.ClientID != ""})
	}

	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}

	cc := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     tokenURL,
	}

	var source oauth2.TokenSource = cc.TokenSource(ctx)
	var initial *oauth2.Token
	if opts.Storage != nil {
		if opts.Metrics != nil {
			opts.Metrics.SetTokenStorageMethod(opts.Storage.Method())
		}
		source = &persistingTokenSource{base: source, storage: opts.Storage, logger: logger}
		stored, err := opts.Storage.LoadToken()
		if err != nil {
			logger.Warn("Failed to load cached access token, a new one will be requested.", "error", err)
		} else if stored.Valid() {
			logger.Debug("Reusing cached access token.", "expiry", stored.Expiry, "storage", opts.Storage.Method())
			initial = stored
		}
	}
	tokens := oauth2.ReuseTokenSource(initial, source)

	clientOpts := []spotifyapi.ClientOption{spotifyapi.WithRetry(true)}
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		clientOpts = append(clientOpts, spotifyapi.WithBaseURL(base))
	}

	logger.Info("Spotify client created with client credentials flow.", "market", opts.Market)
	return &WebClient{
		api:      spotifyapi.New(oauth2.NewClient(ctx, tokens), clientOpts...),
		tokens:   tokens,
		market:   opts.Market,
		hasCreds: true,
		limiter:  opts.RateLimiter,
		metrics:  opts.Metrics,
		logger:   logger,
	}, nil
}

// HasCredentials implements TrackClient.
func (c *WebClient) HasCredentials() bool {
	return c.hasCreds
}

// Authenticate obtains an access token, requesting a new one if the cached one expired.
func (c *WebClient) Authenticate() (*oauth2.Token, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, c.wrapError(err, "authenticate")
	}
	return tok, nil
}

func (c *WebClient) requestOptions() []spotifyapi.RequestOption {
	if c.market == "" {
		return nil
	}
	return []spotifyapi.RequestOption{spotifyapi.Market(c.market)}
}

// GetTrack implements TrackClient. 404 and 400 (malformed id) responses
// are reported as not found.
func (c *WebClient) GetTrack(ctx context.Context, id string) (*TrackRecord, error) {
	// An empty id would address the tracks collection instead of a track.
	if strings.TrimSpace(id) == "" {
		c.logger.Debug("Empty track ID, treating as not found.")
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	start := time.Now()
	track, err := c.api.GetTrack(ctx, spotifyapi.ID(id), c.requestOptions()...)
	if err != nil {
		if status, ok := apiStatus(err); ok && (status == http.StatusNotFound || status == http.StatusBadRequest) {
			c.record(start, 1, 1, nil)
			c.logger.Debug("Track not found.", "trackId", id, "status", status)
			return nil, nil
		}
		c.record(start, 1, 0, err)
		return nil, c.wrapError(err, "get track")
	}
	c.record(start, 1, 0, nil)
	return c.echoInputID(id, toTrackRecord(track)), nil
}

// GetTracks implements TrackClient with a single request for all ids.
func (c *WebClient) GetTracks(ctx context.Context, ids []string) ([]*TrackRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	spotifyIDs := make([]spotifyapi.ID, len(ids))
	for i, id := range ids {
		spotifyIDs[i] = spotifyapi.ID(id)
	}

	start := time.Now()
	tracks, err := c.api.GetTracks(ctx, spotifyIDs, c.requestOptions()...)
	if err != nil {
		c.record(start, len(ids), 0, err)
		return nil, c.wrapError(err, "get tracks")
	}

	// Slots beyond the request are dropped; short answers keep their length
	// so the fetcher can tell an empty response from a partial one.
	if len(tracks) > len(ids) {
		tracks = tracks[:len(ids)]
	}
	records := make([]*TrackRecord, len(tracks))
	missing := len(ids) - len(tracks)
	for i, t := range tracks {
		if t == nil {
			missing++
			continue
		}
		records[i] = c.echoInputID(ids[i], toTrackRecord(t))
	}
	c.record(start, len(ids), missing, nil)
	return records, nil
}

func (c *WebClient) record(start time.Time, requested, missing int, err error) {
	if c.metrics != nil {
		c.metrics.RecordSpotifyAPICall(time.Since(start), requested, missing, err)
	}
}

// wrapError classifies a Web API or token endpoint failure.
func (c *WebClient) wrapError(err error, op string) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return mcperror.NewAuthError("Spotify authentication failed", err,
			map[string]any{"operation": op, "http_status": status})
	}
	if status, ok := apiStatus(err); ok {
		return mcperror.NewSpotifyError(status, "Spotify Web API request failed", err,
			map[string]any{"operation": op})
	}
	return mcperror.NewSpotifyError(0, "Spotify Web API request failed", err,
		map[string]any{"operation": op})
}

// apiStatus extracts the HTTP status from a Web API error.
func apiStatus(err error) (int, bool) {
	var apiErr spotifyapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status, true
	}
	var apiErrPtr *spotifyapi.Error
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Status, true
	}
	return 0, false
}

// echoInputID keeps the requested identifier on the record. With a market
// set, the Web API may relink a track and answer with a different id.
func (c *WebClient) echoInputID(input string, rec *TrackRecord) *TrackRecord {
	if rec.ID != input {
		c.logger.Debug("Track relinked by the Web API.", "trackId", input, "servedId", rec.ID)
		rec.ID = input
	}
	return rec
}

func toTrackRecord(t *spotifyapi.FullTrack) *TrackRecord {
	artists := make([]Artist, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, Artist{ID: string(a.ID), Name: a.Name})
	}
	canonical := t.ExternalURLs["spotify"]
	if canonical == "" && t.ID != "" {
		canonical = openTrackURL + string(t.ID)
	}
	return &TrackRecord{
		ID:           string(t.ID),
		Title:        t.Name,
		Artists:      artists,
		AlbumTitle:   t.Album.Name,
		DurationMs:   int(t.Duration),
		Popularity:   int(t.Popularity),
		Explicit:     t.Explicit,
		PreviewURL:   t.PreviewURL,
		ISRC:         t.ExternalIDs["isrc"],
		CanonicalURL: canonical,
	}
}

// persistingTokenSource saves every newly issued token to storage.
type persistingTokenSource struct {
	base    oauth2.TokenSource
	storage TokenStorage
	logger  logging.Logger
	last    string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		if err := s.storage.SaveToken(tok); err != nil {
			s.logger.Warn("Failed to cache access token.", "error", err)
		} else {
			s.last = tok.AccessToken
		}
	}
	return tok, nil
}
