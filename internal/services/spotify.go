// Spotify implementation of [Adapter]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Spotify caps a single add-items call at 100 URIs.
	spotifyAppendBatchSize = 100
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIdentifiers struct {
	ISRC string `json:"isrc"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Artists     []SpotifyArtist     `json:"artists"`
	Album       SpotifyAlbum        `json:"album"`
	DurationMS  int                 `json:"duration_ms"`
	Explicit    bool                `json:"explicit"`
	ExternalIDs externalIdentifiers `json:"external_ids"`
	Popularity  int                 `json:"popularity"`
	URI         string              `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
}

// SpotifyPlaylistItem represents a track within a playlist context.
type SpotifyPlaylistItem struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedItems represents a page of playlist items.
type SpotifyPaginatedItems struct {
	Items  []SpotifyPlaylistItem `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
	Next   *string               `json:"next"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyAdapter implements [Adapter] for the Spotify Web API.
// Uses [oauth2] for the authorization-code flow and a [rate.Limiter]
// shared across all calls to stay under Spotify's request quota.
type SpotifyAdapter struct {
	config     *oauth2.Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyAdapter creates a Spotify adapter from application credentials.
// A nil client falls back to [http.DefaultClient]. requestsPerSecond <= 0
// selects a conservative default of 5.
func NewSpotifyAdapter(cfg shared.SpotifyConfig, client *http.Client, requestsPerSecond float64) (*SpotifyAdapter, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	if client == nil {
		client = http.DefaultClient
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyAdapter{
		config:     config,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}, nil
}

func (s *SpotifyAdapter) Name() string {
	return "Spotify"
}

func (s *SpotifyAdapter) Platform() models.Platform {
	return models.PlatformSpotify
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyAdapter) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for an OAuth2 token.
func (s *SpotifyAdapter) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return token, nil
}

// doRequest performs an authenticated HTTP request against the Spotify API
// using the account's user token.
func (s *SpotifyAdapter) doRequest(ctx context.Context, account *models.PlatformAccount, method, endpoint string, body any, result any) error {
	if account == nil || account.AccessToken() == "" {
		return fmt.Errorf("%w: spotify account has no access token", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	apiURL := spotifyBaseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+account.AccessToken())
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: spotify rejected the access token", shared.ErrTokenExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the authenticated user's profile.
func (s *SpotifyAdapter) UserProfile(ctx context.Context, account *models.PlatformAccount) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, account, "GET", "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsurePlaylist implements [Adapter]. New playlists are created under the
// linked account's Spotify user id.
func (s *SpotifyAdapter) EnsurePlaylist(ctx context.Context, account *models.PlatformAccount, playlist *models.Playlist) (string, error) {
	if remoteID, ok := playlist.MirrorID(models.PlatformSpotify); ok {
		return remoteID, nil
	}

	userID := account.ExternalID()
	if userID == "" {
		user, err := s.UserProfile(ctx, account)
		if err != nil {
			return "", fmt.Errorf("failed to resolve spotify user: %w", err)
		}
		userID = user.ID
	}

	payload := map[string]any{
		"name":        playlist.Name(),
		"description": playlist.Description(),
		"public":      playlist.Public(),
	}

	var created SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, account, "POST", endpoint, payload, &created); err != nil {
		return "", fmt.Errorf("failed to create spotify playlist: %w", err)
	}

	return created.ID, nil
}

// AppendTracks implements [Adapter]. IDs are converted to Spotify track URIs
// and appended in API-sized batches, preserving order.
func (s *SpotifyAdapter) AppendTracks(ctx context.Context, account *models.PlatformAccount, remoteID string, externalIDs []string) error {
	if len(externalIDs) == 0 {
		return nil
	}

	uris := make([]string, len(externalIDs))
	for i, id := range externalIDs {
		uris[i] = "spotify:track:" + id
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(remoteID))

	for start := 0; start < len(uris); start += spotifyAppendBatchSize {
		end := start + spotifyAppendBatchSize
		if end > len(uris) {
			end = len(uris)
		}

		payload := map[string]any{"uris": uris[start:end]}
		if err := s.doRequest(ctx, account, "POST", endpoint, payload, nil); err != nil {
			return fmt.Errorf("failed to add tracks to spotify playlist: %w", err)
		}
	}

	return nil
}

// SearchTracks implements [Adapter].
func (s *SpotifyAdapter) SearchTracks(ctx context.Context, account *models.PlatformAccount, query string, limit int) ([]TrackCandidate, error) {
	if limit <= 0 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response spotifySearchResponse
	if err := s.doRequest(ctx, account, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}

	candidates := make([]TrackCandidate, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		candidate := TrackCandidate{
			ExternalID: item.ID,
			Title:      item.Name,
			Album:      item.Album.Name,
			DurationMS: item.DurationMS,
		}
		if len(item.Artists) > 0 {
			candidate.Artist = item.Artists[0].Name
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// PlaylistTrackIDs implements [Adapter], paginating through the remote playlist.
func (s *SpotifyAdapter) PlaylistTrackIDs(ctx context.Context, account *models.PlatformAccount, remoteID string) ([]string, error) {
	var ids []string
	limit := 100
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(remoteID), limit, offset)

		var page SpotifyPaginatedItems
		if err := s.doRequest(ctx, account, "GET", endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track.ID != "" {
				ids = append(ids, item.Track.ID)
			}
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return ids, nil
}
