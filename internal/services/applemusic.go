// Apple Music implementation of [Adapter]
//
// Apple Music API response types based on https://developer.apple.com/documentation/applemusicapi
package services

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/shared"
)

const (
	appleMusicBaseURL = "https://api.music.apple.com/v1"

	// Apple allows developer tokens up to six months; we mint shorter-lived
	// ones and refresh from cache well before expiry.
	appleTokenLifetime = 12 * time.Hour
	appleTokenSlack    = 5 * time.Minute
)

// AppleSong represents a catalog song resource.
type AppleSong struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	Attributes AppleSongAttributes `json:"attributes"`
}

// AppleSongAttributes carries the displayable fields of a song.
type AppleSongAttributes struct {
	Name       string          `json:"name"`
	ArtistName string          `json:"artistName"`
	AlbumName  string          `json:"albumName"`
	DurationMS int             `json:"durationInMillis"`
	ISRC       string          `json:"isrc"`
	PlayParams ApplePlayParams `json:"playParams"`
}

// ApplePlayParams links a library song back to its catalog id.
type ApplePlayParams struct {
	ID        string `json:"id"`
	CatalogID string `json:"catalogId"`
}

// AppleLibraryPlaylist represents a playlist in the user's library.
type AppleLibraryPlaylist struct {
	ID         string `json:"id"`
	Attributes struct {
		Name        string `json:"name"`
		Description struct {
			Standard string `json:"standard"`
		} `json:"description"`
	} `json:"attributes"`
}

type appleDataResponse[T any] struct {
	Data []T     `json:"data"`
	Next *string `json:"next"`
}

type appleSearchResponse struct {
	Results struct {
		Songs struct {
			Data []AppleSong `json:"data"`
		} `json:"songs"`
	} `json:"results"`
}

// AppleMusicAdapter implements [Adapter] for the Apple Music API.
//
// Developer authentication uses an ES256-signed JWT minted from the team's
// MusicKit private key; user authentication rides on the linked account's
// Music-User-Token. Minted developer tokens are cached until near expiry.
type AppleMusicAdapter struct {
	teamID     string
	keyID      string
	privateKey *ecdsa.PrivateKey
	storefront string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

// NewAppleMusicAdapter creates an Apple Music adapter from MusicKit credentials.
// The private key file must hold a PEM-encoded EC key as issued by the Apple
// developer portal. A nil client falls back to [http.DefaultClient].
func NewAppleMusicAdapter(cfg shared.AppleMusicConfig, client *http.Client, requestsPerSecond float64) (*AppleMusicAdapter, error) {
	if cfg.TeamID == "" || cfg.KeyID == "" || cfg.PrivateKeyPath == "" {
		return nil, fmt.Errorf("%w: apple music team_id, key_id, and private_key_path are required", shared.ErrMissingCredentials)
	}

	pemBytes, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read apple music private key: %w", err)
	}

	privateKey, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse apple music private key: %v", shared.ErrInvalidCredentials, err)
	}

	storefront := cfg.Storefront
	if storefront == "" {
		storefront = "us"
	}

	if client == nil {
		client = http.DefaultClient
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}

	return &AppleMusicAdapter{
		teamID:     cfg.TeamID,
		keyID:      cfg.KeyID,
		privateKey: privateKey,
		storefront: storefront,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		now:        time.Now,
	}, nil
}

func (a *AppleMusicAdapter) Name() string {
	return "Apple Music"
}

func (a *AppleMusicAdapter) Platform() models.Platform {
	return models.PlatformAppleMusic
}

// developerToken returns a valid ES256 developer token, minting a fresh one
// when the cached token is within the expiry slack.
func (a *AppleMusicAdapter) developerToken() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if a.token != "" && now.Before(a.tokenExpiry.Add(-appleTokenSlack)) {
		return a.token, nil
	}

	expiry := now.Add(appleTokenLifetime)

	claims := jwt.MapClaims{
		"iss": a.teamID,
		"iat": now.Unix(),
		"exp": expiry.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = a.keyID

	signed, err := token.SignedString(a.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign developer token: %w", err)
	}

	a.token = signed
	a.tokenExpiry = expiry
	return signed, nil
}

// doRequest performs an HTTP request against the Apple Music API with both the
// developer token and the account's Music-User-Token attached.
func (a *AppleMusicAdapter) doRequest(ctx context.Context, account *models.PlatformAccount, method, endpoint string, body any, result any) error {
	if account == nil || account.AccessToken() == "" {
		return fmt.Errorf("%w: apple music account has no user token", shared.ErrNotAuthenticated)
	}

	devToken, err := a.developerToken()
	if err != nil {
		return err
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	apiURL := appleMusicBaseURL + endpoint

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

	req.Header.Set("Authorization", "Bearer "+devToken)
	req.Header.Set("Music-User-Token", account.AccessToken())
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: apple music rejected the user token", shared.ErrTokenExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: apple music API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// EnsurePlaylist implements [Adapter]. New playlists are created in the linked
// account's library.
func (a *AppleMusicAdapter) EnsurePlaylist(ctx context.Context, account *models.PlatformAccount, playlist *models.Playlist) (string, error) {
	if remoteID, ok := playlist.MirrorID(models.PlatformAppleMusic); ok {
		return remoteID, nil
	}

	payload := map[string]any{
		"attributes": map[string]any{
			"name":        playlist.Name(),
			"description": playlist.Description(),
		},
	}

	var response appleDataResponse[AppleLibraryPlaylist]
	if err := a.doRequest(ctx, account, "POST", "/me/library/playlists", payload, &response); err != nil {
		return "", fmt.Errorf("failed to create apple music playlist: %w", err)
	}
	if len(response.Data) == 0 {
		return "", fmt.Errorf("%w: apple music returned no playlist resource", shared.ErrAPIRequest)
	}

	return response.Data[0].ID, nil
}

// AppendTracks implements [Adapter]. IDs are catalog song ids.
func (a *AppleMusicAdapter) AppendTracks(ctx context.Context, account *models.PlatformAccount, remoteID string, externalIDs []string) error {
	if len(externalIDs) == 0 {
		return nil
	}

	data := make([]map[string]string, len(externalIDs))
	for i, id := range externalIDs {
		data[i] = map[string]string{"id": id, "type": "songs"}
	}

	endpoint := fmt.Sprintf("/me/library/playlists/%s/tracks", url.PathEscape(remoteID))
	if err := a.doRequest(ctx, account, "POST", endpoint, map[string]any{"data": data}, nil); err != nil {
		return fmt.Errorf("failed to add tracks to apple music playlist: %w", err)
	}

	return nil
}

// SearchTracks implements [Adapter], searching the configured storefront catalog.
func (a *AppleMusicAdapter) SearchTracks(ctx context.Context, account *models.PlatformAccount, query string, limit int) ([]TrackCandidate, error) {
	if limit <= 0 {
		limit = 1
	}
	if limit > 25 {
		limit = 25
	}

	endpoint := fmt.Sprintf("/catalog/%s/search?term=%s&types=songs&limit=%d",
		url.PathEscape(a.storefront), url.QueryEscape(query), limit)

	var response appleSearchResponse
	if err := a.doRequest(ctx, account, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}

	songs := response.Results.Songs.Data
	candidates := make([]TrackCandidate, 0, len(songs))
	for _, song := range songs {
		candidates = append(candidates, TrackCandidate{
			ExternalID: song.ID,
			Title:      song.Attributes.Name,
			Artist:     song.Attributes.ArtistName,
			Album:      song.Attributes.AlbumName,
			DurationMS: song.Attributes.DurationMS,
		})
	}

	return candidates, nil
}

// PlaylistTrackIDs implements [Adapter]. Library songs are reported by their
// catalog id when Apple exposes one, so ids compare equal to search results.
func (a *AppleMusicAdapter) PlaylistTrackIDs(ctx context.Context, account *models.PlatformAccount, remoteID string) ([]string, error) {
	var ids []string
	endpoint := fmt.Sprintf("/me/library/playlists/%s/tracks?limit=100", url.PathEscape(remoteID))

	for {
		var page appleDataResponse[AppleSong]
		if err := a.doRequest(ctx, account, "GET", endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, song := range page.Data {
			id := song.Attributes.PlayParams.CatalogID
			if id == "" {
				id = song.ID
			}
			ids = append(ids, id)
		}

		if page.Next == nil || *page.Next == "" {
			break
		}
		// "next" is an absolute API path including the version prefix.
		endpoint = (*page.Next)[len("/v1"):]
	}

	return ids, nil
}
