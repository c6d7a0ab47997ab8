// Package lastfm talks to the audioscrobbler-style tracking service: signed
// key-value requests over HTTP, JSON responses classified into submission
// outcomes.
package lastfm

import (
	"context"
	"crypto/md5" //nolint:gosec // the service protocol mandates md5 request signatures
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"scrobblerbot/internal/core"
	"scrobblerbot/internal/track"
)

const (
	methodGetToken   = "auth.gettoken"
	methodGetSession = "auth.getsession"
	methodScrobble   = "track.scrobble"
	methodAlbumInfo  = "album.getinfo"
)

// Client wraps the tracking service API. It never retries internally:
// retries are a user-initiated action surfaced through the state machine.
type Client struct {
	config    *core.ScrobblerConfig
	logger    *zap.Logger
	http      *http.Client
	authCodes map[int]bool
	now       func() time.Time
}

// NewClient creates a service client from config.
func NewClient(config *core.ScrobblerConfig, logger *zap.Logger) *Client {
	authCodes := make(map[int]bool, len(config.AuthErrorCodes))
	for _, code := range config.AuthErrorCodes {
		authCodes[code] = true
	}

	return &Client{
		config:    config,
		logger:    logger,
		http:      &http.Client{Timeout: config.Timeout},
		authCodes: authCodes,
		now:       time.Now,
	}
}

// apiError is the error envelope the service wraps failures in.
type apiError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// GetToken requests a fresh grant token. Every entry into the auth flow
// calls this; stale in-flight tokens are never reused.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	params := url.Values{}
	params.Set("method", methodGetToken)
	params.Set("api_key", c.config.APIKey)

	body, err := c.call(ctx, params, false)
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("get token: decode response: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("get token: empty token in response")
	}

	return resp.Token, nil
}

// AuthURL builds the user-facing grant URL for a token.
func (c *Client) AuthURL(token string) string {
	return fmt.Sprintf("%s?api_key=%s&token=%s",
		c.config.AuthURL, url.QueryEscape(c.config.APIKey), url.QueryEscape(token))
}

// GetSession exchanges a granted token for an account name and session key.
// Auth-class error codes map to ErrNotAuthorized so the caller can restart
// the grant flow.
func (c *Client) GetSession(ctx context.Context, token string) (string, string, error) {
	params := url.Values{}
	params.Set("method", methodGetSession)
	params.Set("api_key", c.config.APIKey)
	params.Set("token", token)

	body, err := c.call(ctx, params, true)
	if err != nil {
		return "", "", fmt.Errorf("get session: %w", err)
	}

	var resp struct {
		Session struct {
			Name string `json:"name"`
			Key  string `json:"key"`
		} `json:"session"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", fmt.Errorf("get session: decode response: %w", err)
	}
	if resp.Session.Key == "" {
		return "", "", fmt.Errorf("get session: empty session key in response")
	}

	return resp.Session.Name, resp.Session.Key, nil
}

// Scrobble submits a batch under the given credential. Exactly one network
// call is made, and the response is classified here once: success,
// auth-required, or a retryable failure carrying the attempted batch.
func (c *Client) Scrobble(ctx context.Context, sessionKey string, batch track.TrackBatch) core.Outcome {
	params := url.Values{}
	params.Set("method", methodScrobble)
	params.Set("api_key", c.config.APIKey)
	params.Set("sk", sessionKey)

	// Timestamps are laid out so the batch reads as played back-to-back,
	// ending now.
	remaining := 0
	for _, t := range batch {
		remaining += t.Duration
	}
	now := c.now().Unix()
	for i, t := range batch {
		params.Set(fmt.Sprintf("track[%d]", i), t.Name)
		params.Set(fmt.Sprintf("artist[%d]", i), t.Artist)
		params.Set(fmt.Sprintf("album[%d]", i), t.Album)
		params.Set(fmt.Sprintf("duration[%d]", i), strconv.Itoa(t.Duration))
		params.Set(fmt.Sprintf("timestamp[%d]", i), strconv.FormatInt(now-int64(remaining), 10))
		remaining -= t.Duration
	}

	body, err := c.post(ctx, params)
	if err != nil {
		c.logger.Warn("Scrobble request failed", zap.Error(err))
		return core.Outcome{Kind: core.OutcomeRetryable, Reason: err.Error(), Batch: batch}
	}

	if apiErr := c.decodeError(body); apiErr != nil {
		if c.authCodes[apiErr.Code] {
			c.logger.Info("Scrobble rejected, credential invalid", zap.Int("code", apiErr.Code))
			return core.Outcome{Kind: core.OutcomeAuthRequired, Reason: apiErr.Message, Batch: batch}
		}
		c.logger.Warn("Scrobble rejected",
			zap.Int("code", apiErr.Code),
			zap.String("message", apiErr.Message))
		return core.Outcome{Kind: core.OutcomeRetryable, Reason: apiErr.Message, Batch: batch}
	}

	return core.Outcome{Kind: core.OutcomeSuccess, Batch: batch}
}

// AlbumInfo fetches the ordered tracklist of an album.
func (c *Client) AlbumInfo(ctx context.Context, artist, album string) (track.TrackBatch, error) {
	params := url.Values{}
	params.Set("method", methodAlbumInfo)
	params.Set("api_key", c.config.APIKey)
	params.Set("artist", artist)
	params.Set("album", album)

	body, err := c.call(ctx, params, false)
	if err != nil {
		return nil, fmt.Errorf("album info: %w", err)
	}

	var resp struct {
		Album struct {
			Name   string `json:"name"`
			Artist string `json:"artist"`
			Tracks struct {
				Track trackList `json:"track"`
			} `json:"tracks"`
		} `json:"album"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("album info: decode response: %w", err)
	}
	if len(resp.Album.Tracks.Track) == 0 {
		return nil, fmt.Errorf("album info: no tracks for %q by %q", album, artist)
	}

	batch := make(track.TrackBatch, 0, len(resp.Album.Tracks.Track))
	for _, t := range resp.Album.Tracks.Track {
		batch = append(batch, track.Track{
			Name:     t.Name,
			Artist:   resp.Album.Artist,
			Album:    resp.Album.Name,
			Duration: int(t.Duration),
		})
	}

	return batch, nil
}

// albumTrack is one track entry in an album.getinfo response.
type albumTrack struct {
	Name     string       `json:"name"`
	Duration flexDuration `json:"duration"`
}

// trackList accepts both a JSON array and the bare object the service
// returns for single-track albums.
type trackList []albumTrack

func (l *trackList) UnmarshalJSON(data []byte) error {
	var many []albumTrack
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}

	var one albumTrack
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = trackList{one}
	return nil
}

// flexDuration accepts a number, a numeric string, or null. Anything
// non-numeric decodes to 0 and is defaulted later by the validator.
type flexDuration int

func (d *flexDuration) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*d = 0
		return nil
	}
	*d = flexDuration(n)
	return nil
}

// call performs a GET request, optionally signed, and unwraps the service
// error envelope into a Go error.
func (c *Client) call(ctx context.Context, params url.Values, signed bool) ([]byte, error) {
	if signed {
		params.Set("api_sig", c.sign(params))
	}
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if envErr := c.errorFromBody(body); envErr != nil {
		return nil, envErr
	}
	return body, nil
}

// post performs a signed POST request for write methods.
func (c *Client) post(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("api_sig", c.sign(params))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL,
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return body, nil
}

// decodeError extracts the service error envelope, if any. GET helpers turn
// it into a Go error; Scrobble classifies it directly.
func (c *Client) decodeError(body []byte) *apiError {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return nil
	}
	if apiErr.Code == 0 {
		return nil
	}
	return &apiErr
}

// errorFromBody converts a service error envelope into a Go error, mapping
// auth-class codes to ErrNotAuthorized.
func (c *Client) errorFromBody(body []byte) error {
	apiErr := c.decodeError(body)
	if apiErr == nil {
		return nil
	}
	if c.authCodes[apiErr.Code] {
		return fmt.Errorf("%w: %s (code %d)", core.ErrNotAuthorized, apiErr.Message, apiErr.Code)
	}
	return fmt.Errorf("service error %d: %s", apiErr.Code, apiErr.Message)
}

// sign computes the request signature: parameter names sorted, names and
// values concatenated, the shared secret appended, md5 over the lot.
func (c *Client) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "format" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params.Get(k))
	}
	b.WriteString(c.config.Secret)

	sum := md5.Sum([]byte(b.String())) //nolint:gosec // protocol requirement
	return hex.EncodeToString(sum[:])
}
