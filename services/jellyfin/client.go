package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"jellybridge/models"
)

var (
	// ErrAuthFailed indicates the login exchange returned a non-success
	// status or a malformed body.
	ErrAuthFailed = errors.New("jellyfin: authentication failed")

	// ErrNotFound indicates the requested id has no upstream record.
	ErrNotFound = errors.New("jellyfin: item not found")

	// errUnauthorized marks a response that requires a re-login.
	errUnauthorized = errors.New("jellyfin: session rejected")
)

const (
	clientName    = "Jellybridge"
	clientVersion = "1.0.0"

	requestTimeout = 15 * time.Second
	retryAttempts  = 3
	retryBaseDelay = 300 * time.Millisecond
)

// Client is the HTTP transport toward one Jellyfin server. It owns the
// session manager and injects auth headers and the user id query parameter on
// every request.
type Client struct {
	baseURL  string
	username string
	password string
	deviceID string
	httpc    *http.Client
	sessions *SessionManager
}

// NewClient creates a client for the Jellyfin server at baseURL. A trailing
// slash on baseURL is stripped. When httpc is nil a client with a default
// timeout is used.
func NewClient(baseURL, username, password string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: requestTimeout}
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		deviceID: uuid.NewString(),
		httpc:    httpc,
	}
	c.sessions = NewSessionManager(c.authenticate)
	return c
}

// Sessions exposes the session manager owned by this client.
func (c *Client) Sessions() *SessionManager {
	return c.sessions
}

func (c *Client) authHeader() string {
	return fmt.Sprintf(`MediaBrowser Client=%q, Device="Bridge", DeviceId=%q, Version=%q`,
		clientName, c.deviceID, clientVersion)
}

// authenticate performs the login exchange. It is installed as the session
// manager's LoginFunc and must not be called directly.
func (c *Client) authenticate(ctx context.Context) (models.Session, error) {
	body, err := json.Marshal(map[string]string{
		"Username": c.username,
		"Pw":       c.password,
	})
	if err != nil {
		return models.Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/Users/AuthenticateByName", bytes.NewReader(body))
	if err != nil {
		return models.Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Emby-Authorization", c.authHeader())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return models.Session{}, fmt.Errorf("%w: %s", ErrAuthFailed, resp.Status)
	}

	var auth struct {
		AccessToken string `json:"AccessToken"`
		User        struct {
			ID   string `json:"Id"`
			Name string `json:"Name"`
		} `json:"User"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return models.Session{}, fmt.Errorf("%w: decode: %v", ErrAuthFailed, err)
	}
	if auth.AccessToken == "" || auth.User.ID == "" {
		return models.Session{}, fmt.Errorf("%w: response missing token or user id", ErrAuthFailed)
	}

	return models.Session{Token: auth.AccessToken, UserID: auth.User.ID}, nil
}

// getJSON performs an authenticated GET and decodes the response into v. When
// the server rejects the session it is invalidated and the call retried
// exactly once with a fresh login before the error is surfaced.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	session, err := c.sessions.EnsureAuthenticated(ctx)
	if err != nil {
		return err
	}

	err = c.doGET(ctx, session, path, q, v)
	if errors.Is(err, errUnauthorized) {
		c.sessions.Invalidate(session.Token)
		session, err = c.sessions.EnsureAuthenticated(ctx)
		if err != nil {
			return err
		}
		return c.doGET(ctx, session, path, q, v)
	}
	return err
}

// doGET issues one GET with transient-failure retries. 401/403 responses are
// reported as errUnauthorized without retrying; 404 as ErrNotFound.
func (c *Client) doGET(ctx context.Context, session models.Session, path string, q url.Values, v any) error {
	if q == nil {
		q = url.Values{}
	}
	q.Set("UserId", session.UserID)
	u := c.baseURL + path + "?" + q.Encode()

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("X-Emby-Authorization", c.authHeader())
			req.Header.Set("X-MediaBrowser-Token", session.Token)

			resp, err := c.httpc.Do(req)
			if err != nil {
				return fmt.Errorf("jellyfin get %s: %w", path, err)
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return retry.Unrecoverable(errUnauthorized)
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(ErrNotFound)
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("jellyfin get %s: %s", path, resp.Status)
			case resp.StatusCode >= 300:
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
				return retry.Unrecoverable(fmt.Errorf("jellyfin get %s: %s: %s",
					path, resp.Status, strings.TrimSpace(string(body))))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(fmt.Errorf("jellyfin decode %s: %w", path, err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(retryAttempts),
		retry.Delay(retryBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

type itemsResponse struct {
	Items            []models.LibraryItem `json:"Items"`
	TotalRecordCount int                  `json:"TotalRecordCount"`
}

// itemPageSize bounds each library listing request.
const itemPageSize = 200

// fetchAllItems pages through all items of the given kind.
func (c *Client) fetchAllItems(ctx context.Context, kind models.ItemKind) ([]models.LibraryItem, error) {
	var all []models.LibraryItem
	start := 0
	for {
		q := url.Values{}
		q.Set("IncludeItemTypes", string(kind))
		q.Set("Recursive", "true")
		q.Set("Fields", "PrimaryImageTag,ProductionYear")
		q.Set("Limit", strconv.Itoa(itemPageSize))
		q.Set("StartIndex", strconv.Itoa(start))

		var page itemsResponse
		if err := c.getJSON(ctx, "/Items", q, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)

		start += len(page.Items)
		if len(page.Items) == 0 || start >= page.TotalRecordCount {
			break
		}
	}
	return all, nil
}

// fetchItem retrieves a single item with full fields.
func (c *Client) fetchItem(ctx context.Context, id string) (models.LibraryItem, error) {
	q := url.Values{}
	q.Set("Fields", "PrimaryImageTag,Overview,Genres,ProductionYear,BackdropImageTags,RunTimeTicks")

	var item models.LibraryItem
	if err := c.getJSON(ctx, "/Items/"+id, q, &item); err != nil {
		return models.LibraryItem{}, err
	}
	if item.ID == "" {
		return models.LibraryItem{}, ErrNotFound
	}
	return item, nil
}

// fetchEpisodes retrieves all episodes under a series via the flat parent-id
// query.
func (c *Client) fetchEpisodes(ctx context.Context, seriesID string) ([]models.LibraryItem, error) {
	q := url.Values{}
	q.Set("ParentId", seriesID)
	q.Set("IncludeItemTypes", "Episode")
	q.Set("Recursive", "true")
	q.Set("Fields", "ParentIndexNumber,IndexNumber,PremiereDate,PrimaryImageTag")

	var resp itemsResponse
	if err := c.getJSON(ctx, "/Items", q, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// fetchSeasons lists the season groupings of a series. Not every deployment
// exposes these uniformly; callers must handle an empty result.
func (c *Client) fetchSeasons(ctx context.Context, seriesID string) ([]models.LibraryItem, error) {
	var resp itemsResponse
	if err := c.getJSON(ctx, "/Shows/"+seriesID+"/Seasons", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// fetchSeasonEpisodes lists the episodes of one season.
func (c *Client) fetchSeasonEpisodes(ctx context.Context, seriesID, seasonID string) ([]models.LibraryItem, error) {
	q := url.Values{}
	q.Set("seasonId", seasonID)
	q.Set("Fields", "ParentIndexNumber,IndexNumber,PremiereDate,PrimaryImageTag")

	var resp itemsResponse
	if err := c.getJSON(ctx, "/Shows/"+seriesID+"/Episodes", q, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// token returns the session token for embedding in URLs, logging in first
// when no session exists. A stream or artwork request can be the first
// upstream contact after a restart (the response may otherwise be served
// entirely from the disk cache), so URL building must not assume a prior call
// already authenticated.
func (c *Client) token(ctx context.Context) string {
	session, err := c.sessions.EnsureAuthenticated(ctx)
	if err != nil {
		log.Printf("[jellyfin] session for url: %v", err)
		return ""
	}
	return session.Token
}

// PrimaryImageURL builds the poster artwork URL for an item, or "" when the
// item carries no primary image tag. Artwork is referenced by URL only and
// never fetched by the bridge.
func (c *Client) PrimaryImageURL(ctx context.Context, item models.LibraryItem, width int) string {
	if item.ID == "" || item.PrimaryImageTag == "" {
		return ""
	}
	return fmt.Sprintf("%s/Items/%s/Images/Primary?fillWidth=%d&quality=90&tag=%s&api_key=%s",
		c.baseURL, item.ID, width, url.QueryEscape(item.PrimaryImageTag), url.QueryEscape(c.token(ctx)))
}

// BackdropImageURL builds the backdrop artwork URL for an item, falling back
// to the primary image tag when no backdrop tag exists.
func (c *Client) BackdropImageURL(ctx context.Context, item models.LibraryItem, width int) string {
	tag := item.PrimaryImageTag
	if len(item.BackdropImageTags) > 0 {
		tag = item.BackdropImageTags[0]
	}
	if item.ID == "" || tag == "" {
		return ""
	}
	return fmt.Sprintf("%s/Items/%s/Images/Backdrop?fillWidth=%d&quality=90&tag=%s&api_key=%s",
		c.baseURL, item.ID, width, url.QueryEscape(tag), url.QueryEscape(c.token(ctx)))
}

// StreamURL builds the direct playback URL for an item, embedding a valid
// session token.
func (c *Client) StreamURL(ctx context.Context, itemID string) string {
	return fmt.Sprintf("%s/Videos/%s/stream?static=true&api_key=%s",
		c.baseURL, itemID, url.QueryEscape(c.token(ctx)))
}
