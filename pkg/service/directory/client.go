package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
	"github.com/secmon-lab/onramp/pkg/utils/safe"
)

const (
	// DefaultBaseURL is the root of the identity graph API. The stable
	// and preview surfaces hang off it as path segments.
	DefaultBaseURL = "https://graph.microsoft.com"

	surfaceStable  = "v1.0"
	surfacePreview = "beta"
)

// client implements interfaces.Directory over the identity graph REST
// API. Most calls use the stable surface; team/channel and profile-note
// lookups need the preview surface. Callers never see the distinction.
type client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ interfaces.Directory = &client{}

// Option is a functional option for client configuration
type Option func(*client)

// WithBaseURL overrides the API root, mainly for tests
func WithBaseURL(url string) Option {
	return func(c *client) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// New creates a directory client with the given bearer token. The token
// is parsed (without signature verification) to fail fast on expired
// credentials instead of surfacing 401s from every later call.
func New(token string, opts ...Option) (interfaces.Directory, error) {
	if token == "" {
		return nil, goerr.New("directory API token is required")
	}

	if parsed, err := jwt.ParseString(token, jwt.WithVerify(false), jwt.WithValidate(false)); err == nil {
		if exp := parsed.Expiration(); !exp.IsZero() && exp.Before(time.Now()) {
			return nil, goerr.New("directory API token is expired", goerr.V("expired_at", exp))
		}
	}

	c := &client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// get performs a GET on the given surface and decodes the response into
// out. A 404 returns errNotFound so callers can map it to (nil, nil).
func (c *client) get(ctx context.Context, surface, path string, out any) error {
	return c.do(ctx, http.MethodGet, surface, path, nil, out)
}

var errNotFound = goerr.New("directory resource not found")

func (c *client) do(ctx context.Context, method, surface, path string, body, out any) error {
	url := fmt.Sprintf("%s/%s%s", c.baseURL, surface, path)

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal request body", goerr.V("path", path))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return goerr.Wrap(err, "failed to create request", goerr.V("url", url))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "directory request failed", goerr.V("url", url))
	}
	defer safe.Close(ctx, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return goerr.Wrap(errNotFound, "not found", goerr.V("url", url))
	case resp.StatusCode == http.StatusConflict:
		return goerr.New("conflict", goerr.T(types.ErrTagConflict), goerr.V("url", url))
	case resp.StatusCode >= 400:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return goerr.New("directory request rejected",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(raw)),
		)
	}

	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return goerr.Wrap(err, "failed to read response body", goerr.V("url", url))
		}
		*raw = data
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode response", goerr.V("url", url))
	}
	return nil
}

type userResource struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
}

type listResponse[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// ManagerOf resolves the manager of a user. A user without an assigned
// manager is not an error.
func (c *client) ManagerOf(ctx context.Context, userID types.UserID) (*interfaces.UserRef, error) {
	var res userResource
	err := c.get(ctx, surfaceStable, fmt.Sprintf("/users/%s/manager", userID), &res)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to resolve manager", goerr.V("user", userID))
	}
	return &interfaces.UserRef{
		ID:                types.UserID(res.ID),
		DisplayName:       res.DisplayName,
		UserPrincipalName: res.UserPrincipalName,
	}, nil
}

// GroupMembers lists all member IDs of a security group, following
// pagination.
func (c *client) GroupMembers(ctx context.Context, groupID types.GroupID) ([]types.UserID, error) {
	var members []types.UserID
	path := fmt.Sprintf("/groups/%s/members", groupID)

	for path != "" {
		var res listResponse[userResource]
		if err := c.get(ctx, surfaceStable, path, &res); err != nil {
			return nil, goerr.Wrap(err, "failed to list group members", goerr.V("group", groupID))
		}
		for _, m := range res.Value {
			members = append(members, types.UserID(m.ID))
		}
		path = trimSurface(res.NextLink, c.baseURL, surfaceStable)
	}
	return members, nil
}

type teamResource struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type channelResource struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// TeamsJoinedBy lists the teams visible to the given user token. The
// joined-teams listing is only served by the preview surface.
func (c *client) TeamsJoinedBy(ctx context.Context, userToken string) ([]model.Team, error) {
	sub := &client{baseURL: c.baseURL, token: userToken, httpClient: c.httpClient}

	var res listResponse[teamResource]
	if err := sub.get(ctx, surfacePreview, "/me/joinedTeams", &res); err != nil {
		return nil, goerr.Wrap(err, "failed to list joined teams")
	}

	teams := make([]model.Team, len(res.Value))
	for i, t := range res.Value {
		teams[i] = model.Team{
			ID:   types.TeamID(t.ID),
			Name: t.DisplayName,
		}
	}
	return teams, nil
}

// ChannelsOf lists the channels of a team (preview surface)
func (c *client) ChannelsOf(ctx context.Context, teamID types.TeamID) ([]model.Channel, error) {
	var res listResponse[channelResource]
	if err := c.get(ctx, surfacePreview, fmt.Sprintf("/teams/%s/channels", teamID), &res); err != nil {
		return nil, goerr.Wrap(err, "failed to list channels", goerr.V("team", teamID))
	}

	channels := make([]model.Channel, len(res.Value))
	for i, ch := range res.Value {
		channels[i] = model.Channel{
			ID:   types.ChannelID(ch.ID),
			Name: ch.DisplayName,
		}
	}
	return channels, nil
}

// PhotoOf fetches the profile photo bytes of a user. Users without a
// photo are not an error.
func (c *client) PhotoOf(ctx context.Context, userID types.UserID) ([]byte, error) {
	var raw []byte
	err := c.get(ctx, surfaceStable, fmt.Sprintf("/users/%s/photo/$value", userID), &raw)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to fetch photo", goerr.V("user", userID))
	}
	return raw, nil
}

type profileNoteResource struct {
	Detail struct {
		Content string `json:"content"`
	} `json:"detail"`
}

// ProfileNoteOf fetches the "about me" note of a user (preview surface)
func (c *client) ProfileNoteOf(ctx context.Context, userID types.UserID) (string, error) {
	var res listResponse[profileNoteResource]
	err := c.get(ctx, surfacePreview, fmt.Sprintf("/users/%s/profile/notes", userID), &res)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", goerr.Wrap(err, "failed to fetch profile note", goerr.V("user", userID))
	}
	if len(res.Value) == 0 {
		return "", nil
	}
	return res.Value[0].Detail.Content, nil
}

// InstallApp requests app installation for each user. A conflict means
// the app was already installed; neither conflicts nor failures abort
// the remaining users.
func (c *client) InstallApp(ctx context.Context, userIDs []types.UserID, appID string) ([]interfaces.InstallResult, error) {
	body := map[string]string{
		"teamsApp@odata.bind": fmt.Sprintf("%s/%s/appCatalogs/teamsApps/%s", c.baseURL, surfaceStable, appID),
	}

	results := make([]interfaces.InstallResult, 0, len(userIDs))
	for _, id := range userIDs {
		path := fmt.Sprintf("/users/%s/teamwork/installedApps", id)
		err := c.do(ctx, http.MethodPost, surfaceStable, path, body, nil)

		res := interfaces.InstallResult{UserID: id}
		switch {
		case err == nil:
		case types.IsConflict(err):
			res.Conflict = true
		default:
			res.Err = err
		}
		results = append(results, res)
	}
	return results, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

// trimSurface converts an absolute pagination link back into a path
// relative to the given surface. An empty or foreign link ends the
// pagination.
func trimSurface(link, baseURL, surface string) string {
	prefix := fmt.Sprintf("%s/%s", baseURL, surface)
	if link == "" || !strings.HasPrefix(link, prefix) {
		return ""
	}
	return strings.TrimPrefix(link, prefix)
}
