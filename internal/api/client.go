package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/PatrickWalther/unfollow-watch-go/internal/config"
	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
	"github.com/PatrickWalther/unfollow-watch-go/internal/metrics"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
	"github.com/PatrickWalther/unfollow-watch-go/internal/version"
)

// maxEventPages bounds the events feed; GitHub serves at most 300 events.
const maxEventPages = 3

type GitHubClient struct {
	baseURL   string
	perPage   int
	maxPages  int
	userAgent string
	client    *http.Client
	cache     Cache
	metrics   metrics.Recorder
}

func NewGitHubClient(settings config.GitHubSettings, cache Cache, rec metrics.Recorder) *GitHubClient {
	if cache == nil {
		cache = noopCache{}
	}
	if rec == nil {
		rec = metrics.Noop()
	}

	perPage := settings.PerPage
	if perPage <= 0 || perPage > constants.FollowersPerPage {
		perPage = constants.FollowersPerPage
	}
	maxPages := settings.MaxPages
	if maxPages <= 0 {
		maxPages = constants.MaxPages
	}
	timeout := time.Duration(settings.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GitHubClient{
		baseURL:   strings.TrimRight(settings.APIURL, "/"),
		perPage:   perPage,
		maxPages:  maxPages,
		userAgent: version.UserAgent(),
		client:    &http.Client{Timeout: timeout},
		cache:     cache,
		metrics:   rec,
	}
}

type apiUser struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

func (u apiUser) toFollower() models.Follower {
	return models.Follower{
		Login:      u.Login,
		AvatarURL:  u.AvatarURL,
		ProfileURL: u.HTMLURL,
	}
}

type apiUserDetails struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	HTMLURL     string    `json:"html_url"`
	Bio         string    `json:"bio"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

type apiRepo struct {
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	HTMLURL         string    `json:"html_url"`
	Description     string    `json:"description"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	Fork            bool      `json:"fork"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type apiEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Repo struct {
		Name string `json:"name"`
	} `json:"repo"`
	CreatedAt time.Time `json:"created_at"`
}

type apiErrorBody struct {
	Message string `json:"message"`
}

// FetchFollowers returns every follower of the credential's user, all pages
// accumulated in API order.
func (c *GitHubClient) FetchFollowers(ctx context.Context, cred models.Credential) ([]models.Follower, error) {
	users, err := paginate[apiUser](ctx, c, cred, "followers", userPath(cred.Username, "followers"), pageOptions{limit: c.maxPages, strict: true})
	if err != nil {
		return nil, err
	}
	return toFollowers(users), nil
}

// FetchFollowing returns every account the credential's user follows.
func (c *GitHubClient) FetchFollowing(ctx context.Context, cred models.Credential) ([]models.Follower, error) {
	users, err := paginate[apiUser](ctx, c, cred, "following", userPath(cred.Username, "following"), pageOptions{limit: c.maxPages, strict: true})
	if err != nil {
		return nil, err
	}
	return toFollowers(users), nil
}

func (c *GitHubClient) FetchRepos(ctx context.Context, cred models.Credential) ([]models.Repo, error) {
	raw, err := paginate[apiRepo](ctx, c, cred, "repos", userPath(cred.Username, "repos"), pageOptions{limit: c.maxPages, strict: true, cacheable: true})
	if err != nil {
		return nil, err
	}

	repos := make([]models.Repo, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, models.Repo{
			Name:        r.Name,
			FullName:    r.FullName,
			URL:         r.HTMLURL,
			Description: r.Description,
			Language:    r.Language,
			Stars:       r.StargazersCount,
			Forks:       r.ForksCount,
			Fork:        r.Fork,
			UpdatedAt:   r.UpdatedAt,
		})
	}
	return repos, nil
}

// FetchEvents returns the user's recent public activity. The feed is capped
// remotely, so a truncated result is not an error.
func (c *GitHubClient) FetchEvents(ctx context.Context, cred models.Credential) ([]models.Event, error) {
	raw, err := paginate[apiEvent](ctx, c, cred, "events", userPath(cred.Username, "events"), pageOptions{limit: maxEventPages, cacheable: true})
	if err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(raw))
	for _, e := range raw {
		events = append(events, models.Event{
			ID:        e.ID,
			Type:      e.Type,
			Repo:      e.Repo.Name,
			CreatedAt: e.CreatedAt,
		})
	}
	return events, nil
}

func (c *GitHubClient) FetchUser(ctx context.Context, cred models.Credential) (models.UserDetails, error) {
	var u apiUserDetails
	if err := c.getJSON(ctx, cred, "user", userPath(cred.Username, ""), nil, true, &u); err != nil {
		return models.UserDetails{}, err
	}

	return models.UserDetails{
		Login:       u.Login,
		Name:        u.Name,
		AvatarURL:   u.AvatarURL,
		ProfileURL:  u.HTMLURL,
		Bio:         u.Bio,
		PublicRepos: u.PublicRepos,
		Followers:   u.Followers,
		Following:   u.Following,
		CreatedAt:   u.CreatedAt,
	}, nil
}

// AuthenticatedLogin returns the login that owns the token.
func (c *GitHubClient) AuthenticatedLogin(ctx context.Context, cred models.Credential) (string, error) {
	var u apiUser
	if err := c.getJSON(ctx, cred, "authenticated", "/user", nil, false, &u); err != nil {
		return "", err
	}
	return u.Login, nil
}

func (c *GitHubClient) Follow(ctx context.Context, cred models.Credential, login string) error {
	return c.mutateFollowing(ctx, cred, http.MethodPut, "follow", login)
}

func (c *GitHubClient) Unfollow(ctx context.Context, cred models.Credential, login string) error {
	return c.mutateFollowing(ctx, cred, http.MethodDelete, "unfollow", login)
}

func (c *GitHubClient) mutateFollowing(ctx context.Context, cred models.Credential, method, op, login string) error {
	login = strings.TrimSpace(login)
	if login == "" || strings.ContainsAny(login, "/?#") {
		return &GatewayError{Op: op, Method: method, Path: "/user/following/", Err: ErrInvalidTarget}
	}

	path := "/user/following/" + url.PathEscape(login)
	if _, err := c.do(ctx, cred, method, op, path, nil); err != nil {
		return err
	}

	c.cache.Del(c.cacheKey(cred, userPath(cred.Username, ""), nil))
	slog.Info("Following updated", "action", op, "login", login)
	return nil
}

type pageOptions struct {
	limit     int
	// strict turns hitting the page limit into an error instead of a
	// truncated result.
	strict    bool
	cacheable bool
}

// paginate walks ?per_page=&page= until a page shorter than per_page is
// returned.
func paginate[T any](ctx context.Context, c *GitHubClient, cred models.Credential, endpoint, path string, opts pageOptions) ([]T, error) {
	var all []T

	for page := 1; page <= opts.limit; page++ {
		query := url.Values{}
		query.Set("per_page", strconv.Itoa(c.perPage))
		query.Set("page", strconv.Itoa(page))

		var items []T
		if err := c.getJSON(ctx, cred, endpoint, path, query, opts.cacheable, &items); err != nil {
			return nil, err
		}

		all = append(all, items...)
		if len(items) < c.perPage {
			return all, nil
		}
	}

	if opts.strict {
		return nil, &GatewayError{Op: endpoint, Method: http.MethodGet, Path: path, Err: ErrTooManyPages}
	}
	return all, nil
}

func (c *GitHubClient) getJSON(ctx context.Context, cred models.Credential, endpoint, path string, query url.Values, cacheable bool, out any) error {
	key := c.cacheKey(cred, path, query)
	if cacheable {
		if body, ok := c.cache.Get(key); ok {
			c.metrics.IncCacheHits()
			if err := json.Unmarshal(body, out); err == nil {
				return nil
			}
			c.cache.Del(key)
		}
		c.metrics.IncCacheMisses()
	}

	body, err := c.do(ctx, cred, http.MethodGet, endpoint, path, query)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &GatewayError{Op: endpoint, Method: http.MethodGet, Path: path, StatusCode: http.StatusOK,
			Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	if cacheable {
		c.cache.Set(key, body)
	}
	return nil
}

func (c *GitHubClient) do(ctx context.Context, cred models.Credential, method, endpoint, path string, query url.Values) ([]byte, error) {
	if !cred.Valid() {
		return nil, &GatewayError{Op: endpoint, Method: method, Path: path, Err: ErrUnauthorized}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, &GatewayError{Op: endpoint, Method: method, Path: path, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	c.setHeaders(req, cred)

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)
	c.metrics.ObserveGatewayDuration(endpoint, duration)
	if err != nil {
		c.metrics.IncGatewayRequests(endpoint, 0)
		return nil, &GatewayError{Op: endpoint, Method: method, Path: path, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	c.metrics.IncGatewayRequests(endpoint, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Op: endpoint, Method: method, Path: path, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("failed to read response: %w", err)}
	}

	slog.Debug("GitHub response", "endpoint", endpoint, "status", resp.StatusCode, "duration", duration)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiErrorBody
		_ = json.Unmarshal(body, &apiErr)
		return nil, &GatewayError{
			Op:         endpoint,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    apiErr.Message,
			Err:        classify(resp),
		}
	}

	return body, nil
}

func (c *GitHubClient) setHeaders(req *http.Request, cred models.Credential) {
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Accept", constants.GitHubAccept)
	req.Header.Set("X-GitHub-Api-Version", constants.GitHubAPIVersion)
	req.Header.Set("User-Agent", c.userAgent)
}

func (c *GitHubClient) cacheKey(cred models.Credential, path string, query url.Values) string {
	return models.LoginKey(cred.Username) + " " + path + "?" + query.Encode()
}

func userPath(username, resource string) string {
	p := "/users/" + url.PathEscape(strings.TrimSpace(username))
	if resource != "" {
		p += "/" + resource
	}
	return p
}

func toFollowers(users []apiUser) []models.Follower {
	followers := make([]models.Follower, 0, len(users))
	for _, u := range users {
		followers = append(followers, u.toFollower())
	}
	return followers
}
