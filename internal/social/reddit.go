package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/gainers/pkg/config"
	"github.com/wonny/gainers/pkg/httputil"
	"github.com/wonny/gainers/pkg/logger"
)

const (
	defaultAuthURL = "https://www.reddit.com"
	defaultAPIURL  = "https://oauth.reddit.com"
)

// DefaultSubreddits are polled when no explicit list is given.
var DefaultSubreddits = []string{"stocks", "investing", "wallstreetbets"}

// Post is one listing entry from a subreddit.
type Post struct {
	Subreddit   string `json:"subreddit"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
	URL         string `json:"url"`
}

// Comment is one top-level comment on a post.
type Comment struct {
	PostID string `json:"post_id"`
	Body   string `json:"body"`
	Score  int    `json:"score"`
}

// Collector fetches subreddit listings and comments through the
// Reddit OAuth API using a script-type app.
type Collector struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	creds      config.RedditConfig

	authURL string
	apiURL  string
	token   string
}

// NewCollector creates a collector. Authenticate must be called
// before any fetch.
func NewCollector(client *httputil.Client, creds config.RedditConfig, log *logger.Logger) *Collector {
	return &Collector{
		httpClient: client,
		logger:     log,
		creds:      creds,
		authURL:    defaultAuthURL,
		apiURL:     defaultAPIURL,
	}
}

// WithBaseURLs overrides the auth and API endpoints, used in tests.
func (c *Collector) WithBaseURLs(authURL, apiURL string) *Collector {
	c.authURL = authURL
	c.apiURL = apiURL
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Error       string `json:"error"`
}

// Authenticate obtains an access token via the password grant.
func (c *Collector) Authenticate(ctx context.Context) error {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {c.creds.Username},
		"password":   {c.creds.Password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.creds.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.Error != "" {
		return fmt.Errorf("reddit auth error: %s", tok.Error)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("reddit auth returned empty access token")
	}

	c.token = tok.AccessToken
	c.logger.Debug("Reddit access token obtained")
	return nil
}

// listingResponse covers both subreddit listings and comment trees.
type listingResponse struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				Subreddit   string `json:"subreddit"`
				ID          string `json:"id"`
				Title       string `json:"title"`
				Score       int    `json:"score"`
				NumComments int    `json:"num_comments"`
				URL         string `json:"url"`
				Body        string `json:"body"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// FetchPosts pulls the hot or top listing of a subreddit, following the
// after cursor until limit posts are collected or the listing ends.
func (c *Collector) FetchPosts(ctx context.Context, subreddit, mode string, limit int) ([]Post, error) {
	if mode != "hot" && mode != "top" {
		return nil, fmt.Errorf("mode must be hot or top, got %q", mode)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	posts := make([]Post, 0, limit)
	after := ""
	for len(posts) < limit {
		endpoint := fmt.Sprintf("%s/r/%s/%s?limit=%d&raw_json=1",
			c.apiURL, url.PathEscape(subreddit), mode, limit-len(posts))
		if after != "" {
			endpoint += "&after=" + url.QueryEscape(after)
		}

		var listing listingResponse
		if err := c.getJSON(ctx, endpoint, &listing); err != nil {
			return nil, fmt.Errorf("failed to fetch r/%s: %w", subreddit, err)
		}
		if len(listing.Data.Children) == 0 {
			break
		}

		for _, child := range listing.Data.Children {
			d := child.Data
			if d.ID == "" {
				continue
			}
			posts = append(posts, Post{
				Subreddit:   subreddit,
				ID:          d.ID,
				Title:       d.Title,
				Score:       d.Score,
				NumComments: d.NumComments,
				URL:         d.URL,
			})
			if len(posts) == limit {
				break
			}
		}

		after = listing.Data.After
		if after == "" {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"subreddit": subreddit,
		"mode":      mode,
		"posts":     len(posts),
	}).Info("Fetched subreddit listing")

	return posts, nil
}

// FetchTopComments pulls up to perPost top comments for the
// highest-scored subsetSize posts. A subsetSize of zero or less
// uses all posts. Posts whose comments fail to load are skipped.
func (c *Collector) FetchTopComments(ctx context.Context, posts []Post, perPost, subsetSize int) ([]Comment, error) {
	if perPost <= 0 {
		return nil, fmt.Errorf("perPost must be positive, got %d", perPost)
	}

	selected := make([]Post, len(posts))
	copy(selected, posts)
	if subsetSize > 0 && subsetSize < len(selected) {
		sort.SliceStable(selected, func(i, j int) bool {
			return selected[i].Score > selected[j].Score
		})
		selected = selected[:subsetSize]
	}

	var comments []Comment
	for _, post := range selected {
		endpoint := fmt.Sprintf("%s/comments/%s?sort=top&limit=%s&raw_json=1",
			c.apiURL, url.PathEscape(post.ID), strconv.Itoa(perPost))

		// The comments endpoint returns [postListing, commentListing].
		var pair []listingResponse
		if err := c.getJSON(ctx, endpoint, &pair); err != nil {
			c.logger.WithField("post_id", post.ID).WithError(err).
				Warn("Failed to fetch comments, skipping post")
			continue
		}
		if len(pair) < 2 {
			continue
		}

		count := 0
		for _, child := range pair[1].Data.Children {
			if child.Kind != "t1" || child.Data.Body == "" {
				continue
			}
			comments = append(comments, Comment{
				PostID: post.ID,
				Body:   child.Data.Body,
				Score:  child.Data.Score,
			})
			count++
			if count >= perPost {
				break
			}
		}
	}

	c.logger.WithField("comments", len(comments)).Info("Fetched post comments")
	return comments, nil
}

func (c *Collector) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	if c.token == "" {
		return fmt.Errorf("collector is not authenticated")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.creds.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
