// Package weibo fetches user post listings from the m.weibo.cn container API.
package weibo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abdulachik/weibobot/internal/domain"
)

const (
	DefaultBaseURL   = "https://m.weibo.cn"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 6.1; WOW64; rv:54.0) Gecko/20100101 Firefox/54.0"
	DefaultTimeout   = 10 * time.Second

	indexPath = "/api/container/getIndex"

	// postsTabType marks the profile tab that lists an account's posts.
	postsTabType = "weibo"
	// postCardType marks cards that carry a post; other cards are banners,
	// follow suggestions and the like.
	postCardType = 9

	// maxBodySize bounds how much of a response is read.
	maxBodySize = 4 << 20
)

// Client talks to the container API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	timeout    time.Duration
}

// Config holds configuration for the client.
type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new container API client.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Resolve looks up the container that lists account's posts.
func (c *Client) Resolve(ctx context.Context, account domain.Account) (domain.FeedEndpoint, error) {
	params := url.Values{}
	params.Set("type", "uid")
	params.Set("value", string(account))

	var resp indexResponse
	if err := c.getIndex(ctx, params, &resp); err != nil {
		return domain.FeedEndpoint{}, &domain.RemoteUnavailableError{Account: account, Op: "resolve", Err: err}
	}

	for _, tab := range resp.Data.TabsInfo.Tabs {
		if tab.TabType == postsTabType && tab.ContainerID != "" {
			slog.Debug("resolved account", "account", account, "container_id", tab.ContainerID)
			return domain.FeedEndpoint{Account: account, ContainerID: string(tab.ContainerID)}, nil
		}
	}

	return domain.FeedEndpoint{}, &domain.AccountResolutionError{
		Account: account,
		Reason:  fmt.Sprintf("no %q tab among %d profile tabs", postsTabType, len(resp.Data.TabsInfo.Tabs)),
	}
}

// ListPosts returns the posts in endpoint's container in server order,
// which is newest first apart from pinned posts.
func (c *Client) ListPosts(ctx context.Context, endpoint domain.FeedEndpoint) ([]domain.Post, error) {
	params := url.Values{}
	params.Set("type", "uid")
	params.Set("value", string(endpoint.Account))
	params.Set("containerid", endpoint.ContainerID)

	var resp indexResponse
	if err := c.getIndex(ctx, params, &resp); err != nil {
		return nil, &domain.RemoteUnavailableError{Account: endpoint.Account, Op: "list", Err: err}
	}

	posts := make([]domain.Post, 0, len(resp.Data.Cards))
	for _, card := range resp.Data.Cards {
		if card.CardType != postCardType || card.Mblog == nil {
			continue
		}
		if card.Mblog.ID == "" {
			return nil, &domain.RemoteUnavailableError{
				Account: endpoint.Account,
				Op:      "list",
				Err:     errors.New("post card without id"),
			}
		}
		posts = append(posts, card.Mblog.toPost(endpoint.Account))
	}

	slog.Debug("fetched posts", "account", endpoint.Account, "count", len(posts))
	return posts, nil
}

func (c *Client) getIndex(ctx context.Context, params url.Values, out *indexResponse) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := c.baseURL + indexPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weibo API returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if out.OK != nil && *out.OK != 1 {
		return fmt.Errorf("weibo API returned ok=%d: %s", *out.OK, out.Msg)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "https://passport.weibo.cn/signin/login")
	req.Header.Set("Connection", "close")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.8,en-US;q=0.5,en;q=0.3")
}
