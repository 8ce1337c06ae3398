package weibo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abdulachik/weibobot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileJSON = `{
	"ok": 1,
	"data": {
		"tabsInfo": {
			"selectedTab": 1,
			"tabs": [
				{"id": 1, "tabKey": "profile", "tab_type": "profile", "containerid": "2302831234"},
				{"id": 2, "tabKey": "weibo", "tab_type": "weibo", "containerid": 1076031234}
			]
		}
	}
}`

const cardsJSON = `{
	"ok": 1,
	"data": {
		"cards": [
			{"card_type": 9, "mblog": {
				"id": "4981000000000013",
				"created_at": "Mon Oct 12 10:00:00 +0800 2026",
				"text": "new <br />post",
				"source": "iPhone 15",
				"user": {"screen_name": "alice"}
			}},
			{"card_type": 11, "card_group": []},
			{"card_type": 9, "mblog": {
				"id": 4981000000000012,
				"created_at": "刚刚",
				"text": "older",
				"source": "",
				"user": {"screen_name": "alice"}
			}}
		]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, Timeout: 2 * time.Second})
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultUserAgent, c.userAgent)
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestClient_Resolve(t *testing.T) {
	t.Run("finds the weibo tab", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, indexPath, r.URL.Path)
			assert.Equal(t, "uid", r.URL.Query().Get("type"))
			assert.Equal(t, "1234", r.URL.Query().Get("value"))
			assert.Empty(t, r.URL.Query().Get("containerid"))
			assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
			assert.Equal(t, "https://passport.weibo.cn/signin/login", r.Header.Get("Referer"))
			w.Write([]byte(profileJSON))
		})

		ep, err := c.Resolve(context.Background(), "1234")
		require.NoError(t, err)
		assert.Equal(t, domain.FeedEndpoint{Account: "1234", ContainerID: "1076031234"}, ep)
	})

	t.Run("missing weibo tab", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ok":1,"data":{"tabsInfo":{"tabs":[{"tab_type":"profile","containerid":"1"}]}}}`))
		})

		_, err := c.Resolve(context.Background(), "1234")
		var resErr *domain.AccountResolutionError
		require.ErrorAs(t, err, &resErr)
		assert.Equal(t, domain.Account("1234"), resErr.Account)
	})

	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := c.Resolve(context.Background(), "1234")
		var remoteErr *domain.RemoteUnavailableError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, "resolve", remoteErr.Op)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("api reports failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ok":0,"msg":"这里还没有内容"}`))
		})

		_, err := c.Resolve(context.Background(), "1234")
		var remoteErr *domain.RemoteUnavailableError
		require.ErrorAs(t, err, &remoteErr)
	})
}

func TestClient_ListPosts(t *testing.T) {
	ep := domain.FeedEndpoint{Account: "1234", ContainerID: "1076031234"}

	t.Run("keeps post cards in order", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1076031234", r.URL.Query().Get("containerid"))
			w.Write([]byte(cardsJSON))
		})

		posts, err := c.ListPosts(context.Background(), ep)
		require.NoError(t, err)
		require.Len(t, posts, 2)

		assert.Equal(t, "4981000000000013", posts[0].ID)
		assert.Equal(t, domain.Account("1234"), posts[0].Account)
		assert.Equal(t, "alice", posts[0].Author)
		assert.Equal(t, "iPhone 15", posts[0].Source)
		assert.Equal(t, "new <br />post", posts[0].Text)
		assert.Equal(t, 2026, posts[0].PostedAt.Year())
		assert.Equal(t, time.October, posts[0].PostedAt.Month())

		assert.Equal(t, "4981000000000012", posts[1].ID, "numeric ids keep every digit")
		assert.True(t, posts[1].PostedAt.IsZero())
		assert.Equal(t, "刚刚", posts[1].CreatedAt)
	})

	t.Run("empty feed is not an error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ok":1,"data":{"cards":[]}}`))
		})

		posts, err := c.ListPosts(context.Background(), ep)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("malformed json", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>login required</html>`))
		})

		_, err := c.ListPosts(context.Background(), ep)
		var remoteErr *domain.RemoteUnavailableError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, "list", remoteErr.Op)
	})

	t.Run("post without id", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"cards": []any{map[string]any{"card_type": 9, "mblog": map[string]any{"text": "x"}}},
				},
			})
		})

		_, err := c.ListPosts(context.Background(), ep)
		var remoteErr *domain.RemoteUnavailableError
		require.ErrorAs(t, err, &remoteErr)
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		c := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
		_, err := c.ListPosts(context.Background(), ep)
		var remoteErr *domain.RemoteUnavailableError
		require.ErrorAs(t, err, &remoteErr)
	})
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		input    string
		expected flexString
	}{
		{`"123"`, "123"},
		{`" 123 "`, "123"},
		{`4981000000000012`, "4981000000000012"},
		{`null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var f flexString
			require.NoError(t, json.Unmarshal([]byte(tt.input), &f))
			assert.Equal(t, tt.expected, f)
		})
	}

	var f flexString
	assert.Error(t, json.Unmarshal([]byte(`{}`), &f))
}
