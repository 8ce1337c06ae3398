package weibo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abdulachik/weibobot/internal/domain"
)

// createdAtLayout is the timestamp layout used by the container API, e.g.
// "Mon Oct 14 10:00:00 +0800 2026".
const createdAtLayout = time.RubyDate

// indexResponse covers both getIndex shapes: the profile lookup fills
// TabsInfo, the container listing fills Cards.
type indexResponse struct {
	OK   *int   `json:"ok"`
	Msg  string `json:"msg"`
	Data struct {
		TabsInfo struct {
			Tabs []tab `json:"tabs"`
		} `json:"tabsInfo"`
		Cards []card `json:"cards"`
	} `json:"data"`
}

type tab struct {
	TabType     string     `json:"tab_type"`
	ContainerID flexString `json:"containerid"`
}

type card struct {
	CardType int    `json:"card_type"`
	Mblog    *mblog `json:"mblog"`
}

type mblog struct {
	ID        flexString `json:"id"`
	CreatedAt string     `json:"created_at"`
	Text      string     `json:"text"`
	Source    string     `json:"source"`
	User      struct {
		ScreenName string `json:"screen_name"`
	} `json:"user"`
}

func (m *mblog) toPost(account domain.Account) domain.Post {
	return domain.Post{
		ID:        string(m.ID),
		Account:   account,
		CreatedAt: m.CreatedAt,
		PostedAt:  parseCreatedAt(m.CreatedAt),
		Text:      m.Text,
		Source:    m.Source,
		Author:    m.User.ScreenName,
	}
}

// parseCreatedAt returns the zero time for relative stamps such as "刚刚".
func parseCreatedAt(s string) time.Time {
	t, err := time.Parse(createdAtLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// flexString decodes a JSON string or number into its decimal text.
// The API is inconsistent about how ids are encoded.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", b)
	}
	*f = flexString(n.String())
	return nil
}
