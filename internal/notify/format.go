package notify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/abdulachik/weibobot/internal/domain"
	"golang.org/x/net/html"
)

// MaxBodyRunes bounds the post text carried in one message.
const MaxBodyRunes = 3000

// FormatPost builds the message announcing a new post.
func FormatPost(post domain.Post) Notification {
	author := post.Author
	if author == "" {
		author = string(post.Account)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "发送时间：%s\n", post.CreatedAt)
	fmt.Fprintf(&b, "发送内容：%s\n", truncate(PlainText(post.Text), MaxBodyRunes))
	if source := PlainText(post.Source); source != "" {
		fmt.Fprintf(&b, "来自：%s\n", source)
	}

	return Notification{
		Subject: author + "发布新微博！",
		Body:    b.String(),
	}
}

// PlainText reduces post markup to readable text. Line breaks are kept and
// emoji images become their alt text, e.g. "[doge]".
func PlainText(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return strings.TrimSpace(markup)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.TrimSpace(markup)
	}

	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(textNode("\n"))
	})
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); ok {
			s.ReplaceWithNodes(textNode(alt))
		} else {
			s.Remove()
		}
	})

	return strings.TrimSpace(doc.Text())
}

func textNode(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// truncate shortens s to maxRunes, adding an ellipsis if truncated.
func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:maxRunes-3]), " ") + "..."
}
