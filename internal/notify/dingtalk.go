package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/abdulachik/weibobot/internal/domain"
)

// DingTalkNotifier posts text messages to a DingTalk robot webhook.
type DingTalkNotifier struct {
	httpClient *http.Client
	webhook    string
	secret     string
	now        func() time.Time
}

// DingTalkConfig holds configuration for the DingTalk notifier.
type DingTalkConfig struct {
	Webhook string // robot webhook URL including access_token
	Secret  string // signing secret, optional
	Timeout time.Duration
}

// NewDingTalkNotifier creates a new DingTalk notifier.
func NewDingTalkNotifier(cfg DingTalkConfig) *DingTalkNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &DingTalkNotifier{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		webhook: cfg.Webhook,
		secret:  cfg.Secret,
		now:     time.Now,
	}
}

// Name returns the notifier name.
func (d *DingTalkNotifier) Name() string {
	return "dingtalk"
}

type dingTalkMessage struct {
	MsgType string `json:"msgtype"`
	Text    struct {
		Content string `json:"content"`
	} `json:"text"`
}

type dingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Send delivers the notification as a text message.
func (d *DingTalkNotifier) Send(ctx context.Context, notification Notification) error {
	if err := d.send(ctx, notification); err != nil {
		return &domain.NotifierDeliveryError{Notifier: d.Name(), Err: err}
	}
	return nil
}

func (d *DingTalkNotifier) send(ctx context.Context, notification Notification) error {
	if d.webhook == "" {
		return errors.New("webhook is not configured")
	}

	target, err := d.signedURL()
	if err != nil {
		return err
	}

	var msg dingTalkMessage
	msg.MsgType = "text"
	msg.Text.Content = notification.Text()

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result dingTalkResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("webhook rejected message (errcode %d): %s", result.ErrCode, result.ErrMsg)
	}

	slog.Debug("dingtalk message delivered", "subject", notification.Subject)
	return nil
}

// signedURL adds the timestamp and signature DingTalk expects when the
// robot has signing enabled.
func (d *DingTalkNotifier) signedURL() (string, error) {
	if d.secret == "" {
		return d.webhook, nil
	}

	u, err := url.Parse(d.webhook)
	if err != nil {
		return "", fmt.Errorf("parse webhook: %w", err)
	}

	timestamp := strconv.FormatInt(d.now().UnixMilli(), 10)
	q := u.Query()
	q.Set("timestamp", timestamp)
	q.Set("sign", sign(timestamp, d.secret))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func sign(timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "\n" + secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
