package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SlackWebhook posts the booking summary to a Slack incoming webhook.
type SlackWebhook struct {
	url    string
	client *http.Client
}

// NewSlackWebhook returns nil when url is empty.
func NewSlackWebhook(url string) *SlackWebhook {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	return &SlackWebhook{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

func (w *SlackWebhook) Name() string { return "slack" }

func (w *SlackWebhook) Deliver(ctx context.Context, n Notification) error {
	body, err := json.Marshal(map[string]string{"text": n.Summary.Text()})
	if err != nil {
		return fmt.Errorf("notify: marshal slack payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: slack post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notify: slack returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
