package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"med-reminder/internal/platform/httpclient"
	"med-reminder/internal/ports/notify"
)

// Webhook publica cada notificación como JSON en una URL externa
// (push gateway, ntfy, etc.). Sin URL configurada devuelve ErrUnavailable.
type Webhook struct {
	url    string
	client *httpclient.Client
	now    func() time.Time
}

type WebhookConfig struct {
	URL     string
	Timeout time.Duration
	Token   string
}

type webhookPayload struct {
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	Icon   string    `json:"icon,omitempty"`
	SentAt time.Time `json:"sent_at"`
}

func NewWebhook(cfg WebhookConfig) (*Webhook, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return &Webhook{now: time.Now}, nil
	}
	c, err := httpclient.New(httpclient.Options{Timeout: cfg.Timeout, Token: cfg.Token})
	if err != nil {
		return nil, err
	}
	return &Webhook{url: url, client: c, now: time.Now}, nil
}

func (w *Webhook) IsConfigured() bool {
	return w != nil && w.url != "" && w.client != nil
}

func (w *Webhook) Notify(ctx context.Context, n notify.Notification) error {
	if !w.IsConfigured() {
		return notify.ErrUnavailable
	}
	err := w.client.DoJSON(ctx, http.MethodPost, w.url, webhookPayload{
		Title:  n.Title,
		Body:   n.Body,
		Icon:   n.Icon,
		SentAt: w.now().UTC(),
	}, nil)
	if err != nil {
		return fmt.Errorf("webhook notify: %w", err)
	}
	return nil
}
