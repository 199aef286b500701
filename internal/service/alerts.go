package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/expensetrade/backend/internal/forecast"
	"github.com/expensetrade/backend/internal/model"
	"github.com/expensetrade/backend/internal/store"
)

// WebhookSender posts alert payloads to a configured endpoint.
type WebhookSender struct {
	HTTP *http.Client
}

// WebhookPayload is the JSON body delivered on a daily-limit breach.
type WebhookPayload struct {
	Event        string  `json:"event"`
	Owner        string  `json:"owner"`
	Date         string  `json:"date"`
	Cap          float64 `json:"cap"`
	RunningTotal float64 `json:"runningTotal"`
	Overage      float64 `json:"overage"`
}

func (s WebhookSender) Send(ctx context.Context, url string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	client := s.HTTP
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook http status %d", resp.StatusCode)
	}
	return nil
}

// DigestPayload is the JSON body of the prior-day summary delivery.
type DigestPayload struct {
	Event        string  `json:"event"`
	Owner        string  `json:"owner"`
	Date         string  `json:"date"`
	Cap          float64 `json:"cap"`
	RunningTotal float64 `json:"runningTotal"`
	Records      int     `json:"records"`
	State        string  `json:"state"`
}

// AlertNotifier persists breach alerts and delivers webhook notifications.
// Persistence is the idempotency gate: the webhook fires only when the
// store accepts the day's first alert.
type AlertNotifier struct {
	store      store.Store
	sender     WebhookSender
	webhookURL string
	logger     *zap.Logger
}

func NewAlertNotifier(st store.Store, webhookURL string, timeout time.Duration, logger *zap.Logger) *AlertNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AlertNotifier{
		store:      st,
		sender:     WebhookSender{HTTP: &http.Client{Timeout: timeout}},
		webhookURL: webhookURL,
		logger:     logger,
	}
}

// Notify records an alert for a breached day. Returns the stored alert, or
// nil when the day was already alerted or is not breached. Webhook delivery
// is best effort; a failed post never rolls back the stored alert.
func (n *AlertNotifier) Notify(ctx context.Context, status forecast.DayStatus) (*model.Alert, error) {
	if status.State != forecast.LimitBreached {
		return nil, nil
	}

	alert := forecast.NewAlert(status, time.Now())
	created, err := n.store.CreateAlert(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("persist alert: %w", err)
	}
	if !created {
		return nil, nil
	}

	n.logger.Info("daily limit breached",
		zap.String("owner", status.Owner),
		zap.String("date", status.Date),
		zap.Float64("cap", status.Cap),
		zap.Float64("overage", status.Overage))

	if n.webhookURL != "" {
		payload := WebhookPayload{
			Event:        "daily_limit_breached",
			Owner:        status.Owner,
			Date:         status.Date,
			Cap:          status.Cap,
			RunningTotal: status.RunningTotal,
			Overage:      status.Overage,
		}
		if err := n.sender.Send(ctx, n.webhookURL, payload); err != nil {
			n.logger.Warn("webhook delivery failed",
				zap.String("owner", status.Owner),
				zap.String("date", status.Date),
				zap.Error(err))
		}
	}
	return alert, nil
}

// SendDigest delivers a prior-day summary for one owner. Delivery is best
// effort and skipped entirely when no webhook is configured.
func (n *AlertNotifier) SendDigest(ctx context.Context, status forecast.DayStatus, records int) {
	if n.webhookURL == "" {
		return
	}
	payload := DigestPayload{
		Event:        "daily_digest",
		Owner:        status.Owner,
		Date:         status.Date,
		Cap:          status.Cap,
		RunningTotal: status.RunningTotal,
		Records:      records,
		State:        string(status.State),
	}
	if err := n.sender.Send(ctx, n.webhookURL, payload); err != nil {
		n.logger.Warn("digest delivery failed",
			zap.String("owner", status.Owner),
			zap.String("date", status.Date),
			zap.Error(err))
	}
}
