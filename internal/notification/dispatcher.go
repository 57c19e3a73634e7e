// Package notification forwards benefit lifecycle events to an external
// webhook so employees and reviewers get notified out of band.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/benefit-management/internal"
	"github.com/frahmantamala/benefit-management/internal/core/events"
)

type Dispatcher struct {
	webhookURL string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

type Config struct {
	WebhookURL string
	Timeout    time.Duration
}

func NewDispatcher(config Config, logger *slog.Logger) *Dispatcher {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		webhookURL: config.WebhookURL,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Register subscribes the dispatcher to the benefit lifecycle events.
func (d *Dispatcher) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeBenefitSubmitted, d.handleEvent)
	bus.Subscribe(events.EventTypeBenefitStageAdvanced, d.handleEvent)
	bus.Subscribe(events.EventTypeBenefitApproved, d.handleEvent)
	bus.Subscribe(events.EventTypeBenefitRejected, d.handleEvent)
}

func (d *Dispatcher) handleEvent(ctx context.Context, event events.Event) error {
	if d.webhookURL == "" {
		d.logger.Debug("notification webhook not configured, skipping", "event_type", event.EventType())
		return nil
	}

	payload := map[string]interface{}{
		"event_id":    event.EventID(),
		"event_type":  event.EventType(),
		"occurred_at": event.OccurredAt(),
		"data":        event.Payload(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	// bound the delivery even when the bus hands over a long-lived context
	ctx, cancel := internal.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", d.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Error("notification delivery failed",
			"error", err,
			"event_type", event.EventType(),
			"event_id", event.EventID())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		d.logger.Error("notification webhook returned error status",
			"status", resp.StatusCode,
			"event_type", event.EventType())
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}

	d.logger.Info("notification delivered",
		"event_type", event.EventType(),
		"event_id", event.EventID())
	return nil
}
