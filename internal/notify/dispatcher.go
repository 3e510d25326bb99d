package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/medrent-erp/medrent-erp/jobs"
)

// QueueMessenger hands messages to the background queue instead of calling
// the provider inline, so a transition never waits on the WhatsApp gateway.
type QueueMessenger struct {
	jobs   *jobs.Client
	logger *slog.Logger
}

// NewQueueMessenger constructs a queue-backed messenger.
func NewQueueMessenger(client *jobs.Client, logger *slog.Logger) *QueueMessenger {
	return &QueueMessenger{jobs: client, logger: logger}
}

// Send validates the number and enqueues the delivery task.
func (m *QueueMessenger) Send(ctx context.Context, mobile, message string) error {
	normalized, err := NormalizeMobile(mobile)
	if err != nil {
		return err
	}
	info, err := m.jobs.EnqueueSendWhatsApp(ctx, jobs.SendWhatsAppPayload{
		Mobile:  normalized,
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("notify: enqueue whatsapp task: %w", err)
	}
	m.logger.Debug("whatsapp task enqueued", slog.String("task_id", info.ID))
	return nil
}

// QueueMailer enqueues transactional email; the worker's SMTP relay does the
// actual delivery.
type QueueMailer struct {
	jobs   *jobs.Client
	logger *slog.Logger
}

// NewQueueMailer constructs a queue-backed mailer.
func NewQueueMailer(client *jobs.Client, logger *slog.Logger) *QueueMailer {
	return &QueueMailer{jobs: client, logger: logger}
}

// Send enqueues the mail task.
func (m *QueueMailer) Send(ctx context.Context, to, subject, body string) error {
	info, err := m.jobs.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("notify: enqueue mail task: %w", err)
	}
	m.logger.Debug("mail task enqueued", slog.String("task_id", info.ID))
	return nil
}
