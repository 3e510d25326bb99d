// Package jobs defines the background task types and the Asynq worker that
// processes them. Outbound customer messaging goes through the queue so a
// slow or flaky provider never stalls a workflow transition.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/medrent-erp/medrent-erp/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueNotifications carries customer-facing messages.
	QueueNotifications = "notifications"

	// TaskTypeSendWhatsApp is the task type for WhatsApp delivery.
	TaskTypeSendWhatsApp = "whatsapp:send"
	// TaskTypeSendEmail is the task type for transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// SendWhatsAppPayload describes one outbound WhatsApp message.
type SendWhatsAppPayload struct {
	OrderName string `json:"order_name"`
	Mobile    string `json:"mobile"`
	Message   string `json:"message"`
}

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendWhatsAppTask constructs an Asynq task.
func NewSendWhatsAppTask(payload SendWhatsAppPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendWhatsApp, data), nil
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// WhatsAppSender delivers a message to a 10-digit mobile number.
type WhatsAppSender interface {
	Send(ctx context.Context, mobile, message string) error
}

// EmailSender delivers a transactional email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewSendWhatsAppHandler processes TaskTypeSendWhatsApp tasks.
func NewSendWhatsAppHandler(sender WhatsAppSender, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeSendWhatsApp)
		var payload SendWhatsAppPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		if err := sender.Send(ctx, payload.Mobile, payload.Message); err != nil {
			logger.Warn("whatsapp delivery failed",
				slog.String("order", payload.OrderName),
				slog.String("error", err.Error()))
			return tracker.End(err)
		}
		logger.Info("whatsapp delivered", slog.String("order", payload.OrderName))
		return tracker.End(nil)
	}
}

// NewSendEmailHandler processes TaskTypeSendEmail tasks.
func NewSendEmailHandler(sender EmailSender, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeSendEmail)
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		if err := sender.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
			logger.Warn("email delivery failed",
				slog.String("to", payload.To),
				slog.String("error", err.Error()))
			return tracker.End(err)
		}
		return tracker.End(nil)
	}
}
