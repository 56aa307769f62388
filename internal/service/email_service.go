package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/jobs"
	"github.com/cmc-renewal/cms-api/pkg/mailer"
)

// EmailConfig configures the delivery queue.
type EmailConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// EmailService queues outgoing mail and delivers it in the background with retries.
type EmailService struct {
	sender    mailer.Sender
	queue     *jobs.Queue[mailer.Message]
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewEmailService constructs an EmailService. Call Start before sending.
func NewEmailService(sender mailer.Sender, cfg EmailConfig, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *EmailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	s := &EmailService{sender: sender, validator: validate, logger: logger, metrics: metrics}
	s.queue = jobs.NewQueue("email", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *EmailService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop delivers the mail already queued, then waits for the workers to exit.
func (s *EmailService) Stop() {
	s.queue.Stop()
}

// Send validates msg and queues it, returning the job id.
func (s *EmailService) Send(ctx context.Context, msg mailer.Message) (string, error) {
	if len(msg.To) == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "Missing recipient")
	}
	for _, to := range msg.To {
		if err := s.validator.Var(to, "required,email"); err != nil {
			return "", appErrors.Clone(appErrors.ErrValidation, "Invalid recipient "+to)
		}
	}
	if msg.Text == "" && msg.HTML == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "Missing message body")
	}

	id, err := s.queue.Enqueue(ctx, msg)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue email")
	}
	s.logger.Debug("email queued", zap.String("job_id", id), zap.Strings("to", msg.To))
	return id, nil
}

// SendTest queues the admin panel test email.
func (s *EmailService) SendTest(ctx context.Context, to string) (string, error) {
	return s.Send(ctx, mailer.Message{
		To:      []string{to},
		Subject: "Test email",
		Text:    "Great! You have correctly configured the SMTP email provider.",
		HTML:    "<p>Great! You have correctly configured the SMTP email provider.</p>",
	})
}

func (s *EmailService) deliver(ctx context.Context, job jobs.Job[mailer.Message]) error {
	err := s.sender.Send(ctx, job.Payload)
	s.metrics.RecordEmail(err)
	if err != nil {
		return err
	}
	s.logger.Info("email sent", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt+1))
	return nil
}
