package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Resend's batch API accepts at most 100 emails per call
const resendBatchSize = 100

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

func NewResendSender(apiKey, from string, logger *slog.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger,
	}
}

// SendBatch returns how many emails were accepted before the first failing chunk
func (s *ResendSender) SendBatch(ctx context.Context, reqs []SendRequest) (int, error) {
	sent := 0
	for i := 0; i < len(reqs); i += resendBatchSize {
		end := i + resendBatchSize
		if end > len(reqs) {
			end = len(reqs)
		}

		params := make([]*resend.SendEmailRequest, 0, end-i)
		for _, req := range reqs[i:end] {
			params = append(params, &resend.SendEmailRequest{
				From:    s.from,
				To:      req.To,
				Subject: req.Subject,
				Html:    req.HTML,
			})
		}

		resp, err := s.client.Batch.SendWithContext(ctx, params)
		if err != nil {
			s.logger.ErrorContext(ctx, "resend_batch_failed", "error", err, "batch_size", len(params))
			return sent, fmt.Errorf("resend batch send failed: %w", err)
		}
		sent += len(resp.Data)
		s.logger.InfoContext(ctx, "resend_batch_sent", "count", len(resp.Data), "total_sent", sent)
	}
	return sent, nil
}

// NoopSender logs emails instead of delivering them
type NoopSender struct {
	logger *slog.Logger
}

func NewNoopSender(logger *slog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (s *NoopSender) SendBatch(ctx context.Context, reqs []SendRequest) (int, error) {
	for _, req := range reqs {
		s.logger.InfoContext(ctx, "noop_email_send", "to", req.To, "subject", req.Subject)
	}
	return len(reqs), nil
}
