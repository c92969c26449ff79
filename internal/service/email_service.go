package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"gopkg.in/gomail.v2"
)

// EmailService sends transactional emails. Dispatch is best-effort: callers
// log failures and never fail the primary operation on them.
type EmailService interface {
	SendVerificationCode(ctx context.Context, toEmail, code string, expiresIn time.Duration, idempotencyKey string) error
	SendAccountApproved(ctx context.Context, toEmail, idempotencyKey string) error
}

// NoopEmailService is used when outbound email is disabled.
type NoopEmailService struct{}

func (s *NoopEmailService) SendVerificationCode(ctx context.Context, toEmail, code string, expiresIn time.Duration, idempotencyKey string) error {
	log.Printf("[EmailService] noop send verification code to=%s", toEmail)
	return nil
}

func (s *NoopEmailService) SendAccountApproved(ctx context.Context, toEmail, idempotencyKey string) error {
	log.Printf("[EmailService] noop send account approved to=%s", toEmail)
	return nil
}

// ResendEmailService sends emails via Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendVerificationCode(ctx context.Context, toEmail, code string, expiresIn time.Duration, idempotencyKey string) error {
	if toEmail == "" || code == "" {
		return fmt.Errorf("toEmail and code are required")
	}

	expiry := humanExpiry(expiresIn)
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Verify your email",
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %s.", code, expiry),
		Html:    fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in %s.</p>", code, expiry),
	}
	return s.sendWithRetry(ctx, params, idempotencyKey)
}

func (s *ResendEmailService) SendAccountApproved(ctx context.Context, toEmail, idempotencyKey string) error {
	if toEmail == "" {
		return fmt.Errorf("toEmail is required")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Your account has been approved",
		Text:    "Your account has been approved. You can now sign in.",
		Html:    "<p>Your account has been approved. You can now sign in.</p>",
	}
	return s.sendWithRetry(ctx, params, idempotencyKey)
}

func (s *ResendEmailService) sendWithRetry(ctx context.Context, params *resend.SendEmailRequest, idempotencyKey string) error {
	options := &resend.SendEmailOptions{}
	if strings.TrimSpace(idempotencyKey) != "" {
		options.IdempotencyKey = strings.TrimSpace(idempotencyKey)
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}

// SMTPEmailService sends emails through a plain SMTP relay via gomail.
type SMTPEmailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPEmailService(host string, port int, username, password, from string) (*SMTPEmailService, error) {
	if host == "" || port == 0 {
		return nil, fmt.Errorf("smtp host and port are required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &SMTPEmailService{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}, nil
}

func (s *SMTPEmailService) SendVerificationCode(ctx context.Context, toEmail, code string, expiresIn time.Duration, idempotencyKey string) error {
	if toEmail == "" || code == "" {
		return fmt.Errorf("toEmail and code are required")
	}

	expiry := humanExpiry(expiresIn)
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Verify your email")
	m.SetBody("text/plain", fmt.Sprintf("Your verification code is %s. It expires in %s.", code, expiry))
	m.AddAlternative("text/html", fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in %s.</p>", code, expiry))

	return s.send(ctx, m)
}

func (s *SMTPEmailService) SendAccountApproved(ctx context.Context, toEmail, idempotencyKey string) error {
	if toEmail == "" {
		return fmt.Errorf("toEmail is required")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your account has been approved")
	m.SetBody("text/plain", "Your account has been approved. You can now sign in.")

	return s.send(ctx, m)
}

// send respects context cancellation around the blocking SMTP dial.
func (s *SMTPEmailService) send(ctx context.Context, m *gomail.Message) error {
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send failed: %w", err)
		}
		return nil
	}
}

// humanExpiry renders a TTL the way it reads in an email ("15 minutes").
func humanExpiry(d time.Duration) string {
	if d <= 0 {
		d = 15 * time.Minute
	}
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes <= 1 {
		return "1 minute"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := minutes / 60
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
