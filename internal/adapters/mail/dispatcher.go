// Package mail sends rendered certificates over SMTP using the delegated
// Gmail grant.
package mail

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	gomail "gopkg.in/gomail.v2"

	apperrors "github.com/attesta/certmailer/internal/errors"

	"github.com/attesta/certmailer/internal/core"
	"github.com/attesta/certmailer/internal/domain/model"
)

// namePlaceholder matches the recipient-name placeholder in the message body,
// case-insensitively and tolerating inner whitespace.
var namePlaceholder = regexp.MustCompile(`(?i)\{\{\s*name\s*\}\}`)

// SendFunc dials the SMTP server and sends one message. Swappable in tests.
type SendFunc func(d *gomail.Dialer, m *gomail.Message) error

// Options configures the SMTP dispatcher.
type Options struct {
	Host        string
	Port        int
	MaxRetries  uint64
	RetryWait   time.Duration
	Logger      *slog.Logger
	DialAndSend SendFunc
}

// Dispatcher delivers one rendered document per call through an XOAUTH2
// authenticated SMTP session. Each send dials a fresh connection; cycle sizes
// are small enough that connection reuse is not worth the state.
type Dispatcher struct {
	host        string
	port        int
	maxRetries  uint64
	retryWait   time.Duration
	logger      *slog.Logger
	dialAndSend SendFunc
}

// NewDispatcher creates an SMTP dispatcher.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.Host == "" {
		opts.Host = "smtp.gmail.com"
	}
	if opts.Port == 0 {
		opts.Port = 587
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 2
	}
	if opts.RetryWait == 0 {
		opts.RetryWait = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DialAndSend == nil {
		opts.DialAndSend = func(d *gomail.Dialer, m *gomail.Message) error {
			return d.DialAndSend(m)
		}
	}
	return &Dispatcher{
		host:        opts.Host,
		port:        opts.Port,
		maxRetries:  opts.MaxRetries,
		retryWait:   opts.RetryWait,
		logger:      opts.Logger,
		dialAndSend: opts.DialAndSend,
	}
}

// Deliver sends the rendered document to the job's recipient. The access
// token is taken from the credential source immediately before the send so a
// long cycle never dials with a token that expired mid-batch.
func (d *Dispatcher) Deliver(ctx context.Context, cred core.Credential, job *model.Job, document []byte) error {
	token, err := cred.Source.Token()
	if err != nil {
		return apperrors.ReauthRequired("mailing credential could not supply an access token", err)
	}

	msg := buildMessage(cred.Identity, job, document)

	dialer := gomail.NewDialer(d.host, d.port, cred.Identity, "")
	dialer.Auth = XOAUTH2(cred.Identity, token.AccessToken)

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(d.retryWait), d.maxRetries),
		ctx,
	)
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if sendErr := d.dialAndSend(dialer, msg); sendErr != nil {
			d.logger.WarnContext(ctx, "smtp send attempt failed",
				slog.String("recipient", job.Recipient.Email),
				slog.Int("attempt", attempt),
				slog.String("error", sendErr.Error()),
			)
			return sendErr
		}
		return nil
	}, policy)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeDelivery,
			"send certificate to %s", job.Recipient.Email)
	}

	d.logger.InfoContext(ctx, "certificate delivered",
		slog.String("recipient", job.Recipient.Email),
	)
	return nil
}

func buildMessage(from string, job *model.Job, document []byte) *gomail.Message {
	body := personalizeBody(job.EmailContent.Body, job.Recipient.Name)

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", job.Recipient.Email)
	m.SetHeader("Subject", job.EmailContent.Subject)
	m.SetBody("text/plain", body)
	m.AddAlternative("text/html", htmlBody(body))
	m.Attach(attachmentName(job.Recipient.Name), gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(document)
		return err
	}))
	return m
}

// personalizeBody substitutes the recipient's name for every placeholder
// occurrence. Bodies without a placeholder pass through unchanged.
func personalizeBody(body, name string) string {
	return namePlaceholder.ReplaceAllString(body, name)
}

func htmlBody(body string) string {
	return strings.ReplaceAll(body, "\n", "<br>")
}

// attachmentName derives the certificate filename from the recipient's name.
func attachmentName(recipientName string) string {
	return strings.ReplaceAll(recipientName, " ", "_") + "_certificate.pdf"
}
