package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gomail "gopkg.in/gomail.v2"

	apperrors "github.com/attesta/certmailer/internal/errors"

	"github.com/attesta/certmailer/internal/core"
	"github.com/attesta/certmailer/internal/domain/model"
)

func testJob() *model.Job {
	return &model.Job{
		Recipient: model.Recipient{Name: "Maria Silva", Email: "maria@example.com"},
		EmailContent: model.EmailContent{
			Subject: "Your certificate",
			Body:    "Hello {{name}},\nyour certificate is attached.",
		},
	}
}

func testCredential() core.Credential {
	return core.Credential{
		Identity: "sender@example.com",
		Source:   oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access-token"}),
	}
}

func quietDispatcher(send SendFunc) *Dispatcher {
	return NewDispatcher(Options{
		RetryWait:   time.Millisecond,
		Logger:      slog.New(slog.DiscardHandler),
		DialAndSend: send,
	})
}

func TestDeliver(t *testing.T) {
	var sent *gomail.Message
	var dialer *gomail.Dialer
	d := quietDispatcher(func(dl *gomail.Dialer, m *gomail.Message) error {
		dialer = dl
		sent = m
		return nil
	})

	err := d.Deliver(context.Background(), testCredential(), testJob(), []byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NotNil(t, sent)

	assert.Equal(t, []string{"maria@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"sender@example.com"}, sent.GetHeader("From"))
	assert.Equal(t, []string{"Your certificate"}, sent.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = sent.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Maria Silva")
	assert.Contains(t, raw, "Maria_Silva_certificate.pdf")

	require.NotNil(t, dialer)
	assert.Equal(t, "smtp.gmail.com", dialer.Host)
	assert.Equal(t, 587, dialer.Port)
	assert.NotNil(t, dialer.Auth)
}

func TestDeliverRetriesTransientFailure(t *testing.T) {
	attempts := 0
	d := quietDispatcher(func(_ *gomail.Dialer, _ *gomail.Message) error {
		attempts++
		if attempts < 2 {
			return errors.New("451 temporary failure")
		}
		return nil
	})

	err := d.Deliver(context.Background(), testCredential(), testJob(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDeliverExhaustsRetries(t *testing.T) {
	attempts := 0
	d := quietDispatcher(func(_ *gomail.Dialer, _ *gomail.Message) error {
		attempts++
		return errors.New("550 rejected")
	})

	err := d.Deliver(context.Background(), testCredential(), testJob(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsDelivery(err))
	assert.Equal(t, 3, attempts)
}

func TestDeliverTokenSourceFailure(t *testing.T) {
	d := quietDispatcher(func(_ *gomail.Dialer, _ *gomail.Message) error {
		t.Fatal("send must not be attempted without a token")
		return nil
	})

	cred := core.Credential{
		Identity: "sender@example.com",
		Source: tokenSourceFunc(func() (*oauth2.Token, error) {
			return nil, errors.New("invalid_grant")
		}),
	}

	err := d.Deliver(context.Background(), cred, testJob(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsReauthRequired(err))
}

type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) { return f() }

func TestPersonalizeBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"lowercase", "Hi {{name}}!", "Hi Ana!"},
		{"uppercase", "Hi {{NAME}}!", "Hi Ana!"},
		{"spaced", "Hi {{ Name }}!", "Hi Ana!"},
		{"multiple", "{{name}} and {{name}}", "Ana and Ana"},
		{"absent", "Hi there!", "Hi there!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, personalizeBody(tc.body, "Ana"))
		})
	}
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "Maria_Silva_certificate.pdf", attachmentName("Maria Silva"))
	assert.Equal(t, "Ana_certificate.pdf", attachmentName("Ana"))
}
