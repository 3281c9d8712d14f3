// Package model defines the core data types used throughout the certmailer delivery pipeline.
package model

import (
	"errors"
	"strings"
	"time"
)

// Recipient identifies one certificate recipient.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EmailContent holds the message templates shared by every job in a batch.
// The body may contain the recipient-name placeholder, replaced at dispatch time.
type EmailContent struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Job is one recipient's pending certificate-generation-and-delivery unit of work.
// Jobs are immutable once queued: they are read, rendered, delivered and then
// deleted (or moved to a FailedJob record).
type Job struct {
	Recipient       Recipient    `json:"recipient"`
	TemplateImage   string       `json:"template_image"`   // base64, optionally a data URL
	SignatureImages []string     `json:"signature_images"` // base64, paired by index with layout signatures
	Layout          Layout       `json:"layout"`
	EmailContent    EmailContent `json:"email_content"`
}

// FailedJob is the terminal record of a Job that could not be completed,
// held under a longer retention window for manual review.
type FailedJob struct {
	Job      *Job      `json:"job,omitempty"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// QueuedJob pairs a pending job with its queue id. ReadErr is set when the
// stored job data could not be read back; the job itself is nil in that case.
type QueuedJob struct {
	ID      string
	Job     *Job
	ReadErr error
}

// CycleSummary reports the outcome of one batch worker cycle.
type CycleSummary struct {
	BatchSize int `json:"batch_size"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Validate checks the fields a job must carry before it may be queued.
func (j *Job) Validate() error {
	if strings.TrimSpace(j.Recipient.Name) == "" {
		return errors.New("recipient name is required")
	}
	if strings.TrimSpace(j.Recipient.Email) == "" {
		return errors.New("recipient email is required")
	}
	if j.TemplateImage == "" {
		return errors.New("template image is required")
	}
	if j.EmailContent.Subject == "" || j.EmailContent.Body == "" {
		return errors.New("email subject and body are required")
	}
	return j.Layout.Validate(len(j.SignatureImages))
}
