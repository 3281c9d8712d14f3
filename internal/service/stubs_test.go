package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/attesta/certmailer/internal/errors"

	"github.com/attesta/certmailer/internal/core"
	"github.com/attesta/certmailer/internal/domain/model"
)

// stubStore is an in-memory core.CredentialStore.
type stubStore struct {
	rec     *model.CredentialRecord
	getErr  error
	saveErr error
	delErr  error
	deletes int
	saves   int
}

func (s *stubStore) Get(context.Context) (model.CredentialRecord, error) {
	if s.getErr != nil {
		return model.CredentialRecord{}, s.getErr
	}
	if s.rec == nil {
		return model.CredentialRecord{}, apperrors.NotFound("no credential stored")
	}
	return *s.rec, nil
}

func (s *stubStore) Save(_ context.Context, rec model.CredentialRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.rec = &rec
	return nil
}

func (s *stubStore) Delete(context.Context) error {
	if s.delErr != nil {
		return s.delErr
	}
	s.deletes++
	s.rec = nil
	return nil
}

// stubBroker is a scripted core.TokenBroker.
type stubBroker struct {
	exchangeToken *oauth2.Token
	exchangeEmail string
	exchangeErr   error

	refreshToken *oauth2.Token
	refreshErr   error
	refreshCalls int
}

func (b *stubBroker) AuthCodeURL(state string) string {
	return "https://consent.example.com/?state=" + state
}

func (b *stubBroker) Exchange(context.Context, string) (*oauth2.Token, string, error) {
	if b.exchangeErr != nil {
		return nil, "", b.exchangeErr
	}
	return b.exchangeToken, b.exchangeEmail, nil
}

func (b *stubBroker) Refresh(context.Context, string) (*oauth2.Token, error) {
	b.refreshCalls++
	if b.refreshErr != nil {
		return nil, b.refreshErr
	}
	return b.refreshToken, nil
}

func (b *stubBroker) TokenSource(_ context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return oauth2.StaticTokenSource(tok)
}

// memQueue is an in-memory core.JobQueue preserving enqueue order.
type memQueue struct {
	order     []string
	jobs      map[string]*model.Job
	corrupt   map[string]error
	failed    map[string]model.FailedJob
	completed []string
	nextID    int

	enqueueErr error
	listErr    error
}

func newMemQueue() *memQueue {
	return &memQueue{
		jobs:    map[string]*model.Job{},
		corrupt: map[string]error{},
		failed:  map[string]model.FailedJob{},
	}
}

func (q *memQueue) Enqueue(_ context.Context, job *model.Job) (string, error) {
	if q.enqueueErr != nil {
		return "", q.enqueueErr
	}
	q.nextID++
	id := fmt.Sprintf("job-%d", q.nextID)
	q.order = append(q.order, id)
	q.jobs[id] = job
	return id, nil
}

func (q *memQueue) addCorrupt(reason error) string {
	q.nextID++
	id := fmt.Sprintf("job-%d", q.nextID)
	q.order = append(q.order, id)
	q.corrupt[id] = reason
	return id
}

func (q *memQueue) DequeueBatch(_ context.Context, maxSize int) ([]model.QueuedJob, error) {
	if q.listErr != nil {
		return nil, q.listErr
	}
	var out []model.QueuedJob
	for _, id := range q.order {
		if len(out) >= maxSize {
			break
		}
		if readErr, ok := q.corrupt[id]; ok {
			out = append(out, model.QueuedJob{ID: id, ReadErr: readErr})
			continue
		}
		out = append(out, model.QueuedJob{ID: id, Job: q.jobs[id]})
	}
	return out, nil
}

func (q *memQueue) Complete(_ context.Context, id string) error {
	q.completed = append(q.completed, id)
	q.remove(id)
	return nil
}

func (q *memQueue) Fail(_ context.Context, id string, job *model.Job, reason string) error {
	q.failed[id] = model.FailedJob{Job: job, Error: reason, FailedAt: time.Now()}
	q.remove(id)
	return nil
}

func (q *memQueue) PendingCount(context.Context) (int, error) {
	return len(q.order), nil
}

func (q *memQueue) remove(id string) {
	delete(q.jobs, id)
	delete(q.corrupt, id)
	for i, v := range q.order {
		if v == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// stubRenderer fails for jobs whose template matches failTemplate.
type stubRenderer struct {
	failTemplate string
	renders      int
}

func (r *stubRenderer) Render(job *model.Job) ([]byte, error) {
	r.renders++
	if r.failTemplate != "" && job.TemplateImage == r.failTemplate {
		return nil, apperrors.Wrap(fmt.Errorf("image decode failed"), apperrors.ErrCodeRender,
			"template image could not be decoded")
	}
	return []byte("%PDF-1.4 " + job.Recipient.Name), nil
}

// stubDispatcher records deliveries and fails scripted recipients.
type stubDispatcher struct {
	delivered []string
	failFor   map[string]error
}

func (d *stubDispatcher) Deliver(_ context.Context, _ core.Credential, job *model.Job, _ []byte) error {
	if err, ok := d.failFor[job.Recipient.Email]; ok {
		return err
	}
	d.delivered = append(d.delivered, job.Recipient.Email)
	return nil
}

// stubDeliveryLog records entries in memory.
type stubDeliveryLog struct {
	entries []model.DeliveryEntry
}

func (l *stubDeliveryLog) Record(_ context.Context, entry model.DeliveryEntry) error {
	l.entries = append(l.entries, entry)
	return nil
}

func validRecord(expiry time.Time) *model.CredentialRecord {
	return &model.CredentialRecord{
		AccessToken:     "access-token",
		RefreshToken:    "refresh-token",
		Expiry:          expiry,
		MailingIdentity: "sender@example.com",
	}
}

func sampleJob(name, email string) *model.Job {
	return &model.Job{
		Recipient:     model.Recipient{Name: name, Email: email},
		TemplateImage: "template-ok",
		Layout: model.Layout{
			Name:             model.NameStyle{X: 10, Y: 10, FontSize: 12},
			EditorDimensions: model.EditorDimensions{Width: 800, Height: 600},
		},
		EmailContent: model.EmailContent{Subject: "Certificate", Body: "Hello {{name}}"},
	}
}
