package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	"github.com/shyamsasidharan1/eventbuddy/pkg/i18n"
	"github.com/shyamsasidharan1/eventbuddy/pkg/mailer"
)

type fakeSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

type fakeNotificationRepo struct {
	records map[string]*model.Notification
	seq     int
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.seq++
	n.NotificationID = string(rune('a' + r.seq))
	cp := *n
	r.records[n.NotificationID] = &cp
	return nil
}

func (r *fakeNotificationRepo) Update(_ context.Context, n *model.Notification) error {
	cp := *n
	r.records[n.NotificationID] = &cp
	return nil
}

type fakePublisher struct {
	key     string
	payload any
}

func (p *fakePublisher) Publish(_ context.Context, key string, payload any) error {
	p.key, p.payload = key, payload
	return nil
}

func newTestDispatcher(t *testing.T, sender Sender) (*Dispatcher, *fakeNotificationRepo) {
	t.Helper()
	catalog, err := i18n.NewCatalog("en")
	require.NoError(t, err)
	repo := &fakeNotificationRepo{records: map[string]*model.Notification{}}
	d := NewDispatcher(catalog, sender, repo, Options{
		WebOrigin: "http://localhost:3000",
		Locale:    "en",
		InviteTTL: 72 * time.Hour,
	}, zap.NewNop())
	return d, repo
}

var (
	testOrg    = &model.Organization{OrgID: "org-1", Name: "Helping Hands"}
	testMember = &model.MemberProfile{MemberID: "m-1", FirstName: "Ana", LastName: "Silva"}
)

func TestMemberInvited_SendsLinkAndRecords(t *testing.T) {
	sender := &fakeSender{}
	d, repo := newTestDispatcher(t, sender)

	d.MemberInvited(context.Background(), testOrg, testMember, "ana@example.org", "tok-123")

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ana@example.org", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Body, "http://localhost:3000/accept-invite?token=tok-123")
	assert.Contains(t, sender.sent[0].Body, "72 hours")

	require.Len(t, repo.records, 1)
	for _, rec := range repo.records {
		assert.Equal(t, model.NotificationSent, rec.Status)
		assert.NotNil(t, rec.SentAt)
		assert.Equal(t, "m-1", *rec.RelatedID)
	}
}

func TestDeliver_SendFailureIsRecordedNotRaised(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	d, repo := newTestDispatcher(t, sender)

	assert.NotPanics(t, func() {
		d.MemberDenied(context.Background(), testOrg, testMember, "ana@example.org", "incomplete application")
	})

	require.Len(t, repo.records, 1)
	for _, rec := range repo.records {
		assert.Equal(t, model.NotificationFailed, rec.Status)
		require.NotNil(t, rec.Error)
		assert.Equal(t, "smtp down", *rec.Error)
	}
}

func TestRegistrationRequestReceived_NotifiesAdmins(t *testing.T) {
	sender := &fakeSender{}
	d, _ := newTestDispatcher(t, sender)

	d.RegistrationRequestReceived(context.Background(), testOrg, testMember, "ana@example.org", "hi there",
		[]string{"admin1@example.org", "admin2@example.org"})

	require.Len(t, sender.sent, 3)
	assert.Equal(t, "ana@example.org", sender.sent[0].To)
	assert.Contains(t, sender.sent[1].Body, "Ana Silva")
	assert.Contains(t, sender.sent[1].Body, "hi there")
	assert.Equal(t, "admin2@example.org", sender.sent[2].To)
}

func TestDeliver_SkipsEmptyRecipient(t *testing.T) {
	sender := &fakeSender{}
	d, repo := newTestDispatcher(t, sender)

	d.MemberApproved(context.Background(), testOrg, testMember, "")

	assert.Empty(t, sender.sent)
	assert.Empty(t, repo.records)
}

func TestQueueSender_PublishesEmailJob(t *testing.T) {
	pub := &fakePublisher{}
	s := NewQueueSender(pub)

	msg := mailer.Message{To: "a@b.c", Subject: "s", Body: "b"}
	require.NoError(t, s.Send(context.Background(), msg))

	assert.Equal(t, RoutingKeyEmail, pub.key)
	assert.Equal(t, EmailJob{Message: msg}, pub.payload)
}
