// Package notify 渲染并投递会员与报名相关的邮件通知
// 通知在事务提交后发出，投递失败只记录日志与指标，不影响业务结果
package notify

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
	"github.com/shyamsasidharan1/eventbuddy/pkg/i18n"
	"github.com/shyamsasidharan1/eventbuddy/pkg/mailer"
	"github.com/shyamsasidharan1/eventbuddy/pkg/metrics"
)

// 通知类型，同时作为文案 key 前缀
const (
	KindMemberInvite                = "member_invite"
	KindRegistrationRequestReceived = "registration_request_received"
	KindRegistrationRequestAdmin    = "registration_request_admin"
	KindMemberApproved              = "member_approved"
	KindMemberDenied                = "member_denied"
	KindMemberInactivated           = "member_inactivated"
	KindMemberActivated             = "member_activated"
	KindEventRegistration           = "event_registration"
)

// Notifier 业务层使用的通知接口
type Notifier interface {
	MemberInvited(ctx context.Context, org *model.Organization, m *model.MemberProfile, email, token string)
	RegistrationRequestReceived(ctx context.Context, org *model.Organization, m *model.MemberProfile, email, message string, adminEmails []string)
	MemberApproved(ctx context.Context, org *model.Organization, m *model.MemberProfile, email string)
	MemberDenied(ctx context.Context, org *model.Organization, m *model.MemberProfile, email, reason string)
	MemberInactivated(ctx context.Context, org *model.Organization, m *model.MemberProfile, email, reason string)
	MemberActivated(ctx context.Context, org *model.Organization, m *model.MemberProfile, email string)
	EventRegistration(ctx context.Context, m *model.MemberProfile, email string, ev *model.Event, status string, count int)
}

// Options Dispatcher 配置
type Options struct {
	WebOrigin string
	Locale    string
	InviteTTL time.Duration
}

// Dispatcher Notifier 的默认实现
type Dispatcher struct {
	catalog *i18n.Catalog
	sender  Sender
	repo    repository.NotificationRepository // 可为 nil，nil 时不落库
	opts    Options
	logger  *zap.Logger
}

// NewDispatcher 创建 Dispatcher
func NewDispatcher(catalog *i18n.Catalog, sender Sender, repo repository.NotificationRepository, opts Options, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{catalog: catalog, sender: sender, repo: repo, opts: opts, logger: logger}
}

func (d *Dispatcher) link(path string, query url.Values) string {
	u := d.opts.WebOrigin + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

type delivery struct {
	orgID       string
	to          string
	kind        string
	data        map[string]any
	relatedType string
	relatedID   string
}

// deliver 渲染、记录、发送一封邮件；错误只记录不返回
func (d *Dispatcher) deliver(ctx context.Context, dl delivery) {
	if dl.to == "" {
		d.logger.Warn("通知缺少收件人，已跳过", zap.String("kind", dl.kind), zap.String("related_id", dl.relatedID))
		return
	}

	subject, body, err := d.catalog.Render(d.opts.Locale, dl.kind, dl.data)
	if err != nil {
		d.logger.Error("渲染通知失败", zap.String("kind", dl.kind), zap.Error(err))
		metrics.ObserveNotification(dl.kind, err)
		return
	}

	record := &model.Notification{
		OrgID:     dl.orgID,
		Recipient: dl.to,
		Kind:      dl.kind,
		Subject:   subject,
		Status:    model.NotificationQueued,
	}
	if dl.relatedType != "" {
		record.RelatedType = &dl.relatedType
		record.RelatedID = &dl.relatedID
	}
	if d.repo != nil {
		if err := d.repo.Create(ctx, record); err != nil {
			d.logger.Warn("记录通知失败", zap.String("kind", dl.kind), zap.Error(err))
		}
	}

	sendErr := d.sender.Send(ctx, mailer.Message{To: dl.to, Subject: subject, Body: body})
	metrics.ObserveNotification(dl.kind, sendErr)

	if sendErr != nil {
		msg := sendErr.Error()
		record.Status = model.NotificationFailed
		record.Error = &msg
		d.logger.Warn("发送通知失败",
			zap.String("kind", dl.kind),
			zap.String("to", dl.to),
			zap.Error(sendErr),
		)
	} else {
		now := time.Now()
		record.Status = model.NotificationSent
		record.SentAt = &now
	}

	if d.repo != nil && record.NotificationID != "" {
		if err := d.repo.Update(ctx, record); err != nil {
			d.logger.Warn("更新通知状态失败", zap.String("notification_id", record.NotificationID), zap.Error(err))
		}
	}
}

func (d *Dispatcher) MemberInvited(ctx context.Context, org *model.Organization, m *model.MemberProfile, email, token string) {
	d.deliver(ctx, delivery{
		orgID: org.OrgID,
		to:    email,
		kind:  KindMemberInvite,
		data: map[string]any{
			"OrgName":      org.Name,
			"FirstName":    m.FirstName,
			"Link":         d.link("/accept-invite", url.Values{"token": {token}}),
			"ExpiresHours": int(d.opts.InviteTTL.Hours()),
		},
		relatedType: "member",
		relatedID:   m.MemberID,
	})
}

func (d *Dispatcher) RegistrationRequestReceived(ctx context.Context, org *model.Organization, m *model.MemberProfile, email, message string, adminEmails []string) {
	d.deliver(ctx, delivery{
		orgID: org.OrgID,
		to:    email,
		kind:  KindRegistrationRequestReceived,
		data: map[string]any{
			"OrgName":   org.Name,
			"FirstName": m.FirstName,
			"MemberID":  m.MemberID,
		},
		relatedType: "member",
		relatedID:   m.MemberID,
	})

	for _, admin := range adminEmails {
		d.deliver(ctx, delivery{
			orgID: org.OrgID,
			to:    admin,
			kind:  KindRegistrationRequestAdmin,
			data: map[string]any{
				"OrgName":  org.Name,
				"FullName": m.FullName(),
				"Email":    email,
				"MemberID": m.MemberID,
				"Message":  message,
				"Link":     d.link("/admin/approvals", nil),
			},
			relatedType: "member",
			relatedID:   m.MemberID,
		})
	}
}

func (d *Dispatcher) MemberApproved(ctx context.Context, org *model.Organization, m *model.MemberProfile, email string) {
	d.deliver(ctx, d.memberDelivery(org, m, email, KindMemberApproved, map[string]any{"Link": d.link("/login", nil)}))
}

func (d *Dispatcher) MemberDenied(ctx context.Context, org *model.Organization, m *model.MemberProfile, email, reason string) {
	d.deliver(ctx, d.memberDelivery(org, m, email, KindMemberDenied, map[string]any{"Reason": reason}))
}

func (d *Dispatcher) MemberInactivated(ctx context.Context, org *model.Organization, m *model.MemberProfile, email, reason string) {
	d.deliver(ctx, d.memberDelivery(org, m, email, KindMemberInactivated, map[string]any{"Reason": reason}))
}

func (d *Dispatcher) MemberActivated(ctx context.Context, org *model.Organization, m *model.MemberProfile, email string) {
	d.deliver(ctx, d.memberDelivery(org, m, email, KindMemberActivated, map[string]any{"Link": d.link("/login", nil)}))
}

func (d *Dispatcher) EventRegistration(ctx context.Context, m *model.MemberProfile, email string, ev *model.Event, status string, count int) {
	d.deliver(ctx, delivery{
		orgID: ev.OrgID,
		to:    email,
		kind:  KindEventRegistration,
		data: map[string]any{
			"FirstName":  m.FirstName,
			"EventTitle": ev.Title,
			"StartsAt":   ev.StartsAt.UTC().Format("2006-01-02 15:04 MST"),
			"Count":      count,
			"Status":     status,
		},
		relatedType: "event",
		relatedID:   ev.EventID,
	})
}

func (d *Dispatcher) memberDelivery(org *model.Organization, m *model.MemberProfile, email, kind string, extra map[string]any) delivery {
	data := map[string]any{
		"OrgName":   org.Name,
		"FirstName": m.FirstName,
	}
	for k, v := range extra {
		data[k] = v
	}
	return delivery{
		orgID:       org.OrgID,
		to:          email,
		kind:        kind,
		data:        data,
		relatedType: "member",
		relatedID:   m.MemberID,
	}
}

// Nop 不发送任何通知
type Nop struct{}

func (Nop) MemberInvited(context.Context, *model.Organization, *model.MemberProfile, string, string) {}
func (Nop) RegistrationRequestReceived(context.Context, *model.Organization, *model.MemberProfile, string, string, []string) {
}
func (Nop) MemberApproved(context.Context, *model.Organization, *model.MemberProfile, string) {}
func (Nop) MemberDenied(context.Context, *model.Organization, *model.MemberProfile, string, string) {
}
func (Nop) MemberInactivated(context.Context, *model.Organization, *model.MemberProfile, string, string) {
}
func (Nop) MemberActivated(context.Context, *model.Organization, *model.MemberProfile, string) {}
func (Nop) EventRegistration(context.Context, *model.MemberProfile, string, *model.Event, string, int) {
}

var (
	_ Notifier = (*Dispatcher)(nil)
	_ Notifier = Nop{}
)

