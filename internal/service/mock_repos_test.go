package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
)

// ── 内存存储 ──
//
// 所有 mock repository 共享同一个 memStore，读取时返回副本以模拟数据库行为；
// 互斥锁保证并发报名测试中的数据一致

type memStore struct {
	mu            sync.Mutex
	orgs          map[string]*model.Organization
	users         map[string]*model.UserAccount
	members       map[string]*model.MemberProfile
	family        map[string]*model.FamilyMember
	events        map[string]*model.Event
	registrations map[string]*model.Registration
	audits        []model.AuditLog
	notifications []model.Notification
}

func newMemStore() *memStore {
	return &memStore{
		orgs:          make(map[string]*model.Organization),
		users:         make(map[string]*model.UserAccount),
		members:       make(map[string]*model.MemberProfile),
		family:        make(map[string]*model.FamilyMember),
		events:        make(map[string]*model.Event),
		registrations: make(map[string]*model.Registration),
	}
}

// newMockRepository 构造基于内存存储的 Repository；db 为空时 Transaction 直接执行回调
func newMockRepository() (*repository.Repository, *memStore) {
	s := newMemStore()
	return &repository.Repository{
		Organization: &mockOrgRepo{s},
		User:         &mockUserRepo{s},
		Member:       &mockMemberRepo{s},
		FamilyMember: &mockFamilyRepo{s},
		Event:        &mockEventRepo{s},
		Registration: &mockRegistrationRepo{s},
		AuditLog:     &mockAuditLogRepo{s},
		Notification: &mockNotificationRepo{s},
		Report:       &mockReportRepo{s},
	}, s
}

func (s *memStore) auditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.audits))
	for _, a := range s.audits {
		out = append(out, a.Action)
	}
	return out
}

func (s *memStore) registrationsOf(eventID string) []model.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Registration
	for _, r := range s.registrations {
		if r.EventID == eventID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out
}

// 以下 with* 辅助函数须在持锁状态下调用

func (s *memStore) withUser(m model.MemberProfile) model.MemberProfile {
	if u, ok := s.users[m.UserID]; ok {
		cp := *u
		m.User = &cp
	}
	return m
}

func (s *memStore) withEvent(r model.Registration) model.Registration {
	if e, ok := s.events[r.EventID]; ok {
		cp := *e
		r.Event = &cp
	}
	return r
}

// ── Mock OrganizationRepository ──

type mockOrgRepo struct{ s *memStore }

func (m *mockOrgRepo) Create(_ context.Context, org *model.Organization) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if org.OrgID == "" {
		org.OrgID = uuid.NewString()
	}
	for _, o := range m.s.orgs {
		if o.Slug == org.Slug {
			return repository.ErrDuplicateKey
		}
	}
	cp := *org
	m.s.orgs[org.OrgID] = &cp
	return nil
}

func (m *mockOrgRepo) GetByID(_ context.Context, id string) (*model.Organization, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if o, ok := m.s.orgs[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOrgRepo) GetBySlug(_ context.Context, slug string) (*model.Organization, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, o := range m.s.orgs {
		if o.Slug == slug {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOrgRepo) Update(_ context.Context, org *model.Organization) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *org
	m.s.orgs[org.OrgID] = &cp
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct{ s *memStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.UserAccount) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	for _, u := range m.s.users {
		if u.OrgID == user.OrgID && u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
	cp := *user
	cp.Organization = nil
	m.s.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) withOrg(u model.UserAccount) *model.UserAccount {
	if o, ok := m.s.orgs[u.OrgID]; ok {
		cp := *o
		u.Organization = &cp
	}
	return &u
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.UserAccount, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if u, ok := m.s.users[id]; ok {
		return m.withOrg(*u), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByOrgAndEmail(_ context.Context, orgID, email string) (*model.UserAccount, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.OrgID == orgID && u.Email == email {
			return m.withOrg(*u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByEmail(_ context.Context, email string) ([]model.UserAccount, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.UserAccount
	for _, u := range m.s.users {
		if u.Email == email {
			out = append(out, *m.withOrg(*u))
		}
	}
	return out, nil
}

func (m *mockUserRepo) ListActiveByRole(_ context.Context, orgID string, role domain.Role) ([]model.UserAccount, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.UserAccount
	for _, u := range m.s.users {
		if u.OrgID == orgID && u.Role == role && u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.UserAccount) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *user
	cp.Organization = nil
	m.s.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) SetActive(_ context.Context, userID string, active bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsActive = active
	return nil
}

func (m *mockUserRepo) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if u, ok := m.s.users[userID]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

// ── Mock MemberRepository ──

type mockMemberRepo struct{ s *memStore }

func (m *mockMemberRepo) Create(_ context.Context, member *model.MemberProfile) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if member.MemberID == "" {
		member.MemberID = uuid.NewString()
	}
	if member.Version == 0 {
		member.Version = 1
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}
	cp := *member
	cp.User = nil
	m.s.members[member.MemberID] = &cp
	return nil
}

func (m *mockMemberRepo) GetByID(_ context.Context, orgID, id string) (*model.MemberProfile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if mp, ok := m.s.members[id]; ok && mp.OrgID == orgID {
		out := m.s.withUser(*mp)
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMemberRepo) GetByUserID(_ context.Context, userID string) (*model.MemberProfile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, mp := range m.s.members {
		if mp.UserID == userID {
			out := m.s.withUser(*mp)
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMemberRepo) GetByOrgAndEmail(_ context.Context, orgID, email string) (*model.MemberProfile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, mp := range m.s.members {
		u, ok := m.s.users[mp.UserID]
		if mp.OrgID == orgID && ok && u.Email == email {
			out := m.s.withUser(*mp)
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMemberRepo) ListByIDs(_ context.Context, orgID string, ids []string) ([]model.MemberProfile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.MemberProfile
	for _, id := range ids {
		if mp, ok := m.s.members[id]; ok && mp.OrgID == orgID {
			out = append(out, m.s.withUser(*mp))
		}
	}
	return out, nil
}

func (m *mockMemberRepo) List(_ context.Context, orgID string, filter repository.MemberFilter, offset, limit int) ([]model.MemberProfile, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []model.MemberProfile
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, mp := range m.s.members {
		if mp.OrgID != orgID {
			continue
		}
		if filter.Status != "" && mp.MembershipStatus != filter.Status {
			continue
		}
		if filter.Category != "" && mp.MembershipCategory != filter.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(mp.FullName()), search) {
			continue
		}
		all = append(all, m.s.withUser(*mp))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LastName < all[j].LastName })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.MemberProfile{}, total, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], total, nil
}

func (m *mockMemberRepo) Update(_ context.Context, member *model.MemberProfile) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cur, ok := m.s.members[member.MemberID]
	if !ok || cur.Version != member.Version {
		return apperrors.ErrOptimisticLock
	}
	member.Version++
	cp := *member
	cp.User = nil
	m.s.members[member.MemberID] = &cp
	return nil
}

func (m *mockMemberRepo) CountByStatus(_ context.Context, orgID string) (map[domain.MembershipStatus]int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make(map[domain.MembershipStatus]int64)
	for _, mp := range m.s.members {
		if mp.OrgID == orgID {
			out[mp.MembershipStatus]++
		}
	}
	return out, nil
}

func (m *mockMemberRepo) CountByCategory(_ context.Context, orgID string) (map[string]int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make(map[string]int64)
	for _, mp := range m.s.members {
		if mp.OrgID == orgID && mp.MembershipStatus == domain.MembershipActive {
			out[mp.MembershipCategory]++
		}
	}
	return out, nil
}

func (m *mockMemberRepo) CountCreatedSince(_ context.Context, orgID string, since time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, mp := range m.s.members {
		if mp.OrgID == orgID && !mp.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ── Mock FamilyMemberRepository ──

type mockFamilyRepo struct{ s *memStore }

func (m *mockFamilyRepo) Create(_ context.Context, fm *model.FamilyMember) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if fm.FamilyMemberID == "" {
		fm.FamilyMemberID = uuid.NewString()
	}
	cp := *fm
	m.s.family[fm.FamilyMemberID] = &cp
	return nil
}

func (m *mockFamilyRepo) GetByID(_ context.Context, orgID, id string) (*model.FamilyMember, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if f, ok := m.s.family[id]; ok && f.OrgID == orgID {
		cp := *f
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFamilyRepo) ListByMember(_ context.Context, orgID, memberID string) ([]model.FamilyMember, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.FamilyMember
	for _, f := range m.s.family {
		if f.OrgID == orgID && f.MemberID == memberID && f.IsActive {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstName < out[j].FirstName })
	return out, nil
}

func (m *mockFamilyRepo) ListByIDs(_ context.Context, orgID string, ids []string) ([]model.FamilyMember, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.FamilyMember
	for _, id := range ids {
		if f, ok := m.s.family[id]; ok && f.OrgID == orgID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *mockFamilyRepo) Update(_ context.Context, fm *model.FamilyMember) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *fm
	m.s.family[fm.FamilyMemberID] = &cp
	return nil
}

func (m *mockFamilyRepo) CountActive(_ context.Context, orgID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, f := range m.s.family {
		if f.OrgID == orgID && f.IsActive {
			n++
		}
	}
	return n, nil
}

// ── Mock EventRepository ──

type mockEventRepo struct{ s *memStore }

func (m *mockEventRepo) Create(_ context.Context, event *model.Event) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	cp := *event
	m.s.events[event.EventID] = &cp
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, orgID, id string) (*model.Event, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if e, ok := m.s.events[id]; ok && e.OrgID == orgID {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) GetByIDForUpdate(ctx context.Context, orgID, id string) (*model.Event, error) {
	return m.GetByID(ctx, orgID, id)
}

func (m *mockEventRepo) ListByIDs(_ context.Context, orgID string, ids []string) ([]model.Event, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Event
	for _, id := range ids {
		if e, ok := m.s.events[id]; ok && e.OrgID == orgID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEventRepo) List(_ context.Context, orgID string, filter repository.EventFilter, offset, limit int) ([]model.Event, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []model.Event
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, e := range m.s.events {
		if e.OrgID != orgID {
			continue
		}
		if filter.ActiveOnly && !e.IsActive {
			continue
		}
		if filter.PublicOnly && !e.IsPublic {
			continue
		}
		if filter.UpcomingFrom != nil && !e.StartsAt.After(*filter.UpcomingFrom) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Title), search) {
			continue
		}
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartsAt.Before(all[j].StartsAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.Event{}, total, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], total, nil
}

func (m *mockEventRepo) Update(_ context.Context, event *model.Event) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *event
	m.s.events[event.EventID] = &cp
	return nil
}

func (m *mockEventRepo) CountUpcoming(_ context.Context, orgID string, now time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, e := range m.s.events {
		if e.OrgID == orgID && e.IsActive && e.StartsAt.After(now) {
			n++
		}
	}
	return n, nil
}

// ── Mock RegistrationRepository ──

type mockRegistrationRepo struct{ s *memStore }

func refKey(kind domain.RegistrantKind, id string) string {
	return domain.RegistrantRef{Kind: kind, ID: id}.String()
}

func refSet(refs []domain.RegistrantRef) map[string]bool {
	set := make(map[string]bool, len(refs))
	for _, r := range refs {
		set[r.String()] = true
	}
	return set
}

func (m *mockRegistrationRepo) BatchCreate(_ context.Context, regs []model.Registration) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for i := range regs {
		if regs[i].RegistrationID == "" {
			regs[i].RegistrationID = uuid.NewString()
		}
		cp := regs[i]
		cp.Event = nil
		m.s.registrations[cp.RegistrationID] = &cp
	}
	return nil
}

func (m *mockRegistrationRepo) GetByID(_ context.Context, orgID, id string) (*model.Registration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if r, ok := m.s.registrations[id]; ok && r.OrgID == orgID {
		out := m.s.withEvent(*r)
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) Update(_ context.Context, reg *model.Registration) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *reg
	cp.Event = nil
	m.s.registrations[reg.RegistrationID] = &cp
	return nil
}

func (m *mockRegistrationRepo) CountByStatus(_ context.Context, eventID string) (map[domain.RegistrationStatus]int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make(map[domain.RegistrationStatus]int64)
	for _, r := range m.s.registrations {
		if r.EventID == eventID {
			out[r.Status]++
		}
	}
	return out, nil
}

func (m *mockRegistrationRepo) CountCheckedIn(_ context.Context, eventID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, r := range m.s.registrations {
		if r.EventID == eventID && r.CheckedIn {
			n++
		}
	}
	return n, nil
}

func (m *mockRegistrationRepo) FindActive(_ context.Context, eventID string, refs []domain.RegistrantRef) ([]model.Registration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	set := refSet(refs)
	var out []model.Registration
	for _, r := range m.s.registrations {
		if r.EventID == eventID && r.Status != domain.RegistrationCancelled && set[refKey(r.RegistrantType, r.RegistrantID)] {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockRegistrationRepo) ListByEvent(_ context.Context, eventID string, filter repository.RegistrationFilter) ([]model.Registration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Registration
	for _, r := range m.s.registrations {
		if r.EventID != eventID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.CheckedIn != nil && r.CheckedIn != *filter.CheckedIn {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (m *mockRegistrationRepo) ListByEventAndIDs(_ context.Context, eventID string, ids []string) ([]model.Registration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Registration
	for _, id := range ids {
		if r, ok := m.s.registrations[id]; ok && r.EventID == eventID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockRegistrationRepo) ListByRegistrants(_ context.Context, orgID string, refs []domain.RegistrantRef, includeCancelled bool) ([]model.Registration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	set := refSet(refs)
	var out []model.Registration
	for _, r := range m.s.registrations {
		if r.OrgID != orgID || !set[refKey(r.RegistrantType, r.RegistrantID)] {
			continue
		}
		if !includeCancelled && r.Status == domain.RegistrationCancelled {
			continue
		}
		out = append(out, m.s.withEvent(*r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Event.StartsAt.Before(out[j].Event.StartsAt) })
	return out, nil
}

func (m *mockRegistrationRepo) ListWaitlisted(_ context.Context, eventID string, limit int) ([]model.Registration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Registration
	for _, r := range m.s.registrations {
		if r.EventID == eventID && r.Status == domain.RegistrationWaitlisted {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRegistrationRepo) CountActiveUpcoming(_ context.Context, ref domain.RegistrantRef, now time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, r := range m.s.registrations {
		if r.Registrant() != ref || r.Status == domain.RegistrationCancelled {
			continue
		}
		if e, ok := m.s.events[r.EventID]; ok && e.StartsAt.After(now) {
			n++
		}
	}
	return n, nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct{ s *memStore }

func (m *mockAuditLogRepo) Create(_ context.Context, log *model.AuditLog) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if log.AuditLogID == "" {
		log.AuditLogID = uuid.NewString()
	}
	m.s.audits = append(m.s.audits, *log)
	return nil
}

func (m *mockAuditLogRepo) List(_ context.Context, orgID string, filter repository.AuditLogFilter, offset, limit int) ([]model.AuditLog, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []model.AuditLog
	for i := len(m.s.audits) - 1; i >= 0; i-- {
		a := m.s.audits[i]
		if a.OrgID != orgID {
			continue
		}
		if filter.EntityType != "" && a.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && a.EntityID != filter.EntityID {
			continue
		}
		if filter.Action != "" && a.Action != filter.Action {
			continue
		}
		all = append(all, a)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return []model.AuditLog{}, total, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], total, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct{ s *memStore }

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if n.NotificationID == "" {
		n.NotificationID = uuid.NewString()
	}
	m.s.notifications = append(m.s.notifications, *n)
	return nil
}

func (m *mockNotificationRepo) Update(_ context.Context, n *model.Notification) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for i := range m.s.notifications {
		if m.s.notifications[i].NotificationID == n.NotificationID {
			m.s.notifications[i] = *n
		}
	}
	return nil
}

// ── Mock ReportRepository ──

type mockReportRepo struct{ s *memStore }

func inRange(t *time.Time, rng repository.ReportRange) bool {
	if t == nil {
		return rng.From == nil && rng.To == nil
	}
	if rng.From != nil && t.Before(*rng.From) {
		return false
	}
	if rng.To != nil && t.After(*rng.To) {
		return false
	}
	return true
}

func (m *mockReportRepo) ListMembers(_ context.Context, orgID string, filter repository.MemberReportFilter) ([]repository.MemberReportRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []repository.MemberReportRow
	for _, mp := range m.s.members {
		if mp.OrgID != orgID {
			continue
		}
		switch {
		case filter.Status != "":
			if mp.MembershipStatus != filter.Status {
				continue
			}
		case !filter.IncludeInactive:
			if mp.MembershipStatus != domain.MembershipActive {
				continue
			}
		}
		if filter.Category != "" && mp.MembershipCategory != filter.Category {
			continue
		}
		if !inRange(mp.MembershipStartDate, filter.Range) {
			continue
		}
		var families int64
		for _, f := range m.s.family {
			if f.MemberID == mp.MemberID && f.IsActive {
				families++
			}
		}
		out = append(out, repository.MemberReportRow{Member: m.s.withUser(*mp), FamilyCount: families})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Member.LastName < out[j].Member.LastName })
	return out, nil
}

func (m *mockReportRepo) ListRegistrations(_ context.Context, orgID string, filter repository.RegistrationReportFilter) ([]model.Registration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Registration
	for _, r := range m.s.registrations {
		if r.OrgID != orgID {
			continue
		}
		if filter.EventID != "" && r.EventID != filter.EventID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		reg := m.s.withEvent(*r)
		if reg.Event != nil && !inRange(&reg.Event.StartsAt, filter.Range) {
			continue
		}
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (m *mockReportRepo) Attendance(_ context.Context, orgID string, rng repository.ReportRange) ([]repository.AttendanceRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []repository.AttendanceRow
	for _, e := range m.s.events {
		if e.OrgID != orgID || !inRange(&e.StartsAt, rng) {
			continue
		}
		row := repository.AttendanceRow{EventID: e.EventID, Title: e.Title, StartsAt: e.StartsAt, Capacity: e.Capacity}
		for _, r := range m.s.registrations {
			if r.EventID != e.EventID {
				continue
			}
			if r.Status != domain.RegistrationCancelled {
				row.TotalRegistered++
			}
			if r.CheckedIn {
				row.TotalCheckedIn++
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	return out, nil
}
