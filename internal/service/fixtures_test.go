package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/shyamsasidharan1/eventbuddy/config"
	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
	"github.com/shyamsasidharan1/eventbuddy/pkg/jwt"
)

// ── 测试夹具 ──

const testPassword = "password123"

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-for-unit-tests",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
			InviteTokenTTL:  72 * time.Hour,
			BcryptCost:      bcrypt.MinCost,
		},
		Feature: config.FeatureConfig{
			PublicRegistration: true,
			WaitlistPromotion:  true,
		},
	}
}

// recordedCall 一次通知调用
type recordedCall struct {
	Kind   string
	Email  string
	Status string
	Count  int
}

// recordingNotifier 记录通知调用，不做实际投递
type recordingNotifier struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (n *recordingNotifier) add(c recordedCall) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c)
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.calls))
	for _, c := range n.calls {
		out = append(out, c.Kind)
	}
	return out
}

func (n *recordingNotifier) MemberInvited(_ context.Context, _ *model.Organization, _ *model.MemberProfile, email, _ string) {
	n.add(recordedCall{Kind: "invite", Email: email})
}

func (n *recordingNotifier) RegistrationRequestReceived(_ context.Context, _ *model.Organization, _ *model.MemberProfile, email, _ string, admins []string) {
	n.add(recordedCall{Kind: "request", Email: email, Count: len(admins)})
}

func (n *recordingNotifier) MemberApproved(_ context.Context, _ *model.Organization, _ *model.MemberProfile, email string) {
	n.add(recordedCall{Kind: "approved", Email: email})
}

func (n *recordingNotifier) MemberDenied(_ context.Context, _ *model.Organization, _ *model.MemberProfile, email, _ string) {
	n.add(recordedCall{Kind: "denied", Email: email})
}

func (n *recordingNotifier) MemberInactivated(_ context.Context, _ *model.Organization, _ *model.MemberProfile, email, _ string) {
	n.add(recordedCall{Kind: "inactivated", Email: email})
}

func (n *recordingNotifier) MemberActivated(_ context.Context, _ *model.Organization, _ *model.MemberProfile, email string) {
	n.add(recordedCall{Kind: "activated", Email: email})
}

func (n *recordingNotifier) EventRegistration(_ context.Context, _ *model.MemberProfile, email string, _ *model.Event, status string, count int) {
	n.add(recordedCall{Kind: "registration", Email: email, Status: status, Count: count})
}

// testEnv 一个组织及其服务集合
type testEnv struct {
	cfg      *config.Config
	repo     *repository.Repository
	store    *memStore
	svc      *Service
	notifier *recordingNotifier
	jwtMgr   *jwt.Manager
	org      *model.Organization
	admin    domain.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig()
	repo, store := newMockRepository()
	notifier := &recordingNotifier{}
	jwtMgr := jwt.NewManager(&cfg.Auth)

	org := &model.Organization{OrgID: uuid.NewString(), Name: "Helping Hands", Slug: "helping-hands", IsActive: true}
	require.NoError(t, repo.Organization.Create(context.Background(), org))

	env := &testEnv{
		cfg:      cfg,
		repo:     repo,
		store:    store,
		notifier: notifier,
		jwtMgr:   jwtMgr,
		org:      org,
		svc:      NewService(cfg, repo, jwtMgr, nil, notifier, nil, zap.NewNop()),
	}
	env.admin = env.addUser(t, "admin@example.org", domain.RoleOrgAdmin)
	return env
}

// addUser 创建一个无会员档案的启用账号
func (e *testEnv) addUser(t *testing.T, email string, role domain.Role) domain.Actor {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	h := string(hash)
	user := &model.UserAccount{
		UserID:       uuid.NewString(),
		OrgID:        e.org.OrgID,
		Email:        email,
		PasswordHash: &h,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, e.repo.User.Create(context.Background(), user))
	return domain.Actor{UserID: user.UserID, OrgID: e.org.OrgID, Role: role}
}

// addMember 创建指定状态的会员档案及账号
func (e *testEnv) addMember(t *testing.T, first, last string, status domain.MembershipStatus) (domain.Actor, *model.MemberProfile) {
	t.Helper()
	email := strings.ToLower(first + "." + last + "@example.org")
	actor := e.addUser(t, email, domain.RoleMember)
	if !status.AccountEnabled() {
		require.NoError(t, e.repo.User.SetActive(context.Background(), actor.UserID, false))
	}
	member := &model.MemberProfile{
		MemberID:           uuid.NewString(),
		OrgID:              e.org.OrgID,
		UserID:             actor.UserID,
		FirstName:          first,
		LastName:           last,
		MembershipCategory: "REGULAR",
		MembershipFee:      decimal.NewFromInt(50),
		MembershipStatus:   status,
	}
	require.NoError(t, e.repo.Member.Create(context.Background(), member))
	return actor, member
}

func (e *testEnv) addFamily(t *testing.T, owner *model.MemberProfile, first string) *model.FamilyMember {
	t.Helper()
	fm := &model.FamilyMember{
		FamilyMemberID: uuid.NewString(),
		OrgID:          e.org.OrgID,
		MemberID:       owner.MemberID,
		FirstName:      first,
		LastName:       owner.LastName,
		Relationship:   "CHILD",
		IsActive:       true,
	}
	require.NoError(t, e.repo.FamilyMember.Create(context.Background(), fm))
	return fm
}

// eventOpts 活动夹具参数
type eventOpts struct {
	capacity    int
	maxCapacity int // 0 表示不设候补上限
	waitlist    bool
	approval    bool
	startsIn    time.Duration
	inactive    bool
}

func (e *testEnv) addEvent(t *testing.T, o eventOpts) *model.Event {
	t.Helper()
	if o.startsIn == 0 {
		o.startsIn = 7 * 24 * time.Hour
	}
	ev := &model.Event{
		EventID:          uuid.NewString(),
		OrgID:            e.org.OrgID,
		Title:            "Community Picnic",
		StartsAt:         time.Now().UTC().Add(o.startsIn),
		Capacity:         o.capacity,
		WaitlistEnabled:  o.waitlist,
		RequiresApproval: o.approval,
		IsActive:         !o.inactive,
	}
	if o.maxCapacity > 0 {
		ev.MaxCapacity = &o.maxCapacity
	}
	require.NoError(t, e.repo.Event.Create(context.Background(), ev))
	return ev
}
