package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	couponModel "localdeals-backend/internal/domains/coupon/model"
	"localdeals-backend/internal/domains/redemption/repository"
	subscriberModel "localdeals-backend/internal/domains/subscriber/model"
)

// -------------------------------------------------------------------
// directory mocks
// -------------------------------------------------------------------

type mockCouponRepo struct {
	mock.Mock
}

func (m *mockCouponRepo) FindByID(ctx context.Context, id uuid.UUID) (*couponModel.Coupon, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*couponModel.Coupon)
	return c, args.Error(1)
}

type mockSubscriberRepo struct {
	mock.Mock
}

func (m *mockSubscriberRepo) FindByID(ctx context.Context, id uuid.UUID) (*subscriberModel.Subscriber, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*subscriberModel.Subscriber)
	return s, args.Error(1)
}

// -------------------------------------------------------------------
// clock + expiry scheduler fakes
// -------------------------------------------------------------------

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type scheduledExpiry struct {
	id uuid.UUID
	at time.Time
}

type recordingScheduler struct {
	mu    sync.Mutex
	calls []scheduledExpiry
	err   error
}

func (s *recordingScheduler) ScheduleExpiry(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scheduledExpiry{id: id, at: at})
	return s.err
}

// zeroReader luôn trả về 0, mọi code pair sinh ra đều giống nhau
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// -------------------------------------------------------------------
// fixture
// -------------------------------------------------------------------

var testStart = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc         ServiceInterface
	repo        *repository.MemoryRepository
	coupons     *mockCouponRepo
	subscribers *mockSubscriberRepo
	clock       *fakeClock
	scheduler   *recordingScheduler

	businessID uuid.UUID
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	codes *CodeGenerator
	loc   *time.Location
}

func withCodes(g *CodeGenerator) fixtureOption {
	return func(c *fixtureConfig) { c.codes = g }
}

func withLocation(loc *time.Location) fixtureOption {
	return func(c *fixtureConfig) { c.loc = loc }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	var cfg fixtureConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &fixture{
		repo:        repository.NewMemoryRepository(),
		coupons:     &mockCouponRepo{},
		subscribers: &mockSubscriberRepo{},
		clock:       newFakeClock(testStart),
		scheduler:   &recordingScheduler{},
		businessID:  uuid.New(),
	}
	f.svc = NewRedemptionService(f.repo, f.coupons, f.subscribers, cfg.codes, f.scheduler, Config{
		CodeTTL:       60 * time.Second,
		ConfirmWindow: 10 * time.Second,
		Location:      cfg.loc,
		Now:           f.clock.Now,
	})
	return f
}

// addCoupon đăng ký một coupon active, hiệu lực cả năm 2026
func (f *fixture) addCoupon(kind couponModel.UsageLimit, mutate ...func(*couponModel.Coupon)) *couponModel.Coupon {
	savings := decimal.RequireFromString("4.50")
	c := &couponModel.Coupon{
		ID:           uuid.New(),
		BusinessID:   f.businessID,
		Title:        "Free coffee",
		DiscountText: "1 free drip coffee",
		StartDate:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
		Active:       true,
		UsageLimit:   kind,
		SavingsValue: &savings,
	}
	for _, m := range mutate {
		m(c)
	}
	f.coupons.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	return c
}

func (f *fixture) addSubscriber(status subscriberModel.SubscriptionStatus) uuid.UUID {
	s := &subscriberModel.Subscriber{ID: uuid.New(), SubscriptionStatus: status, UpdatedAt: testStart}
	f.subscribers.On("FindByID", mock.Anything, s.ID).Return(s, nil)
	return s.ID
}
