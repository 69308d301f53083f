package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/studio_ledger/internal/adapter/repository/memory"
	"github.com/srgjo27/studio_ledger/internal/core/domain"
	"github.com/srgjo27/studio_ledger/internal/core/ports"
	"github.com/srgjo27/studio_ledger/internal/core/services"
	"github.com/srgjo27/studio_ledger/internal/platform/logger"
)

var (
	t0    = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	admin = domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
	staff = domain.Actor{ID: uuid.New(), Role: domain.RoleStaff}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}

type fixture struct {
	store    *memory.Store
	repos    services.Repositories
	clock    *fakeClock
	notify   *services.Dispatcher
	bookings *services.BookingService
	payments *services.PaymentService
	admin    *services.AdminService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	notifier ports.Notifier
	cache    ports.AvailabilityCache
}

func withNotifier(n ports.Notifier) fixtureOption {
	return func(c *fixtureConfig) { c.notifier = n }
}

func withCache(c ports.AvailabilityCache) fixtureOption {
	return func(cfg *fixtureConfig) { cfg.cache = c }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	var cfg fixtureConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	store := memory.New()
	repos := services.Repositories{
		Tx:       store,
		Sessions: store.Sessions(),
		Packages: store.Packages(),
		Bookings: store.Bookings(),
		Payments: store.Payments(),
	}
	clock := &fakeClock{now: t0}
	log := logger.Discard()

	dispatcher := services.NewDispatcher(cfg.notifier, log)
	bookings := services.NewBookingService(repos, cfg.cache, dispatcher, log, clock.Now)
	payments := services.NewPaymentService(repos, dispatcher, log, clock.Now)

	return &fixture{
		store:    store,
		repos:    repos,
		clock:    clock,
		notify:   dispatcher,
		bookings: bookings,
		payments: payments,
		admin:    services.NewAdminService(repos, bookings, payments, log, clock.Now),
	}
}

func member() domain.Actor {
	return domain.Actor{ID: uuid.New(), Role: domain.RoleMember}
}

func price(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// session creates a class starting in one day at a base price of 1000.
func (f *fixture) session(t *testing.T, capacity int) *domain.ClassSession {
	t.Helper()
	s, err := f.admin.CreateSession(context.Background(), admin, &domain.ClassSession{
		Title:     "Reformer Pilates",
		Capacity:  capacity,
		StartsAt:  f.clock.Now().Add(24 * time.Hour),
		EndsAt:    f.clock.Now().Add(25 * time.Hour),
		BasePrice: price(1000),
	})
	require.NoError(t, err)
	return s
}

// earlyBirdSession prices drop-ins at 800 up to deadline, 1000 after.
func (f *fixture) earlyBirdSession(t *testing.T, capacity int, deadline time.Time) *domain.ClassSession {
	t.Helper()
	early := price(800)
	s, err := f.admin.CreateSession(context.Background(), admin, &domain.ClassSession{
		Title:             "Morning Flow",
		Capacity:          capacity,
		StartsAt:          deadline.Add(48 * time.Hour),
		EndsAt:            deadline.Add(49 * time.Hour),
		BasePrice:         price(1000),
		EarlyBirdPrice:    &early,
		EarlyBirdDeadline: &deadline,
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) creditPackage(t *testing.T, memberID uuid.UUID, credits, days int) *domain.PackageInstance {
	t.Helper()
	ctx := context.Background()
	def, err := f.admin.CreatePackageDefinition(ctx, admin, &domain.PackageDefinition{
		Name:         "Class pack",
		Type:         domain.PackageCredit,
		Credits:      &credits,
		DurationDays: days,
		Price:        price(5000),
	})
	require.NoError(t, err)

	inst, err := f.admin.ActivatePackage(ctx, admin, memberID, def.ID)
	require.NoError(t, err)
	return inst
}

func (f *fixture) unlimitedPackage(t *testing.T, memberID uuid.UUID, days int) *domain.PackageInstance {
	t.Helper()
	ctx := context.Background()
	def, err := f.admin.CreatePackageDefinition(ctx, admin, &domain.PackageDefinition{
		Name:         "Unlimited month",
		Type:         domain.PackageUnlimited,
		DurationDays: days,
		Price:        price(12000),
	})
	require.NoError(t, err)

	inst, err := f.admin.ActivatePackage(ctx, admin, memberID, def.ID)
	require.NoError(t, err)
	return inst
}

func (f *fixture) book(actor domain.Actor, sessionID uuid.UUID, kind domain.BookingKind) (*domain.Booking, error) {
	return f.bookings.CreateBooking(context.Background(), actor, services.CreateBookingRequest{
		SessionID: sessionID,
		Payer:     domain.MemberPayer{MemberID: actor.ID},
		Kind:      kind,
	})
}

func (f *fixture) credits(t *testing.T, instanceID uuid.UUID) int {
	t.Helper()
	inst, err := f.repos.Packages.GetInstance(context.Background(), instanceID)
	require.NoError(t, err)
	require.NotNil(t, inst.CreditsRemaining)
	return *inst.CreditsRemaining
}

func (f *fixture) bookedCount(t *testing.T, sessionID uuid.UUID) int {
	t.Helper()
	s, err := f.repos.Sessions.GetByID(context.Background(), sessionID)
	require.NoError(t, err)
	return s.BookedCount
}

// assertBookedCount checks booked_count against the live bookings.
func (f *fixture) assertBookedCount(t *testing.T, sessionID uuid.UUID) {
	t.Helper()
	report, err := f.admin.CheckCapacity(context.Background(), admin, sessionID)
	require.NoError(t, err)
	require.True(t, report.Consistent, "booked_count %d, active bookings %d", report.BookedCount, report.ActiveBookings)
}
