package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/studio_ledger/internal/adapter/repository/memory"
	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

func newSession(t *testing.T, store *memory.Store, capacity int) *domain.ClassSession {
	t.Helper()
	s := &domain.ClassSession{
		ID:        uuid.New(),
		Capacity:  capacity,
		StartsAt:  time.Now().Add(time.Hour),
		EndsAt:    time.Now().Add(2 * time.Hour),
		BasePrice: decimal.NewFromInt(1000),
	}
	require.NoError(t, store.Sessions().Create(context.Background(), s))
	return s
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store := memory.New()
	s := newSession(t, store, 2)
	boom := errors.New("boom")

	err := store.WithinTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, store.Sessions().ReserveSeat(ctx, s.ID))
		require.NoError(t, store.Bookings().Create(ctx, &domain.Booking{
			ID:        uuid.New(),
			SessionID: s.ID,
			Payer:     domain.MemberPayer{MemberID: uuid.New()},
			Status:    domain.BookingBooked,
		}))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	got, err := store.Sessions().GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.BookedCount)

	n, err := store.Bookings().CountActiveBySession(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWithinTx_NestedJoinsOuter(t *testing.T) {
	store := memory.New()
	s := newSession(t, store, 2)

	err := store.WithinTx(context.Background(), func(ctx context.Context) error {
		return store.WithinTx(ctx, func(ctx context.Context) error {
			return store.Sessions().ReserveSeat(ctx, s.ID)
		})
	})
	require.NoError(t, err)

	got, err := store.Sessions().GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.BookedCount)
}

func TestSessionRepository_SeatBounds(t *testing.T) {
	store := memory.New()
	s := newSession(t, store, 1)
	repo := store.Sessions()
	ctx := context.Background()

	require.NoError(t, repo.ReserveSeat(ctx, s.ID))
	assert.ErrorIs(t, repo.ReserveSeat(ctx, s.ID), domain.ErrCapacityExceeded)

	require.NoError(t, repo.ReleaseSeat(ctx, s.ID))
	require.NoError(t, repo.ReleaseSeat(ctx, s.ID))
	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.BookedCount, "booked count never goes below zero")

	assert.ErrorIs(t, repo.ReserveSeat(ctx, uuid.New()), domain.ErrSessionNotFound)
}

func TestPackageRepository_ReturnsCopies(t *testing.T) {
	store := memory.New()
	repo := store.Packages()
	ctx := context.Background()
	credits := 3
	inst := &domain.PackageInstance{
		ID:               uuid.New(),
		MemberID:         uuid.New(),
		Type:             domain.PackageCredit,
		CreditsRemaining: &credits,
		Status:           domain.PackageActive,
		ExpireAt:         time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.CreateInstance(ctx, inst))

	credits = 99
	got, err := repo.GetInstance(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *got.CreditsRemaining)

	*got.CreditsRemaining = 0
	again, err := repo.GetInstance(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *again.CreditsRemaining)
}

func TestPackageRepository_ConsumeAndRefund(t *testing.T) {
	store := memory.New()
	repo := store.Packages()
	ctx := context.Background()
	now := time.Now()
	one := 1
	inst := &domain.PackageInstance{
		ID:               uuid.New(),
		MemberID:         uuid.New(),
		Type:             domain.PackageCredit,
		CreditsRemaining: &one,
		Status:           domain.PackageActive,
		ExpireAt:         now.Add(time.Hour),
	}
	require.NoError(t, repo.CreateInstance(ctx, inst))

	require.NoError(t, repo.ConsumeCredit(ctx, inst.ID, now))
	assert.ErrorIs(t, repo.ConsumeCredit(ctx, inst.ID, now), domain.ErrNoCreditsRemaining)

	require.NoError(t, repo.RefundCredit(ctx, inst.ID))
	got, err := repo.GetInstance(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *got.CreditsRemaining)

	assert.ErrorIs(t, repo.ConsumeCredit(ctx, inst.ID, now.Add(2*time.Hour)), domain.ErrPackageExpired)
}

func TestPackageRepository_FindForBooking(t *testing.T) {
	store := memory.New()
	repo := store.Packages()
	ctx := context.Background()
	now := time.Now()
	memberID := uuid.New()

	_, err := repo.FindForBooking(ctx, memberID, now)
	assert.ErrorIs(t, err, domain.ErrNoActivePackage)

	zero := 0
	exhausted := &domain.PackageInstance{
		ID: uuid.New(), MemberID: memberID, Type: domain.PackageCredit, CreditsRemaining: &zero,
		Status: domain.PackageActive, ExpireAt: now.Add(24 * time.Hour), CreatedAt: now,
	}
	require.NoError(t, repo.CreateInstance(ctx, exhausted))

	got, err := repo.FindForBooking(ctx, memberID, now)
	require.NoError(t, err)
	assert.Equal(t, exhausted.ID, got.ID, "an unusable instance is still returned for diagnosis")

	unlimited := &domain.PackageInstance{
		ID: uuid.New(), MemberID: memberID, Type: domain.PackageUnlimited,
		Status: domain.PackageActive, ExpireAt: now.Add(48 * time.Hour), CreatedAt: now.Add(-time.Hour),
	}
	require.NoError(t, repo.CreateInstance(ctx, unlimited))

	got, err = repo.FindForBooking(ctx, memberID, now)
	require.NoError(t, err)
	assert.Equal(t, unlimited.ID, got.ID)
}

func TestBookingRepository_MarkCancelledOnce(t *testing.T) {
	store := memory.New()
	repo := store.Bookings()
	ctx := context.Background()
	b := &domain.Booking{
		ID:             uuid.New(),
		SessionID:      uuid.New(),
		Payer:          domain.GuestPayer{Name: "Ayu", Contact: "ayu@example.com"},
		Kind:           domain.KindDropIn,
		Status:         domain.BookingBooked,
		SeatHeld:       true,
		CreditConsumed: false,
	}
	require.NoError(t, repo.Create(ctx, b))

	prev, err := repo.MarkCancelled(ctx, b.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.True(t, prev.SeatHeld)
	assert.Equal(t, domain.BookingBooked, prev.Status)

	prev, err = repo.MarkCancelled(ctx, b.ID, time.Now())
	require.NoError(t, err)
	assert.Nil(t, prev)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.False(t, got.SeatHeld)

	_, err = repo.MarkCancelled(ctx, uuid.New(), time.Now())
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestBookingRepository_OneBookingPerMemberAndSession(t *testing.T) {
	store := memory.New()
	repo := store.Bookings()
	ctx := context.Background()
	memberID, sessionID := uuid.New(), uuid.New()

	first := &domain.Booking{ID: uuid.New(), SessionID: sessionID, Payer: domain.MemberPayer{MemberID: memberID}, Status: domain.BookingBooked}
	require.NoError(t, repo.Create(ctx, first))

	dup := &domain.Booking{ID: uuid.New(), SessionID: sessionID, Payer: domain.MemberPayer{MemberID: memberID}, Status: domain.BookingBooked}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrAlreadyBooked)

	got, err := repo.GetByMemberAndSession(ctx, memberID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	assert.ErrorIs(t, repo.Reactivate(ctx, first), domain.ErrConcurrencyConflict)
}
