// Package memory keeps the ledger in process memory. It backs the tests and
// the STORE_DRIVER=memory development mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

type txKey struct{}

type memberSession struct {
	MemberID  uuid.UUID
	SessionID uuid.UUID
}

type state struct {
	sessions    map[uuid.UUID]domain.ClassSession
	definitions map[uuid.UUID]domain.PackageDefinition
	instances   map[uuid.UUID]domain.PackageInstance
	bookings    map[uuid.UUID]domain.Booking
	byMember    map[memberSession]uuid.UUID
	payments    []domain.PaymentRecord
}

func (s *state) clone() *state {
	c := &state{
		sessions:    make(map[uuid.UUID]domain.ClassSession, len(s.sessions)),
		definitions: make(map[uuid.UUID]domain.PackageDefinition, len(s.definitions)),
		instances:   make(map[uuid.UUID]domain.PackageInstance, len(s.instances)),
		bookings:    make(map[uuid.UUID]domain.Booking, len(s.bookings)),
		byMember:    make(map[memberSession]uuid.UUID, len(s.byMember)),
		payments:    append([]domain.PaymentRecord(nil), s.payments...),
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.definitions {
		c.definitions[k] = v
	}
	for k, v := range s.instances {
		c.instances[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.byMember {
		c.byMember[k] = v
	}
	return c
}

// Store serializes every transaction behind one mutex and restores a
// snapshot when the transaction fails. Stored values never share pointers
// with callers.
type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: &state{
		sessions:    make(map[uuid.UUID]domain.ClassSession),
		definitions: make(map[uuid.UUID]domain.PackageDefinition),
		instances:   make(map[uuid.UUID]domain.PackageInstance),
		bookings:    make(map[uuid.UUID]domain.Booking),
		byMember:    make(map[memberSession]uuid.UUID),
	}}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Sessions() *SessionRepository { return &SessionRepository{s: s} }
func (s *Store) Packages() *PackageRepository { return &PackageRepository{s: s} }
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{s: s} }
func (s *Store) Payments() *PaymentRepository { return &PaymentRepository{s: s} }

// =============================================================================
// SESSIONS
// =============================================================================

type SessionRepository struct{ s *Store }

func (r *SessionRepository) Create(ctx context.Context, session *domain.ClassSession) error {
	defer r.s.lock(ctx)()
	r.s.st.sessions[session.ID] = cloneSession(*session)
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (*domain.ClassSession, error) {
	defer r.s.lock(ctx)()
	sess, ok := r.s.st.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := cloneSession(sess)
	return &out, nil
}

func (r *SessionRepository) ReserveSeat(ctx context.Context, sessionID uuid.UUID) error {
	defer r.s.lock(ctx)()
	sess, ok := r.s.st.sessions[sessionID]
	switch {
	case !ok:
		return domain.ErrSessionNotFound
	case sess.IsCancelled:
		return domain.ErrSessionCancelled
	case sess.BookedCount >= sess.Capacity:
		return domain.ErrCapacityExceeded
	}
	sess.BookedCount++
	sess.UpdatedAt = time.Now()
	r.s.st.sessions[sessionID] = sess
	return nil
}

func (r *SessionRepository) ReleaseSeat(ctx context.Context, sessionID uuid.UUID) error {
	defer r.s.lock(ctx)()
	sess, ok := r.s.st.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if sess.BookedCount > 0 {
		sess.BookedCount--
		sess.UpdatedAt = time.Now()
		r.s.st.sessions[sessionID] = sess
	}
	return nil
}

// =============================================================================
// PACKAGES
// =============================================================================

type PackageRepository struct{ s *Store }

func (r *PackageRepository) CreateDefinition(ctx context.Context, def *domain.PackageDefinition) error {
	defer r.s.lock(ctx)()
	d := *def
	d.Credits = cloneInt(def.Credits)
	r.s.st.definitions[def.ID] = d
	return nil
}

func (r *PackageRepository) GetDefinition(ctx context.Context, definitionID uuid.UUID) (*domain.PackageDefinition, error) {
	defer r.s.lock(ctx)()
	d, ok := r.s.st.definitions[definitionID]
	if !ok {
		return nil, domain.ErrPackageNotFound
	}
	d.Credits = cloneInt(d.Credits)
	return &d, nil
}

func (r *PackageRepository) CreateInstance(ctx context.Context, inst *domain.PackageInstance) error {
	defer r.s.lock(ctx)()
	r.s.st.instances[inst.ID] = cloneInstance(*inst)
	return nil
}

func (r *PackageRepository) GetInstance(ctx context.Context, instanceID uuid.UUID) (*domain.PackageInstance, error) {
	defer r.s.lock(ctx)()
	inst, ok := r.s.st.instances[instanceID]
	if !ok {
		return nil, domain.ErrPackageNotFound
	}
	out := cloneInstance(inst)
	return &out, nil
}

func (r *PackageRepository) GetInstanceForUpdate(ctx context.Context, instanceID uuid.UUID) (*domain.PackageInstance, error) {
	return r.GetInstance(ctx, instanceID)
}

func (r *PackageRepository) FindForBooking(ctx context.Context, memberID uuid.UUID, now time.Time) (*domain.PackageInstance, error) {
	defer r.s.lock(ctx)()

	var active []domain.PackageInstance
	for _, inst := range r.s.st.instances {
		if inst.MemberID == memberID && inst.Status == domain.PackageActive {
			active = append(active, inst)
		}
	}
	if len(active) == 0 {
		return nil, domain.ErrNoActivePackage
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].ExpireAt.Before(active[j].ExpireAt)
	})
	for _, inst := range active {
		if inst.IsUsable(now) {
			out := cloneInstance(inst)
			return &out, nil
		}
	}

	latest := active[0]
	for _, inst := range active[1:] {
		if inst.CreatedAt.After(latest.CreatedAt) {
			latest = inst
		}
	}
	out := cloneInstance(latest)
	return &out, nil
}

func (r *PackageRepository) ConsumeCredit(ctx context.Context, instanceID uuid.UUID, now time.Time) error {
	defer r.s.lock(ctx)()
	inst, ok := r.s.st.instances[instanceID]
	if !ok {
		return domain.ErrPackageNotFound
	}
	if err := inst.Unusable(now); err != nil {
		return err
	}
	if !inst.IsUnlimited() {
		left := *inst.CreditsRemaining - 1
		inst.CreditsRemaining = &left
	}
	inst.UpdatedAt = now
	r.s.st.instances[instanceID] = inst
	return nil
}

func (r *PackageRepository) RefundCredit(ctx context.Context, instanceID uuid.UUID) error {
	defer r.s.lock(ctx)()
	inst, ok := r.s.st.instances[instanceID]
	if !ok {
		return domain.ErrPackageNotFound
	}
	if inst.IsUnlimited() || inst.CreditsRemaining == nil {
		return nil
	}
	left := *inst.CreditsRemaining + 1
	inst.CreditsRemaining = &left
	inst.UpdatedAt = time.Now()
	r.s.st.instances[instanceID] = inst
	return nil
}

func (r *PackageRepository) UpdatePayment(ctx context.Context, inst *domain.PackageInstance) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.st.instances[inst.ID]
	if !ok {
		return domain.ErrPackageNotFound
	}
	stored.Payment = clonePayment(inst.Payment)
	stored.UpdatedAt = time.Now()
	r.s.st.instances[inst.ID] = stored
	return nil
}

func (r *PackageRepository) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	defer r.s.lock(ctx)()
	n := 0
	for id, inst := range r.s.st.instances {
		if inst.Status == domain.PackageActive && !now.Before(inst.ExpireAt) {
			inst.Status = domain.PackageExpired
			inst.UpdatedAt = now
			r.s.st.instances[id] = inst
			n++
		}
	}
	return n, nil
}

// =============================================================================
// BOOKINGS
// =============================================================================

type BookingRepository struct{ s *Store }

func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	defer r.s.lock(ctx)()
	if memberID, ok := booking.MemberID(); ok {
		key := memberSession{MemberID: memberID, SessionID: booking.SessionID}
		if _, exists := r.s.st.byMember[key]; exists {
			return domain.ErrAlreadyBooked
		}
		r.s.st.byMember[key] = booking.ID
	}
	r.s.st.bookings[booking.ID] = cloneBooking(*booking)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	defer r.s.lock(ctx)()
	b, ok := r.s.st.bookings[bookingID]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	out := cloneBooking(b)
	return &out, nil
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return r.GetByID(ctx, bookingID)
}

func (r *BookingRepository) GetByMemberAndSession(ctx context.Context, memberID, sessionID uuid.UUID) (*domain.Booking, error) {
	defer r.s.lock(ctx)()
	id, ok := r.s.st.byMember[memberSession{MemberID: memberID, SessionID: sessionID}]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	out := cloneBooking(r.s.st.bookings[id])
	return &out, nil
}

func (r *BookingRepository) Reactivate(ctx context.Context, booking *domain.Booking) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.st.bookings[booking.ID]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if stored.Status != domain.BookingCancelled {
		return domain.ErrConcurrencyConflict
	}
	r.s.st.bookings[booking.ID] = cloneBooking(*booking)
	return nil
}

func (r *BookingRepository) MarkCancelled(ctx context.Context, bookingID uuid.UUID, at time.Time) (*domain.Booking, error) {
	defer r.s.lock(ctx)()
	b, ok := r.s.st.bookings[bookingID]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if b.Status == domain.BookingCancelled {
		return nil, nil
	}
	prev := cloneBooking(b)

	cancelledAt := at
	b.Status = domain.BookingCancelled
	b.CancelledAt = &cancelledAt
	b.IsAttended = false
	b.SeatHeld = false
	b.CreditConsumed = false
	b.UpdatedAt = at
	r.s.st.bookings[bookingID] = b
	return &prev, nil
}

func (r *BookingRepository) UpdateState(ctx context.Context, booking *domain.Booking) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.st.bookings[booking.ID]
	if !ok {
		return domain.ErrBookingNotFound
	}
	stored.Status = booking.Status
	stored.IsAttended = booking.IsAttended
	stored.Payment = clonePayment(booking.Payment)
	stored.UpdatedAt = booking.UpdatedAt
	r.s.st.bookings[booking.ID] = stored
	return nil
}

func (r *BookingRepository) CountActiveBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	defer r.s.lock(ctx)()
	n := 0
	for _, b := range r.s.st.bookings {
		if b.SessionID == sessionID && b.Status != domain.BookingCancelled {
			n++
		}
	}
	return n, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

type PaymentRepository struct{ s *Store }

func (r *PaymentRepository) Append(ctx context.Context, record *domain.PaymentRecord) error {
	defer r.s.lock(ctx)()
	r.s.st.payments = append(r.s.st.payments, cloneRecord(*record))
	return nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.PaymentRecord, error) {
	defer r.s.lock(ctx)()
	var out []domain.PaymentRecord
	for _, rec := range r.s.st.payments {
		if rec.BookingID != nil && *rec.BookingID == bookingID {
			out = append(out, cloneRecord(rec))
		}
	}
	return out, nil
}

func (r *PaymentRepository) ListByPackage(ctx context.Context, instanceID uuid.UUID) ([]domain.PaymentRecord, error) {
	defer r.s.lock(ctx)()
	var out []domain.PaymentRecord
	for _, rec := range r.s.st.payments {
		if rec.PackageInstanceID != nil && *rec.PackageInstanceID == instanceID {
			out = append(out, cloneRecord(rec))
		}
	}
	return out, nil
}

// =============================================================================
// COPY HELPERS
// =============================================================================

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUUID(p *uuid.UUID) *uuid.UUID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSession(s domain.ClassSession) domain.ClassSession {
	if s.EarlyBirdPrice != nil {
		price := *s.EarlyBirdPrice
		s.EarlyBirdPrice = &price
	}
	s.EarlyBirdDeadline = cloneTime(s.EarlyBirdDeadline)
	return s
}

func clonePayment(p domain.Payment) domain.Payment {
	p.PaidAt = cloneTime(p.PaidAt)
	return p
}

func cloneInstance(i domain.PackageInstance) domain.PackageInstance {
	i.CreditsRemaining = cloneInt(i.CreditsRemaining)
	i.Payment = clonePayment(i.Payment)
	return i
}

func cloneBooking(b domain.Booking) domain.Booking {
	b.PackageInstanceID = cloneUUID(b.PackageInstanceID)
	b.CancelledAt = cloneTime(b.CancelledAt)
	b.Payment = clonePayment(b.Payment)
	return b
}

func cloneRecord(r domain.PaymentRecord) domain.PaymentRecord {
	r.BookingID = cloneUUID(r.BookingID)
	r.PackageInstanceID = cloneUUID(r.PackageInstanceID)
	return r
}
