package handler

import (
	"log/slog"
	"net/http"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
	"github.com/srgjo27/studio_ledger/internal/core/services"
)

type BookingHandler struct {
	bookings *services.BookingService
	payments *services.PaymentService
	log      *slog.Logger
}

func NewBookingHandler(bookings *services.BookingService, payments *services.PaymentService, log *slog.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, payments: payments, log: log}
}

// CreateBooking books a seat for a member or a guest.
// POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	var req CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.log, w, r, err)
		return
	}
	payer, err := req.payer(actor)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	b, err := h.bookings.CreateBooking(r.Context(), actor, services.CreateBookingRequest{
		SessionID:         req.SessionID,
		Payer:             payer,
		Kind:              domain.BookingKind(req.Kind),
		PackageInstanceID: req.PackageInstanceID,
	})
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

// GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	b, err := h.bookings.GetBooking(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// POST /api/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	b, err := h.bookings.CancelBooking(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// POST /api/bookings/{id}/evidence
func (h *BookingHandler) SubmitEvidence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	var req EvidenceRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.log, w, r, err)
		return
	}

	b, err := h.payments.SubmitPaymentEvidence(r.Context(), actorFrom(r.Context()), id, req.EvidenceRef)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// POST /api/bookings/{id}/verify
func (h *BookingHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	var req VerifyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.log, w, r, err)
		return
	}

	b, err := h.payments.VerifyPayment(r.Context(), actorFrom(r.Context()), id, req.Amount, req.Method)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// POST /api/bookings/{id}/reject
func (h *BookingHandler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	b, err := h.payments.RejectPayment(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// POST /api/bookings/{id}/attendance
func (h *BookingHandler) SetAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	var req AttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.log, w, r, err)
		return
	}

	b, err := h.bookings.SetAttendance(r.Context(), actorFrom(r.Context()), id, req.Attended)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// GET /api/bookings/{id}/balance
func (h *BookingHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	amount, err := h.bookings.GetOutstandingBalance(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{BookingID: id, Outstanding: amount})
}

// GET /api/bookings/{id}/payments
func (h *BookingHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	records, err := h.payments.ListBookingPayments(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponses(records))
}

// GET /api/sessions/{id}/availability
func (h *BookingHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	a, err := h.bookings.Availability(r.Context(), id)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
