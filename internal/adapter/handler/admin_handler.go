package handler

import (
	"log/slog"
	"net/http"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
	"github.com/srgjo27/studio_ledger/internal/core/services"
)

// AdminHandler serves /api/admin. Every route sits behind RequireRole for
// staff or admin; the services still check the role per operation.
type AdminHandler struct {
	admin    *services.AdminService
	payments *services.PaymentService
	log      *slog.Logger
}

func NewAdminHandler(admin *services.AdminService, payments *services.PaymentService, log *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, payments: payments, log: log}
}

// POST /api/admin/sessions
func (h *AdminHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.log, w, r, err)
		return
	}

	s, err := h.admin.CreateSession(r.Context(), actorFrom(r.Context()), &domain.ClassSession{
		Title:             req.Title,
		Capacity:          req.Capacity,
		StartsAt:          req.StartsAt,
		EndsAt:            req.EndsAt,
		BasePrice:         req.BasePrice,
		EarlyBirdPrice:    req.EarlyBirdPrice,
		EarlyBirdDeadline: req.EarlyBirdDeadline,
	})
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(s))
}

// GET /api/admin/sessions/{id}/capacity
func (h *AdminHandler) CheckCapacity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	report, err := h.admin.CheckCapacity(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// POST /api/admin/package-definitions
func (h *AdminHandler) CreatePackageDefinition(w http.ResponseWriter, r *http.Request) {
	var req CreatePackageDefinitionRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.log, w, r, err)
		return
	}

	def, err := h.admin.CreatePackageDefinition(r.Context(), actorFrom(r.Context()), &domain.PackageDefinition{
		Name:         req.Name,
		Type:         domain.PackageType(req.Type),
		Credits:      req.Credits,
		DurationDays: req.DurationDays,
		Price:        req.Price,
	})
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, PackageDefinitionResponse{
		ID:           def.ID,
		Name:         def.Name,
		Type:         string(def.Type),
		Credits:      def.Credits,
		DurationDays: def.DurationDays,
		Price:        def.Price,
	})
}

// POST /api/admin/packages
func (h *AdminHandler) ActivatePackage(w http.ResponseWriter, r *http.Request) {
	var req ActivatePackageRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.log, w, r, err)
		return
	}

	inst, err := h.admin.ActivatePackage(r.Context(), actorFrom(r.Context()), req.MemberID, req.DefinitionID)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPackageResponse(inst))
}

// CreateBooking books on behalf of a member or guest, past the self-service
// booking window.
// POST /api/admin/bookings
func (h *AdminHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	var req CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.log, w, r, err)
		return
	}
	payer, err := req.payer(domain.Anonymous())
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	b, err := h.admin.CreateBooking(r.Context(), actor, services.CreateBookingRequest{
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

// POST /api/admin/bookings/{id}/reactivate
func (h *AdminHandler) ReactivateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	b, err := h.admin.ReactivateBooking(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// POST /api/admin/bookings/{id}/cancel
func (h *AdminHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	b, err := h.admin.CancelBooking(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// POST /api/admin/bookings/{id}/no-show
func (h *AdminHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	b, err := h.admin.MarkNoShow(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// POST /api/admin/bookings/{id}/payment-status
func (h *AdminHandler) ForcePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	var req ForcePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.log, w, r, err)
		return
	}

	b, err := h.admin.ForcePaymentStatus(r.Context(), actorFrom(r.Context()), id,
		domain.PaymentStatus(req.Status), req.Amount, req.Method)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// POST /api/admin/packages/{id}/verify
func (h *AdminHandler) VerifyPackagePayment(w http.ResponseWriter, r *http.Request) {
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

	inst, err := h.payments.VerifyPackagePayment(r.Context(), actorFrom(r.Context()), id, req.Amount, req.Method)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPackageResponse(inst))
}

// POST /api/admin/packages/{id}/reject
func (h *AdminHandler) RejectPackagePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	inst, err := h.payments.RejectPackagePayment(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPackageResponse(inst))
}
