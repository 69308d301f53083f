package handler

import (
	"log/slog"
	"net/http"

	"github.com/srgjo27/studio_ledger/internal/core/services"
)

type PackageHandler struct {
	payments *services.PaymentService
	log      *slog.Logger
}

func NewPackageHandler(payments *services.PaymentService, log *slog.Logger) *PackageHandler {
	return &PackageHandler{payments: payments, log: log}
}

// POST /api/packages/{id}/evidence
func (h *PackageHandler) SubmitEvidence(w http.ResponseWriter, r *http.Request) {
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

	inst, err := h.payments.SubmitPackageEvidence(r.Context(), actorFrom(r.Context()), id, req.EvidenceRef)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPackageResponse(inst))
}

// GET /api/packages/{id}/payments
func (h *PackageHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(h.log, w, r, err)
		return
	}

	records, err := h.payments.ListPackagePayments(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		fail(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponses(records))
}
