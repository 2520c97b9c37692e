package recordstub

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/leasedesk-backend/api/responses"
	"github.com/angelmondragon/leasedesk-backend/api/validators"
	"github.com/angelmondragon/leasedesk-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/leasedesk-backend/pkg/errors"
	"github.com/angelmondragon/leasedesk-backend/pkg/logger"
	"github.com/angelmondragon/leasedesk-backend/pkg/pagination"
)

const (
	defaultApproverID   = 1
	defaultApproverName = "LeaseDesk operator"
)

type decisionRequest struct {
	Attachments []Decision `json:"attachments" validate:"required,min=1,dive"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// NewRouter exposes the stub over the same paths as the remote system of record.
func NewRouter(svc Service, pinger db.Pinger, logg *logger.Logger) http.Handler {
	h := &handler{svc: svc, logg: logg}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			if err := pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	})

	r.Get("/tenant-requests/{requestId}", h.reviewRequest)
	r.Get("/approved-tenant-requests/{requestId}", h.approvedRequest)
	r.Post("/tenant-requests/{requestId}/attachments/decision", h.decideAttachments)
	r.Patch("/tenant-requests/{requestId}/status", h.setStatus)
	r.Get("/annual-rates", h.listRates)
	r.Post("/properties/{propertyId}/annual-rates/{rateId}/approve", h.approveRate)
	return r
}

type handler struct {
	svc  Service
	logg *logger.Logger
}

func (h *handler) reviewRequest(w http.ResponseWriter, r *http.Request) {
	id, err := validators.ParseID(chi.URLParam(r, "requestId"), "requestId")
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	payload, err := h.svc.ReviewRequest(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	responses.WriteRaw(w, http.StatusOK, payload)
}

func (h *handler) approvedRequest(w http.ResponseWriter, r *http.Request) {
	id, err := validators.ParseID(chi.URLParam(r, "requestId"), "requestId")
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	payload, err := h.svc.ApprovedRequest(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	responses.WriteRaw(w, http.StatusOK, payload)
}

func (h *handler) decideAttachments(w http.ResponseWriter, r *http.Request) {
	id, err := validators.ParseID(chi.URLParam(r, "requestId"), "requestId")
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	var body decisionRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	if err := h.svc.DecideAttachments(r.Context(), id, body.Attachments); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, map[string]any{"ok": true})
}

func (h *handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := validators.ParseID(chi.URLParam(r, "requestId"), "requestId")
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	var body statusRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	if err := h.svc.SetStatus(r.Context(), id, body.Status); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, map[string]any{"ok": true, "status": body.Status})
}

func (h *handler) listRates(w http.ResponseWriter, r *http.Request) {
	propertyID, err := validators.ParseQueryInt64(r, "property_id")
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	year, err := validators.ParseQueryInt(r, "year", 0, 0, 9999)
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	perPage, err := validators.ParseQueryInt(r, "per_page", pagination.DefaultPerPage, 1, pagination.MaxPerPage)
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}

	payload, err := h.svc.ListRates(r.Context(), RateQuery{
		PropertyID: propertyID,
		Year:       int64(year),
		Page:       pagination.Params{Page: page, PerPage: perPage},
	})
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	responses.WriteRaw(w, http.StatusOK, payload)
}

func (h *handler) approveRate(w http.ResponseWriter, r *http.Request) {
	propertyID, err := validators.ParseID(chi.URLParam(r, "propertyId"), "propertyId")
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	rateID, err := validators.ParseID(chi.URLParam(r, "rateId"), "rateId")
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	if err := h.svc.ApproveRate(r.Context(), propertyID, rateID, Approver{ID: defaultApproverID, Name: defaultApproverName}); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, map[string]any{"ok": true})
}
