package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/leasedesk-backend/api/responses"
	"github.com/angelmondragon/leasedesk-backend/api/validators"
	"github.com/angelmondragon/leasedesk-backend/internal/leaserequests"
	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/leasedesk-backend/pkg/errors"
	"github.com/angelmondragon/leasedesk-backend/pkg/logger"
)

const maxNoteLength = 1000

type attachmentDecisionItem struct {
	Category string `json:"category" validate:"required,max=64"`
	Status   string `json:"status" validate:"required,oneof=approved rejected"`
	Note     string `json:"note"`
}

type attachmentDecisionRequest struct {
	Attachments []attachmentDecisionItem `json:"attachments" validate:"required,min=1,dive"`
}

func (r attachmentDecisionRequest) toDecisions() []leaserequests.Decision {
	out := make([]leaserequests.Decision, 0, len(r.Attachments))
	for _, item := range r.Attachments {
		out = append(out, leaserequests.Decision{
			Category: validators.SanitizeString(item.Category, 0),
			Status:   enums.AttachmentStatus(item.Status),
			Note:     validators.SanitizeString(item.Note, maxNoteLength),
		})
	}
	return out
}

type statusChangeRequest struct {
	Status string `json:"status" validate:"required"`
}

// LeaseRequestDetail returns the review or approved view of a lease request.
func LeaseRequestDetail(svc leaserequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lease request service unavailable"))
			return
		}

		id, err := validators.ParseID(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		phase, err := enums.ParsePhase(r.URL.Query().Get("phase"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phase"))
			return
		}

		view, err := svc.Get(r.Context(), id, phase)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// LeaseRequestAttachmentDecision records approve/reject decisions for one or more categories.
func LeaseRequestAttachmentDecision(svc leaserequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lease request service unavailable"))
			return
		}

		id, err := validators.ParseID(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body attachmentDecisionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.DecideAttachments(r.Context(), id, body.toDecisions())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// LeaseRequestStatusChange advances a lease request to the requested status.
func LeaseRequestStatusChange(svc leaserequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lease request service unavailable"))
			return
		}

		id, err := validators.ParseID(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body statusChangeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Advance(r.Context(), id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
