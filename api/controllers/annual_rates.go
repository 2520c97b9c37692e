package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/leasedesk-backend/api/responses"
	"github.com/angelmondragon/leasedesk-backend/api/validators"
	"github.com/angelmondragon/leasedesk-backend/internal/annualrates"
	pkgerrors "github.com/angelmondragon/leasedesk-backend/pkg/errors"
	"github.com/angelmondragon/leasedesk-backend/pkg/logger"
	"github.com/angelmondragon/leasedesk-backend/pkg/pagination"
)

// AnnualRatesList lists rates with their resolved status presentation.
func AnnualRatesList(svc annualrates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "annual rate service unavailable"))
			return
		}

		propertyID, err := validators.ParseQueryInt64(r, "property_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		year, err := validators.ParseQueryInt(r, "year", 0, 0, 9999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 0, 0, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		perPage, err := validators.ParseQueryInt(r, "per_page", 0, 0, pagination.MaxPerPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.List(r.Context(), annualrates.Query{
			PropertyID: propertyID,
			Year:       year,
			Page:       page,
			PerPage:    perPage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AnnualRateApprove approves one rate of a property and returns the re-read rate.
func AnnualRateApprove(svc annualrates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "annual rate service unavailable"))
			return
		}

		propertyID, err := validators.ParseID(chi.URLParam(r, "propertyId"), "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rateID, err := validators.ParseID(chi.URLParam(r, "rateId"), "rateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Approve(r.Context(), propertyID, rateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
