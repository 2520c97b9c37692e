package recordstub

import (
	"time"

	"github.com/angelmondragon/leasedesk-backend/pkg/db/models"
)

// statusCatalog is what the stub advertises next to rate listings. It deliberately overrides
// only part of the admin backend's fallback table.
var statusCatalog = map[string]map[string]string{
	"pending": {
		"label":      "Pending approval",
		"style":      "warning",
		"next_style": "success",
	},
	"draft": {
		"label": "Draft proposal",
	},
}

func requestFields(request *models.TenantRequest) map[string]any {
	return map[string]any{
		"id":          request.ID,
		"status":      request.Status,
		"property_id": request.PropertyID,
		"tenant": map[string]any{
			"name":  request.TenantName,
			"email": request.Email,
			"phone": request.Phone,
		},
		"created_at": request.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at": request.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// reviewPayload renders a request the way the review endpoint does: wrapped in "data" with
// a paginated attachment list keyed by "name".
func reviewPayload(request *models.TenantRequest) map[string]any {
	docs := make([]map[string]any, 0, len(request.Attachments))
	for _, a := range request.Attachments {
		docs = append(docs, map[string]any{
			"id":     a.ID,
			"name":   a.Category,
			"url":    a.URL,
			"status": a.Status,
			"note":   a.Note,
		})
	}
	fields := requestFields(request)
	fields["attachments"] = map[string]any{"data": docs}
	return map[string]any{"data": fields}
}

// approvedPayload renders the post-approval variant: top-level fields and the legacy
// misspelled "attachements" key holding a category map.
func approvedPayload(request *models.TenantRequest) map[string]any {
	byCategory := map[string][]map[string]any{}
	for _, a := range request.Attachments {
		byCategory[a.Category] = append(byCategory[a.Category], map[string]any{
			"url":    a.URL,
			"status": a.Status,
			"note":   a.Note,
		})
	}
	fields := requestFields(request)
	fields["attachements"] = byCategory
	return fields
}

func ratePayload(rate *models.AnnualRate) map[string]any {
	out := map[string]any{
		"id":          rate.ID,
		"property_id": rate.PropertyID,
		"year":        rate.Year,
		"rate":        rate.Rate.StringFixed(2),
		"fee":         rate.Fee.StringFixed(2),
		"status":      rate.Status,
		"approved_by": nil,
	}
	if rate.ApprovedByID != nil {
		out["approved_by"] = map[string]any{"id": *rate.ApprovedByID, "name": rate.ApprovedByName}
	}
	if rate.ApprovedAt != nil {
		out["approved_at"] = rate.ApprovedAt.UTC().Format(time.RFC3339)
	}
	return out
}
