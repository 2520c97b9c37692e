package leaserequests

import (
	"github.com/angelmondragon/leasedesk-backend/internal/attachments"
	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
)

type View struct {
	ID               int64          `json:"id"`
	Phase            enums.Phase    `json:"phase"`
	Status           string         `json:"status"`
	StatusLabel      string         `json:"status_label"`
	Terminal         bool           `json:"terminal"`
	Categories       []CategoryView `json:"categories"`
	ReadyForContract bool           `json:"ready_for_contract"`
	Actions          Actions        `json:"actions"`
	Metadata         map[string]any `json:"metadata"`
}

type CategoryView struct {
	Key            string               `json:"key"`
	Label          string               `json:"label"`
	Status         enums.CategoryStatus `json:"status"`
	Records        []attachments.Record `json:"records"`
	URLCount       int                  `json:"url_count"`
	MissingReason  enums.MissingReason  `json:"missing_reason,omitempty"`
	MissingMessage string               `json:"missing_message,omitempty"`
	Busy           bool                 `json:"busy"`
}

type Actions struct {
	CanDecideAttachments bool     `json:"can_decide_attachments"`
	CanAdvanceToContract bool     `json:"can_advance_to_contract"`
	NextStatuses         []string `json:"next_statuses"`
}

// BuildView derives everything the console renders for a request. busy lists the
// categories with a decision in flight.
func BuildView(req *LeaseRequest, phase enums.Phase, busy []string) *View {
	busySet := make(map[string]struct{}, len(busy))
	for _, category := range busy {
		busySet[category] = struct{}{}
	}

	categories := make([]CategoryView, 0, len(req.Attachments))
	for _, key := range req.Attachments.Categories() {
		records := req.Attachments[key]
		reason := MissingReasonFor(req.Status, records)
		_, isBusy := busySet[key]
		categories = append(categories, CategoryView{
			Key:            key,
			Label:          attachments.Label(key),
			Status:         CategoryStatus(records),
			Records:        records,
			URLCount:       req.Attachments.URLCount(key),
			MissingReason:  reason,
			MissingMessage: MissingMessage(req.Status, reason),
			Busy:           isBusy,
		})
	}

	ready := Ready(req.Attachments)
	next := NextStatuses(req.Status, ready)
	nextKeys := make([]string, 0, len(next))
	canAdvance := false
	for _, s := range next {
		nextKeys = append(nextKeys, string(s))
		if s == enums.LeaseRequestStatusInContractProcess {
			canAdvance = true
		}
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &View{
		ID:               req.ID,
		Phase:            phase,
		Status:           string(req.Status),
		StatusLabel:      StatusLabel(req.Status),
		Terminal:         req.Status.IsTerminal(),
		Categories:       categories,
		ReadyForContract: ready,
		Actions: Actions{
			CanDecideAttachments: AllowsAttachmentDecisions(req.Status),
			CanAdvanceToContract: canAdvance,
			NextStatuses:         nextKeys,
		},
		Metadata: metadata,
	}
}
