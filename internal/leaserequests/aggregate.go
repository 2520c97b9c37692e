package leaserequests

import (
	"github.com/angelmondragon/leasedesk-backend/internal/attachments"
	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
)

const (
	missingMessageNotSubmitted = "Not submitted"
	missingMessageIncomplete   = "Documents are incomplete"
)

// CategoryStatus computes a category's status from its records. Any rejected record
// rejects the whole category regardless of order.
func CategoryStatus(records []attachments.Record) enums.CategoryStatus {
	if len(records) == 0 {
		return enums.CategoryStatusNotSubmitted
	}
	approved := 0
	for _, record := range records {
		switch record.Status {
		case enums.AttachmentStatusRejected:
			return enums.CategoryStatusRejected
		case enums.AttachmentStatusApproved:
			approved++
		}
	}
	if approved == len(records) {
		return enums.CategoryStatusApproved
	}
	return enums.CategoryStatusPending
}

// Ready reports whether the request may move to contract: at least one category and
// every category approved.
func Ready(mapping attachments.Mapping) bool {
	if len(mapping) == 0 {
		return false
	}
	for _, records := range mapping {
		if CategoryStatus(records) != enums.CategoryStatusApproved {
			return false
		}
	}
	return true
}

// Blocking lists the categories that keep the request from being ready, in key order.
func Blocking(mapping attachments.Mapping) []string {
	var out []string
	for _, category := range mapping.Categories() {
		if CategoryStatus(mapping[category]) != enums.CategoryStatusApproved {
			out = append(out, category)
		}
	}
	return out
}

// MissingReasonFor explains why a category has nothing reviewable. Records without any
// resolved URL keep their own reason even though they render like missing documents.
func MissingReasonFor(status enums.LeaseRequestStatus, records []attachments.Record) enums.MissingReason {
	if len(records) == 0 {
		if status == enums.LeaseRequestStatusIncomplete {
			return enums.MissingReasonIncomplete
		}
		return enums.MissingReasonNotSubmitted
	}
	for _, record := range records {
		if record.HasURLs() {
			return enums.MissingReasonNone
		}
	}
	return enums.MissingReasonUnresolved
}

// MissingMessage is the operator-facing wording for a missing reason.
func MissingMessage(status enums.LeaseRequestStatus, reason enums.MissingReason) string {
	if reason == enums.MissingReasonNone {
		return ""
	}
	if status == enums.LeaseRequestStatusIncomplete {
		return missingMessageIncomplete
	}
	return missingMessageNotSubmitted
}
