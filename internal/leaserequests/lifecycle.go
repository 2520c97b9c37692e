package leaserequests

import (
	"fmt"

	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
)

// transitions lists the statuses an operator may move a request to from each state.
// Terminal states have no entry.
var transitions = map[enums.LeaseRequestStatus][]enums.LeaseRequestStatus{
	enums.LeaseRequestStatusPending: {
		enums.LeaseRequestStatusPropertySelected,
		enums.LeaseRequestStatusRejected,
		enums.LeaseRequestStatusCancelled,
	},
	enums.LeaseRequestStatusPropertySelected: {
		enums.LeaseRequestStatusChecking,
		enums.LeaseRequestStatusRejected,
		enums.LeaseRequestStatusCancelled,
	},
	enums.LeaseRequestStatusChecking: {
		enums.LeaseRequestStatusUnderReview,
		enums.LeaseRequestStatusIncomplete,
		enums.LeaseRequestStatusInContractProcess,
		enums.LeaseRequestStatusRejected,
		enums.LeaseRequestStatusCancelled,
	},
	enums.LeaseRequestStatusUnderReview: {
		enums.LeaseRequestStatusIncomplete,
		enums.LeaseRequestStatusInContractProcess,
		enums.LeaseRequestStatusRejected,
		enums.LeaseRequestStatusCancelled,
	},
	enums.LeaseRequestStatusIncomplete: {
		enums.LeaseRequestStatusUnderReview,
		enums.LeaseRequestStatusInContractProcess,
		enums.LeaseRequestStatusRejected,
		enums.LeaseRequestStatusCancelled,
	},
	enums.LeaseRequestStatusInContractProcess: {
		enums.LeaseRequestStatusApproved,
		enums.LeaseRequestStatusRejected,
		enums.LeaseRequestStatusCancelled,
	},
}

var statusLabels = map[enums.LeaseRequestStatus]string{
	enums.LeaseRequestStatusPending:           "Pending",
	enums.LeaseRequestStatusPropertySelected:  "Property selected",
	enums.LeaseRequestStatusChecking:          "Checking documents",
	enums.LeaseRequestStatusUnderReview:       "Under review",
	enums.LeaseRequestStatusInContractProcess: "In contract process",
	enums.LeaseRequestStatusIncomplete:        "Documents incomplete",
	enums.LeaseRequestStatusApproved:          "Approved",
	enums.LeaseRequestStatusRejected:          "Rejected",
	enums.LeaseRequestStatusCancelled:         "Cancelled",
}

// StatusLabel returns the display label for a status key, or the raw key when unknown.
func StatusLabel(status enums.LeaseRequestStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

// ValidateTransition reports whether current may move to target, ignoring readiness.
func ValidateTransition(current, target enums.LeaseRequestStatus) error {
	if current.IsTerminal() {
		return fmt.Errorf("lease request is %s; no further transitions are allowed", current)
	}
	allowed, ok := transitions[current]
	if !ok {
		return fmt.Errorf("unknown current state: %s", current)
	}
	for _, s := range allowed {
		if s == target {
			return nil
		}
	}
	return fmt.Errorf("transition from %q to %q is not allowed", current, target)
}

// NextStatuses lists the transitions to offer, dropping the move to contract until ready.
func NextStatuses(current enums.LeaseRequestStatus, ready bool) []enums.LeaseRequestStatus {
	allowed := transitions[current]
	out := make([]enums.LeaseRequestStatus, 0, len(allowed))
	for _, s := range allowed {
		if s == enums.LeaseRequestStatusInContractProcess && !ready {
			continue
		}
		out = append(out, s)
	}
	return out
}

// AllowsAttachmentDecisions reports whether per-category decisions are accepted in status.
func AllowsAttachmentDecisions(status enums.LeaseRequestStatus) bool {
	return status == enums.LeaseRequestStatusChecking || status == enums.LeaseRequestStatusIncomplete
}
