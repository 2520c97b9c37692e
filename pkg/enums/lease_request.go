package enums

import (
	"fmt"
	"strings"
)

// LeaseRequestStatus is the lifecycle state of a tenant request. Unknown keys are kept verbatim.
type LeaseRequestStatus string

const (
	LeaseRequestStatusPending           LeaseRequestStatus = "pending"
	LeaseRequestStatusPropertySelected  LeaseRequestStatus = "property_selected"
	LeaseRequestStatusChecking          LeaseRequestStatus = "checking"
	LeaseRequestStatusUnderReview       LeaseRequestStatus = "under_review"
	LeaseRequestStatusInContractProcess LeaseRequestStatus = "in_contract_process"
	LeaseRequestStatusIncomplete        LeaseRequestStatus = "incomplete"
	LeaseRequestStatusApproved          LeaseRequestStatus = "approved"
	LeaseRequestStatusRejected          LeaseRequestStatus = "rejected"
	LeaseRequestStatusCancelled         LeaseRequestStatus = "cancelled"
)

var validLeaseRequestStatuses = []LeaseRequestStatus{
	LeaseRequestStatusPending,
	LeaseRequestStatusPropertySelected,
	LeaseRequestStatusChecking,
	LeaseRequestStatusUnderReview,
	LeaseRequestStatusInContractProcess,
	LeaseRequestStatusIncomplete,
	LeaseRequestStatusApproved,
	LeaseRequestStatusRejected,
	LeaseRequestStatusCancelled,
}

// String implements fmt.Stringer.
func (s LeaseRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known lease request status.
func (s LeaseRequestStatus) IsValid() bool {
	for _, candidate := range validLeaseRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s LeaseRequestStatus) IsTerminal() bool {
	switch s {
	case LeaseRequestStatusApproved, LeaseRequestStatusRejected, LeaseRequestStatusCancelled:
		return true
	}
	return false
}

// ParseLeaseRequestStatus converts raw input into LeaseRequestStatus.
func ParseLeaseRequestStatus(value string) (LeaseRequestStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validLeaseRequestStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lease request status %q", value)
}

// AttachmentStatus is the review decision on a single attachment record.
type AttachmentStatus string

const (
	AttachmentStatusPending  AttachmentStatus = "pending"
	AttachmentStatusApproved AttachmentStatus = "approved"
	AttachmentStatusRejected AttachmentStatus = "rejected"
)

// String implements fmt.Stringer.
func (s AttachmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known attachment status.
func (s AttachmentStatus) IsValid() bool {
	switch s {
	case AttachmentStatusPending, AttachmentStatusApproved, AttachmentStatusRejected:
		return true
	}
	return false
}

// IsDecision reports whether the value is a status an operator can set.
func (s AttachmentStatus) IsDecision() bool {
	return s == AttachmentStatusApproved || s == AttachmentStatusRejected
}

// ParseAttachmentStatus is lenient: absent or unknown values read as pending.
func ParseAttachmentStatus(value string) AttachmentStatus {
	status := AttachmentStatus(strings.ToLower(strings.TrimSpace(value)))
	if status.IsValid() {
		return status
	}
	return AttachmentStatusPending
}

// CategoryStatus is the status computed for an attachment category from its records.
type CategoryStatus string

const (
	CategoryStatusNotSubmitted CategoryStatus = "not_submitted"
	CategoryStatusPending      CategoryStatus = "pending"
	CategoryStatusApproved     CategoryStatus = "approved"
	CategoryStatusRejected     CategoryStatus = "rejected"
)

// String implements fmt.Stringer.
func (s CategoryStatus) String() string {
	return string(s)
}

// MissingReason explains why a category has nothing to review.
type MissingReason string

const (
	MissingReasonNone         MissingReason = ""
	MissingReasonNotSubmitted MissingReason = "not_submitted"
	MissingReasonUnresolved   MissingReason = "unresolved"
	MissingReasonIncomplete   MissingReason = "incomplete"
)

// Phase selects which upstream collection a lease request is read from.
type Phase string

const (
	PhaseReview   Phase = "review"
	PhaseApproved Phase = "approved"
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	return string(p)
}

// IsValid reports whether the value is a known phase.
func (p Phase) IsValid() bool {
	return p == PhaseReview || p == PhaseApproved
}

// ParsePhase converts raw input into a Phase; empty input selects review.
func ParsePhase(value string) (Phase, error) {
	normalized := Phase(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return PhaseReview, nil
	}
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid phase %q", value)
}
