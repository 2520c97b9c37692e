package leaserequests

import (
	"reflect"
	"testing"

	"github.com/angelmondragon/leasedesk-backend/internal/attachments"
	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
)

func records(statuses ...enums.AttachmentStatus) []attachments.Record {
	out := make([]attachments.Record, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, attachments.Record{URLs: []string{"https://cdn/doc"}, Status: status})
	}
	return out
}

const (
	pending  = enums.AttachmentStatusPending
	approved = enums.AttachmentStatusApproved
	rejected = enums.AttachmentStatusRejected
)

func TestCategoryStatus(t *testing.T) {
	tests := []struct {
		name string
		in   []attachments.Record
		want enums.CategoryStatus
	}{
		{name: "no records", in: nil, want: enums.CategoryStatusNotSubmitted},
		{name: "all approved", in: records(approved, approved), want: enums.CategoryStatusApproved},
		{name: "approved then rejected", in: records(approved, rejected), want: enums.CategoryStatusRejected},
		{name: "rejected then approved", in: records(rejected, approved), want: enums.CategoryStatusRejected},
		{name: "rejected beats pending", in: records(pending, rejected), want: enums.CategoryStatusRejected},
		{name: "mixed pending", in: records(approved, pending), want: enums.CategoryStatusPending},
		{name: "single pending", in: records(pending), want: enums.CategoryStatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryStatus(tt.in); got != tt.want {
				t.Fatalf("CategoryStatus() = %s, want %s", got, tt.want)
			}
		})
	}
	if CategoryStatus(nil) == enums.CategoryStatusPending {
		t.Fatalf("an empty category must be distinct from pending")
	}
}

func TestReadinessMonotonicity(t *testing.T) {
	if Ready(attachments.Mapping{}) {
		t.Fatalf("zero categories must never be ready")
	}

	mapping := attachments.Mapping{
		"id_doc":          records(approved),
		"deposit_receipt": records(approved),
	}
	if !Ready(mapping) {
		t.Fatalf("all approved categories should be ready")
	}

	mapping["deposit_receipt"] = records(rejected)
	if Ready(mapping) {
		t.Fatalf("rejecting one category must clear readiness")
	}

	mapping["deposit_receipt"] = records(pending)
	if Ready(mapping) {
		t.Fatalf("pending category must block readiness")
	}
	mapping["deposit_receipt"] = records(approved)
	if !Ready(mapping) {
		t.Fatalf("approving the last pending category should make the request ready")
	}

	mapping["guarantor_id"] = nil
	if Ready(mapping) {
		t.Fatalf("a category with nothing submitted blocks readiness")
	}
	if got := Blocking(mapping); !reflect.DeepEqual(got, []string{"guarantor_id"}) {
		t.Fatalf("unexpected blocking categories %v", got)
	}
}

func TestStickyRejectionScenario(t *testing.T) {
	mapping := attachments.Mapping{
		"deposit_receipt": records(approved, pending),
	}
	if CategoryStatus(mapping["deposit_receipt"]) != enums.CategoryStatusPending {
		t.Fatalf("expected pending before the rejection")
	}

	mapping["deposit_receipt"][1].Status = rejected
	mapping["deposit_receipt"][1].Note = "amount does not match"

	if CategoryStatus(mapping["deposit_receipt"]) != enums.CategoryStatusRejected {
		t.Fatalf("expected rejected category")
	}
	if Ready(mapping) {
		t.Fatalf("rejected category must not be ready")
	}

	mapping["deposit_receipt"][0].Status = pending
	if CategoryStatus(mapping["deposit_receipt"]) != enums.CategoryStatusRejected {
		t.Fatalf("rejection must not depend on sibling status")
	}
}

func TestValidateTransition(t *testing.T) {
	allowed := [][2]enums.LeaseRequestStatus{
		{enums.LeaseRequestStatusPending, enums.LeaseRequestStatusPropertySelected},
		{enums.LeaseRequestStatusPropertySelected, enums.LeaseRequestStatusChecking},
		{enums.LeaseRequestStatusChecking, enums.LeaseRequestStatusUnderReview},
		{enums.LeaseRequestStatusUnderReview, enums.LeaseRequestStatusIncomplete},
		{enums.LeaseRequestStatusIncomplete, enums.LeaseRequestStatusUnderReview},
		{enums.LeaseRequestStatusUnderReview, enums.LeaseRequestStatusInContractProcess},
		{enums.LeaseRequestStatusInContractProcess, enums.LeaseRequestStatusApproved},
		{enums.LeaseRequestStatusChecking, enums.LeaseRequestStatusCancelled},
	}
	for _, pair := range allowed {
		if err := ValidateTransition(pair[0], pair[1]); err != nil {
			t.Fatalf("expected %s -> %s to be allowed: %v", pair[0], pair[1], err)
		}
	}

	refused := [][2]enums.LeaseRequestStatus{
		{enums.LeaseRequestStatusPending, enums.LeaseRequestStatusApproved},
		{enums.LeaseRequestStatusChecking, enums.LeaseRequestStatusPending},
		{enums.LeaseRequestStatusApproved, enums.LeaseRequestStatusCancelled},
		{enums.LeaseRequestStatusCancelled, enums.LeaseRequestStatusPending},
		{enums.LeaseRequestStatusRejected, enums.LeaseRequestStatusChecking},
		{"archived", enums.LeaseRequestStatusChecking},
	}
	for _, pair := range refused {
		if err := ValidateTransition(pair[0], pair[1]); err == nil {
			t.Fatalf("expected %s -> %s to be refused", pair[0], pair[1])
		}
	}
}

func TestNextStatusesHideContractUntilReady(t *testing.T) {
	notReady := NextStatuses(enums.LeaseRequestStatusChecking, false)
	for _, s := range notReady {
		if s == enums.LeaseRequestStatusInContractProcess {
			t.Fatalf("contract transition offered before readiness")
		}
	}
	ready := NextStatuses(enums.LeaseRequestStatusChecking, true)
	found := false
	for _, s := range ready {
		if s == enums.LeaseRequestStatusInContractProcess {
			found = true
		}
	}
	if !found {
		t.Fatalf("contract transition should be offered once ready")
	}
	if got := NextStatuses(enums.LeaseRequestStatusApproved, true); len(got) != 0 {
		t.Fatalf("terminal states offer nothing, got %v", got)
	}
	if got := NextStatuses("archived", true); len(got) != 0 {
		t.Fatalf("unknown states offer nothing, got %v", got)
	}
}

func TestAttachmentDecisionGate(t *testing.T) {
	for _, status := range []enums.LeaseRequestStatus{
		enums.LeaseRequestStatusPending,
		enums.LeaseRequestStatusPropertySelected,
		enums.LeaseRequestStatusUnderReview,
		enums.LeaseRequestStatusInContractProcess,
		enums.LeaseRequestStatusApproved,
		enums.LeaseRequestStatusRejected,
		enums.LeaseRequestStatusCancelled,
		"archived",
	} {
		if AllowsAttachmentDecisions(status) {
			t.Fatalf("decisions must be refused in %s", status)
		}
	}
	if !AllowsAttachmentDecisions(enums.LeaseRequestStatusChecking) || !AllowsAttachmentDecisions(enums.LeaseRequestStatusIncomplete) {
		t.Fatalf("decisions must be accepted in checking and incomplete")
	}
}

func TestMissingReasons(t *testing.T) {
	unresolved := []attachments.Record{{Status: pending, URLs: []string{}}}

	if got := MissingReasonFor(enums.LeaseRequestStatusChecking, nil); got != enums.MissingReasonNotSubmitted {
		t.Fatalf("expected not_submitted, got %q", got)
	}
	if got := MissingReasonFor(enums.LeaseRequestStatusIncomplete, nil); got != enums.MissingReasonIncomplete {
		t.Fatalf("expected incomplete, got %q", got)
	}
	if got := MissingReasonFor(enums.LeaseRequestStatusChecking, unresolved); got != enums.MissingReasonUnresolved {
		t.Fatalf("expected unresolved, got %q", got)
	}
	if got := MissingReasonFor(enums.LeaseRequestStatusChecking, records(pending)); got != enums.MissingReasonNone {
		t.Fatalf("expected no reason, got %q", got)
	}

	if MissingMessage(enums.LeaseRequestStatusChecking, enums.MissingReasonUnresolved) != MissingMessage(enums.LeaseRequestStatusChecking, enums.MissingReasonNotSubmitted) {
		t.Fatalf("unresolved and not submitted render the same wording")
	}
	if MissingMessage(enums.LeaseRequestStatusIncomplete, enums.MissingReasonIncomplete) != "Documents are incomplete" {
		t.Fatalf("incomplete requests use the incomplete wording")
	}
	if MissingMessage(enums.LeaseRequestStatusChecking, enums.MissingReasonNone) != "" {
		t.Fatalf("no reason renders no message")
	}
}

func TestStatusLabelFallsBackToKey(t *testing.T) {
	if StatusLabel(enums.LeaseRequestStatusInContractProcess) != "In contract process" {
		t.Fatalf("unexpected label")
	}
	if StatusLabel("on_hold") != "on_hold" {
		t.Fatalf("unknown statuses render their raw key")
	}
}
