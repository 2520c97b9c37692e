package enums

import "testing"

func TestParseAttachmentStatusDefaultsToPending(t *testing.T) {
	cases := map[string]AttachmentStatus{
		"":          AttachmentStatusPending,
		"APPROVED":  AttachmentStatusApproved,
		" rejected": AttachmentStatusRejected,
		"archived":  AttachmentStatusPending,
	}
	for raw, want := range cases {
		if got := ParseAttachmentStatus(raw); got != want {
			t.Fatalf("ParseAttachmentStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestLeaseRequestStatusTerminal(t *testing.T) {
	for _, status := range validLeaseRequestStatuses {
		want := status == LeaseRequestStatusApproved || status == LeaseRequestStatusRejected || status == LeaseRequestStatusCancelled
		if status.IsTerminal() != want {
			t.Fatalf("%s terminal=%v, want %v", status, status.IsTerminal(), want)
		}
	}
	if LeaseRequestStatus("archived").IsTerminal() {
		t.Fatalf("unknown statuses are not terminal")
	}
}

func TestParsePhase(t *testing.T) {
	if p, err := ParsePhase(""); err != nil || p != PhaseReview {
		t.Fatalf("expected empty phase to default to review, got %q %v", p, err)
	}
	if p, err := ParsePhase("Approved"); err != nil || p != PhaseApproved {
		t.Fatalf("expected approved phase, got %q %v", p, err)
	}
	if _, err := ParsePhase("archive"); err == nil {
		t.Fatalf("expected error for unknown phase")
	}
}
