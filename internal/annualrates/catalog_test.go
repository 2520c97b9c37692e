package annualrates

import (
	"encoding/json"
	"testing"
)

func TestCanApprove(t *testing.T) {
	for _, status := range []string{"approved", "active", "expired", "cancelled", " Approved "} {
		if CanApprove(status) {
			t.Fatalf("expected %q to be locked", status)
		}
	}
	for _, status := range []string{"draft", "pending", "new_unseen_status", ""} {
		if !CanApprove(status) {
			t.Fatalf("expected %q to be approvable", status)
		}
	}
}

func TestDisplayLabelFallbackChain(t *testing.T) {
	catalog := NewCatalog(map[string]StatusEntry{
		"pending":   {Label: "Awaiting sign-off"},
		"In_Review": {Label: "In review", Style: "info"},
	})

	if got := catalog.DisplayLabel("pending"); got != "Awaiting sign-off" {
		t.Fatalf("server label should win, got %q", got)
	}
	if got := catalog.DisplayLabel("active"); got != "Active" {
		t.Fatalf("fallback label expected, got %q", got)
	}
	if got := catalog.DisplayLabel("in_review"); got != "In review" {
		t.Fatalf("server keys are matched case-insensitively, got %q", got)
	}
	if got := catalog.DisplayLabel("frozen"); got != "frozen" {
		t.Fatalf("raw key expected for unknown status, got %q", got)
	}
}

func TestCatalogMergeKeepsFallbackReachable(t *testing.T) {
	catalog := NewCatalog(map[string]StatusEntry{
		"approved": {Label: "Signed off"},
	})

	entry, ok := catalog.Lookup("approved")
	if !ok {
		t.Fatalf("approved entry missing")
	}
	if entry.Label != "Signed off" || entry.Style != "success" {
		t.Fatalf("expected label override with fallback style, got %+v", entry)
	}

	entries := catalog.Entries()
	for _, key := range []string{"draft", "pending", "approved", "active", "expired", "cancelled"} {
		if _, ok := entries[key]; !ok {
			t.Fatalf("fallback entry %q must survive the merge", key)
		}
	}

	entries["draft"] = StatusEntry{Label: "mutated"}
	if catalog.DisplayLabel("draft") != "Draft" {
		t.Fatalf("catalog must not be mutable through Entries")
	}
}

func TestZeroCatalogStillResolves(t *testing.T) {
	var catalog Catalog
	if catalog.DisplayLabel("expired") != "Expired" {
		t.Fatalf("zero catalog should use the fallback table")
	}
	if len(catalog.Entries()) != 6 {
		t.Fatalf("zero catalog should expose the fallback entries")
	}
}

func TestStatusEntryAcceptsBareLabel(t *testing.T) {
	var statuses map[string]StatusEntry
	raw := `{"draft":"Borrador","pending":{"label":"Pendiente","style":"warning","next_style":"success","description":"x"}}`
	if err := json.Unmarshal([]byte(raw), &statuses); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if statuses["draft"].Label != "Borrador" {
		t.Fatalf("bare label not decoded: %+v", statuses["draft"])
	}
	if statuses["pending"].NextStyle != "success" {
		t.Fatalf("object entry not decoded: %+v", statuses["pending"])
	}
}
