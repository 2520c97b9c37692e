package annualrates

import (
	"encoding/json"

	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
)

// StatusEntry describes how a rate status is presented.
type StatusEntry struct {
	Label       string `json:"label"`
	Style       string `json:"style,omitempty"`
	NextStyle   string `json:"next_style,omitempty"`
	Description string `json:"description,omitempty"`
}

// UnmarshalJSON accepts either a full entry object or a bare label string.
func (e *StatusEntry) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*e = StatusEntry{Label: label}
		return nil
	}
	type plain StatusEntry
	var entry plain
	if err := json.Unmarshal(data, &entry); err != nil {
		return err
	}
	*e = StatusEntry(entry)
	return nil
}

var fallbackCatalog = map[enums.AnnualRateStatus]StatusEntry{
	enums.AnnualRateStatusDraft: {
		Label: "Draft", Style: "secondary", NextStyle: "warning",
		Description: "Proposal not yet submitted for approval.",
	},
	enums.AnnualRateStatusPending: {
		Label: "Pending approval", Style: "warning", NextStyle: "success",
		Description: "Waiting for an operator to approve the proposal.",
	},
	enums.AnnualRateStatusApproved: {
		Label: "Approved", Style: "success", NextStyle: "primary",
		Description: "Approved and scheduled to take effect.",
	},
	enums.AnnualRateStatusActive: {
		Label: "Active", Style: "primary", NextStyle: "dark",
		Description: "Currently applied to the property.",
	},
	enums.AnnualRateStatusExpired: {
		Label: "Expired", Style: "dark",
		Description: "The rate year has ended.",
	},
	enums.AnnualRateStatusCancelled: {
		Label: "Cancelled", Style: "danger",
		Description: "Withdrawn before taking effect.",
	},
}

// Catalog resolves status keys against the server-supplied entries first and the compiled-in
// fallback second. It is immutable once built.
type Catalog struct {
	server map[enums.AnnualRateStatus]StatusEntry
	merged map[enums.AnnualRateStatus]StatusEntry
}

// NewCatalog merges server entries over the fallback table. Server fields override fallback
// fields one by one, so a server entry with only a label keeps the fallback style.
func NewCatalog(server map[string]StatusEntry) Catalog {
	c := Catalog{
		server: make(map[enums.AnnualRateStatus]StatusEntry, len(server)),
		merged: make(map[enums.AnnualRateStatus]StatusEntry, len(fallbackCatalog)+len(server)),
	}
	for key, entry := range fallbackCatalog {
		c.merged[key] = entry
	}
	for rawKey, entry := range server {
		key := enums.AnnualRateStatus(rawKey).Normalize()
		if key == "" {
			continue
		}
		c.server[key] = entry
		c.merged[key] = overlay(c.merged[key], entry)
	}
	return c
}

func overlay(base, top StatusEntry) StatusEntry {
	if top.Label != "" {
		base.Label = top.Label
	}
	if top.Style != "" {
		base.Style = top.Style
	}
	if top.NextStyle != "" {
		base.NextStyle = top.NextStyle
	}
	if top.Description != "" {
		base.Description = top.Description
	}
	return base
}

// DisplayLabel returns the server label, then the fallback label, then the raw key.
func (c Catalog) DisplayLabel(key string) string {
	normalized := enums.AnnualRateStatus(key).Normalize()
	if entry, ok := c.server[normalized]; ok && entry.Label != "" {
		return entry.Label
	}
	if entry, ok := fallbackCatalog[normalized]; ok && entry.Label != "" {
		return entry.Label
	}
	return key
}

// Lookup returns the merged entry for key.
func (c Catalog) Lookup(key string) (StatusEntry, bool) {
	entry, ok := c.merged[enums.AnnualRateStatus(key).Normalize()]
	return entry, ok
}

// Entries returns a copy of the merged table keyed by status.
func (c Catalog) Entries() map[string]StatusEntry {
	out := make(map[string]StatusEntry, len(c.merged))
	if c.merged == nil {
		for key, entry := range fallbackCatalog {
			out[string(key)] = entry
		}
		return out
	}
	for key, entry := range c.merged {
		out[string(key)] = entry
	}
	return out
}

var lockedStatuses = map[enums.AnnualRateStatus]struct{}{
	enums.AnnualRateStatusApproved:  {},
	enums.AnnualRateStatusActive:    {},
	enums.AnnualRateStatusExpired:   {},
	enums.AnnualRateStatusCancelled: {},
}

// CanApprove reports whether the approve action is offered. Unknown keys are approvable.
func CanApprove(status string) bool {
	_, locked := lockedStatuses[enums.AnnualRateStatus(status).Normalize()]
	return !locked
}
