package leaserequests

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/angelmondragon/leasedesk-backend/internal/attachments"
	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
)

var reservedFields = map[string]struct{}{
	"id":           {},
	"status":       {},
	"attachments":  {},
	"attachements": {},
}

// LeaseRequest is the workflow's view of a tenant request. Everything the workflow does not
// interpret is kept in Metadata untouched.
type LeaseRequest struct {
	ID          int64
	Status      enums.LeaseRequestStatus
	Attachments attachments.Mapping
	Metadata    map[string]any
}

// FromPayload decodes a raw upstream payload. The entity may sit at the top level or
// under "data". fallbackID is used when the payload carries no usable id.
func FromPayload(raw []byte, fallbackID int64) (*LeaseRequest, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = map[string]any{}
	}

	root := payload
	if inner, ok := payload["data"].(map[string]any); ok {
		if _, hasID := inner["id"]; hasID {
			root = inner
		} else if _, hasStatus := inner["status"]; hasStatus {
			root = inner
		}
	}

	id, ok := int64Field(root["id"])
	if !ok {
		id = fallbackID
	}
	status, _ := root["status"].(string)

	metadata := make(map[string]any, len(root))
	for key, value := range root {
		if _, reserved := reservedFields[key]; reserved {
			continue
		}
		metadata[key] = value
	}

	return &LeaseRequest{
		ID:          id,
		Status:      enums.LeaseRequestStatus(strings.ToLower(strings.TrimSpace(status))),
		Attachments: attachments.Normalize(payload),
		Metadata:    metadata,
	}, nil
}

func int64Field(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}
