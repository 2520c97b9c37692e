package attachments

import (
	"sort"

	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
)

// Record is one piece of evidence uploaded for a lease request.
type Record struct {
	Category string                 `json:"category"`
	URLs     []string               `json:"urls"`
	Status   enums.AttachmentStatus `json:"status"`
	Note     string                 `json:"note,omitempty"`
}

// HasURLs reports whether at least one file location was resolved.
func (r Record) HasURLs() bool {
	return len(r.URLs) > 0
}

// Mapping groups records by category. A present key with no records means the
// category exists but nothing was submitted for it.
type Mapping map[string][]Record

// Categories returns the category keys in stable order.
func (m Mapping) Categories() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// URLCount returns the number of resolved URLs across a category's records.
func (m Mapping) URLCount(category string) int {
	total := 0
	for _, record := range m[category] {
		total += len(record.URLs)
	}
	return total
}

func (m Mapping) add(record Record) {
	m[record.Category] = append(m[record.Category], record)
}

func (m Mapping) touch(category string) {
	if _, ok := m[category]; !ok {
		m[category] = []Record{}
	}
}
