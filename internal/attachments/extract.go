package attachments

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
)

// Fields consulted, in order, for the category of a record in an array shape.
var arrayCategoryFields = []string{"name", "type", "key", "label", "title", "kind"}

// Fields consulted, in order, for the category of a record inside a flat map. The map key is the last resort.
var flatCategoryFields = []string{"category", "name"}

func fromArray(items []any) Mapping {
	result := Mapping{}
	for position, item := range items {
		fallback := fmt.Sprintf("attachment_%d", position)
		switch v := item.(type) {
		case map[string]any:
			category := firstString(v, arrayCategoryFields...)
			if category == "" {
				category = fallback
			}
			result.add(recordFromObject(category, v))
		default:
			result.add(Record{
				Category: fallback,
				URLs:     primitiveURLs(v),
				Status:   enums.AttachmentStatusPending,
			})
		}
	}
	return result
}

func fromFlatMap(entries map[string]any) Mapping {
	result := Mapping{}
	for key, value := range entries {
		switch v := value.(type) {
		case nil:
			result.touch(key)
		case []any:
			fromFlatEntries(result, key, v)
		default:
			fromFlatEntries(result, key, []any{v})
		}
	}
	return result
}

// fromFlatEntries turns object entries into records and folds primitive entries into
// one URL record for the map key.
func fromFlatEntries(result Mapping, key string, entries []any) {
	if len(entries) == 0 {
		result.touch(key)
		return
	}
	var urls []string
	primitives := 0
	for _, entry := range entries {
		object, ok := entry.(map[string]any)
		if !ok {
			primitives++
			urls = append(urls, primitiveURLs(entry)...)
			continue
		}
		category := firstString(object, flatCategoryFields...)
		if category == "" {
			category = key
		}
		result.add(recordFromObject(category, object))
	}
	if primitives > 0 {
		result.add(Record{
			Category: key,
			URLs:     nonNil(urls),
			Status:   enums.AttachmentStatusPending,
		})
	}
}

func recordFromObject(category string, object map[string]any) Record {
	status, _ := object["status"].(string)
	note, _ := object["note"].(string)
	return Record{
		Category: category,
		URLs:     resolveURLs(object),
		Status:   enums.ParseAttachmentStatus(status),
		Note:     strings.TrimSpace(note),
	}
}

// resolveURLs takes the first field group that yields at least one location.
func resolveURLs(object map[string]any) []string {
	if list, ok := object["urls"].([]any); ok {
		if urls := nonEmptyStrings(list); len(urls) > 0 {
			return urls
		}
	}
	if url := firstString(object, "url"); url != "" {
		return []string{url}
	}
	var files []any
	switch v := object["file"].(type) {
	case []any:
		files = v
	case map[string]any:
		files = []any{v}
	}
	var urls []string
	for _, file := range files {
		fileObject, ok := file.(map[string]any)
		if !ok {
			continue
		}
		if location := firstString(fileObject, "url", "path"); location != "" {
			urls = append(urls, location)
		}
	}
	return nonNil(urls)
}

func primitiveURLs(value any) []string {
	if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
		return []string{strings.TrimSpace(s)}
	}
	return []string{}
}

func nonEmptyStrings(list []any) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func firstString(object map[string]any, fields ...string) string {
	for _, field := range fields {
		if s, ok := object[field].(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func nonNil(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}
