package attachments

import (
	"encoding/json"
)

const (
	keyAttachments       = "attachments"
	keyLegacyAttachments = "attachements"
	keyData              = "data"
)

// Matcher recognizes one payload shape. Locate returns the node holding the attachment
// data when the shape applies; Extract turns that node into records.
type Matcher struct {
	Name    string
	Locate  func(payload map[string]any) (any, bool)
	Extract func(node any) Mapping
}

// Normalizer tries its matchers in order; the first one that locates data wins.
type Normalizer struct {
	matchers []Matcher
}

// NewNormalizer builds a normalizer from the given matchers, or the default chain when none are given.
func NewNormalizer(matchers ...Matcher) *Normalizer {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &Normalizer{matchers: matchers}
}

// With returns a normalizer that tries extra after the current chain.
func (n *Normalizer) With(extra ...Matcher) *Normalizer {
	chain := make([]Matcher, 0, len(n.matchers)+len(extra))
	chain = append(chain, n.matchers...)
	chain = append(chain, extra...)
	return &Normalizer{matchers: chain}
}

var defaultNormalizer = NewNormalizer()

// Normalize canonicalizes attachment data using the default matcher chain.
func Normalize(payload any) Mapping {
	return defaultNormalizer.Normalize(payload)
}

// Normalize never fails: unrecognized or malformed payloads yield an empty mapping.
func (n *Normalizer) Normalize(payload any) Mapping {
	root, ok := asObject(payload)
	if !ok {
		return Mapping{}
	}
	for _, matcher := range n.matchers {
		node, found := matcher.Locate(root)
		if !found {
			continue
		}
		if result := matcher.Extract(node); result != nil {
			return result
		}
	}
	return Mapping{}
}

// DefaultMatchers returns the known upstream shapes in precedence order.
func DefaultMatchers() []Matcher {
	var chain []Matcher
	for _, container := range []string{keyAttachments, keyLegacyAttachments} {
		chain = append(chain,
			arrayMatcher(container+".data", container, keyData),
			arrayMatcher(container, container),
			arrayMatcher("data."+container+".data", keyData, container, keyData),
			arrayMatcher("data."+container, keyData, container),
		)
	}
	for _, path := range [][]string{
		{keyAttachments},
		{keyData, keyAttachments},
		{keyLegacyAttachments},
		{keyData, keyLegacyAttachments},
	} {
		chain = append(chain, flatMapMatcher(path...))
	}
	return chain
}

func arrayMatcher(name string, path ...string) Matcher {
	return Matcher{
		Name: name,
		Locate: func(payload map[string]any) (any, bool) {
			node, ok := lookup(payload, path...)
			if !ok {
				return nil, false
			}
			_, isArray := node.([]any)
			return node, isArray
		},
		Extract: func(node any) Mapping {
			return fromArray(node.([]any))
		},
	}
}

func flatMapMatcher(path ...string) Matcher {
	name := "flat:" + path[0]
	if len(path) > 1 {
		name = "flat:" + path[0] + "." + path[1]
	}
	return Matcher{
		Name: name,
		Locate: func(payload map[string]any) (any, bool) {
			node, ok := lookup(payload, path...)
			if !ok {
				return nil, false
			}
			object, isObject := node.(map[string]any)
			if !isObject {
				return nil, false
			}
			// {"data": <non-array>} is an empty page, not a category map
			if _, paged := object[keyData]; paged && len(object) == 1 {
				return nil, false
			}
			return object, true
		},
		Extract: func(node any) Mapping {
			return fromFlatMap(node.(map[string]any))
		},
	}
}

func lookup(payload map[string]any, path ...string) (any, bool) {
	var current any = payload
	for _, key := range path {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = object[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func asObject(payload any) (map[string]any, bool) {
	switch v := payload.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return v, true
	case json.RawMessage:
		return decodeObject(v)
	case []byte:
		return decodeObject(v)
	case string:
		return decodeObject([]byte(v))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		return decodeObject(raw)
	}
}

func decodeObject(raw []byte) (map[string]any, bool) {
	var object map[string]any
	if err := json.Unmarshal(raw, &object); err != nil || object == nil {
		return nil, false
	}
	return object, true
}
