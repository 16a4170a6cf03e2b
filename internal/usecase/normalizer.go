package usecase

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mealsense/backend/internal/domain"
)

// mentionListKeys are the payload fields the extraction service has been seen
// to use for its mention arrays.
var mentionListKeys = []string{"foods", "drinks", "items", "mentions"}

// NormalizeExtraction turns raw output of the external extraction service
// into a clean, deduplicated mention list. The raw string may be prose
// wrapped around JSON, malformed, or empty; this function never fails, it
// degrades to an empty list. It performs no I/O.
func NormalizeExtraction(raw string) []domain.ExtractedMention {
	block := firstJSONBlock(raw)
	if block == "" {
		return nil
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(block), &payload); err != nil {
		return nil
	}

	var mentions []domain.ExtractedMention
	found := false
	for _, key := range mentionListKeys {
		list, ok := payload[key].([]interface{})
		if !ok {
			continue
		}
		found = true
		for _, item := range list {
			if m, ok := coerceMention(item); ok {
				mentions = append(mentions, m)
			}
		}
	}

	// Some responses are a single mention object rather than a list.
	if !found {
		if m, ok := coerceMention(payload); ok {
			mentions = append(mentions, m)
		}
	}

	return dedupeMentions(mentions)
}

// firstJSONBlock returns the first balanced {...} block in s, skipping brace
// characters inside JSON string literals. Returns "" when no balanced block
// exists.
func firstJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// coerceMention converts one loosely-typed payload entry into a mention.
// Plain strings become a bare name; objects have name/portion/modifiers
// coerced field by field. Entries with no usable name are dropped.
func coerceMention(v interface{}) (domain.ExtractedMention, bool) {
	switch value := v.(type) {
	case string:
		name := strings.TrimSpace(value)
		if name == "" {
			return domain.ExtractedMention{}, false
		}
		return domain.ExtractedMention{Name: name}, true

	case map[string]interface{}:
		name := coerceString(value["name"])
		if name == "" {
			return domain.ExtractedMention{}, false
		}

		mention := domain.ExtractedMention{Name: name}
		for _, key := range []string{"portion", "portion_text", "quantity"} {
			if portion := coerceString(value[key]); portion != "" {
				mention.PortionText = portion
				break
			}
		}
		if list, ok := value["modifiers"].([]interface{}); ok {
			for _, m := range list {
				if mod := coerceString(m); mod != "" {
					mention.Modifiers = append(mention.Modifiers, mod)
				}
			}
		}
		return mention, true
	}
	return domain.ExtractedMention{}, false
}

// coerceString accepts string and numeric payload values; anything else
// yields "".
func coerceString(v interface{}) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	return ""
}

// dedupeMentions collapses mentions sharing a normalized name. The first
// non-empty portion text wins; modifier lists union as a set, preserving
// first-seen order.
func dedupeMentions(mentions []domain.ExtractedMention) []domain.ExtractedMention {
	if len(mentions) == 0 {
		return nil
	}

	byName := make(map[string]*domain.ExtractedMention)
	var order []string
	for _, m := range mentions {
		key := strings.ToLower(strings.TrimSpace(m.Name))
		if key == "" {
			continue
		}

		existing, seen := byName[key]
		if !seen {
			kept := m
			byName[key] = &kept
			order = append(order, key)
			continue
		}
		if existing.PortionText == "" {
			existing.PortionText = m.PortionText
		}
		existing.Modifiers = unionStrings(existing.Modifiers, m.Modifiers)
	}

	out := make([]domain.ExtractedMention, 0, len(order))
	for _, key := range order {
		out = append(out, *byName[key])
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, v := range a {
		seen[strings.ToLower(v)] = true
	}
	for _, v := range b {
		if !seen[strings.ToLower(v)] {
			seen[strings.ToLower(v)] = true
			a = append(a, v)
		}
	}
	return a
}
