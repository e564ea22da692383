package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeObject extracts the JSON object from a model reply and returns its
// members undecoded. Code fences and prose around the object are ignored.
// Anything that is not a JSON object is an error.
func DecodeObject(content string) (map[string]json.RawMessage, error) {
	body := objectBody(content)
	if body == "" {
		return nil, fmt.Errorf("no JSON object in reply (payload snippet: %s)", summarizePayloadSnippet(content))
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("%w (payload snippet: %s)", err, summarizePayloadSnippet(body))
	}
	return fields, nil
}

// FieldText renders one object member as text. Strings are returned as-is,
// numbers and booleans in their JSON spelling, arrays of scalars joined with
// ", ", and anything else as compact JSON. Null and absent members are nil.
func FieldText(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var value any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		text := string(raw)
		return &text
	}
	text, ok := scalarText(value)
	if !ok {
		if items, isList := value.([]any); isList {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				part, scalar := scalarText(item)
				if !scalar {
					parts = nil
					break
				}
				if part != "" {
					parts = append(parts, part)
				}
			}
			if parts != nil {
				text = strings.Join(parts, ", ")
				return &text
			}
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			text = string(raw)
		} else {
			text = compact.String()
		}
	}
	return &text
}

func scalarText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return fmt.Sprint(v), true
	case nil:
		return "", true
	default:
		return "", false
	}
}

// objectBody strips a code fence and returns the outermost {...} span.
func objectBody(content string) string {
	trimmed := stripCodeFenceBlock(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return ""
	}
	return trimmed[start : end+1]
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarizePayloadSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
