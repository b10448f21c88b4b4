// Package frontmatter splits rule documents into an optional key/value
// header block and a body, and serializes the block back. The parser is
// best-effort: malformed header lines are skipped, and a document without a
// well-formed block is returned unchanged with a nil header.
package frontmatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Delimiter marks the start and end of a header block.
const Delimiter = "---"

// Header is an ordered view of the parsed block. Values are string, int,
// float64, bool, or []string.
type Header struct {
	fields map[string]any
	order  []string
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{fields: make(map[string]any)}
}

// Set stores a value, preserving first-seen key order.
func (h *Header) Set(key string, value any) {
	if _, ok := h.fields[key]; !ok {
		h.order = append(h.order, key)
	}
	h.fields[key] = value
}

// Get returns the value for key and whether it is present.
func (h *Header) Get(key string) (any, bool) {
	v, ok := h.fields[key]
	return v, ok
}

// Len returns the number of fields.
func (h *Header) Len() int {
	return len(h.fields)
}

// Keys returns the keys in insertion order.
func (h *Header) Keys() []string {
	return append([]string(nil), h.order...)
}

// Split separates doc into a header block and the remaining body. The header
// is nil unless the document starts with a delimiter line, contains a
// matching closing delimiter, and the closing line is followed by a newline
// or end of input. The body is doc itself when no header is recognized, so a
// nil header and an empty header stay distinguishable.
func Split(doc string) (*Header, string) {
	normalized := strings.ReplaceAll(doc, "\r\n", "\n")
	if !strings.HasPrefix(normalized, Delimiter+"\n") {
		return nil, doc
	}

	rest := normalized[len(Delimiter)+1:]
	end := findClose(rest)
	if end < 0 {
		return nil, doc
	}

	header := NewHeader()
	for _, line := range strings.Split(rest[:end], "\n") {
		key, raw, ok := strings.Cut(line, ":")
		if !ok {
			continue // not a key/value line, skip
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		header.Set(key, coerce(strings.TrimSpace(raw)))
	}

	body := rest[end:]
	body = strings.TrimPrefix(body, Delimiter)
	body = strings.TrimPrefix(body, "\n")
	return header, body
}

// findClose locates the offset of the closing delimiter line in rest, or -1.
func findClose(rest string) int {
	offset := 0
	for _, line := range strings.Split(rest, "\n") {
		if line == Delimiter {
			return offset
		}
		offset += len(line) + 1
	}
	return -1
}

// coerce converts a raw header value: bool literals first, then numbers,
// then bracketed comma lists, otherwise the trimmed string.
func coerce(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		inner := strings.TrimSpace(raw[1 : len(raw)-1])
		if inner == "" {
			return []string{}
		}
		parts := strings.Split(inner, ",")
		items := make([]string, 0, len(parts))
		for _, p := range parts {
			items = append(items, strings.Trim(strings.TrimSpace(p), `"'`))
		}
		return items
	}
	return raw
}

// Merge overlays overlay onto base key-wise. Overlay values win on
// collision; keys only in base are preserved. Either side may be nil.
func Merge(base, overlay *Header) *Header {
	merged := NewHeader()
	if base != nil {
		for _, k := range base.order {
			merged.Set(k, base.fields[k])
		}
	}
	if overlay != nil {
		for _, k := range overlay.order {
			merged.Set(k, overlay.fields[k])
		}
	}
	return merged
}

// Serialize renders the header block followed by body. A nil or empty
// header yields body unchanged.
func Serialize(h *Header, body string) string {
	if h == nil || h.Len() == 0 {
		return body
	}
	var b strings.Builder
	b.WriteString(Delimiter)
	b.WriteString("\n")
	for _, k := range h.order {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(formatValue(h.fields[k]))
		b.WriteString("\n")
	}
	b.WriteString(Delimiter)
	b.WriteString("\n")
	b.WriteString(body)
	return b.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case []string:
		quoted := make([]string, len(val))
		for i, item := range val {
			quoted[i] = fmt.Sprintf("%q", item)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// SortedKeys returns the keys sorted lexically, for stable display output.
func (h *Header) SortedKeys() []string {
	keys := h.Keys()
	sort.Strings(keys)
	return keys
}
