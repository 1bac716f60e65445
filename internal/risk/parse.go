package risk

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedOutput means the model reply was not a JSON array, even
// after removing Markdown fences and surrounding prose.
var ErrMalformedOutput = errors.New("malformed model output")

// Item is one decoded element of the model reply.
type Item struct {
	ID       int
	Analysis Analysis
}

// StripFences removes Markdown code fences around a model reply.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if first := strings.Index(text, "```"); first >= 0 {
		rest := text[first+3:]
		// Drop the info string (```json) up to the end of the line.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "[{") {
			rest = rest[nl+1:]
		} else {
			rest = strings.TrimPrefix(strings.TrimPrefix(rest, "json"), "JSON")
		}
		if last := strings.LastIndex(rest, "```"); last >= 0 {
			rest = rest[:last]
		}
		text = rest
	}
	return strings.TrimSpace(text)
}

// ParseResponse decodes a batch reply. Elements without a usable id are
// skipped; fields that are missing or of the wrong type take zero values.
func ParseResponse(text string) ([]Item, error) {
	body := StripFences(text)
	if !strings.HasPrefix(body, "[") {
		start, end := strings.IndexByte(body, '['), strings.LastIndexByte(body, ']')
		if start < 0 || end <= start {
			return nil, fmt.Errorf("%w: no JSON array found", ErrMalformedOutput)
		}
		body = body[start : end+1]
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		var obj map[string]interface{}
		if err := json.Unmarshal(r, &obj); err != nil {
			continue
		}
		id, ok := asInt(obj["id"])
		if !ok {
			continue
		}
		fields, _ := obj["analysis"].(map[string]interface{})
		items = append(items, Item{ID: id, Analysis: decodeAnalysis(fields)})
	}
	return items, nil
}

func decodeAnalysis(m map[string]interface{}) Analysis {
	a := Analysis{Category: Uncategorized}
	if m == nil {
		return a
	}
	a.Risky = asBool(m["risky"])
	if score, ok := asInt(m["score"]); ok {
		a.Score = min(max(score, 0), 100)
	}
	a.Summary, _ = m["summary"].(string)
	a.Reason, _ = m["reason"].(string)
	if c, ok := m["category"].(string); ok {
		a.Category = normalizeCategory(strings.TrimSpace(c))
	}
	return a
}

func asInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(math.Round(t)), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return int(math.Round(f)), true
	}
	return 0, false
}

func asBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	}
	return false
}
