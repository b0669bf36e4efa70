package service

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"eventify/internal/model"
	"eventify/internal/validation"
)

// Column widths of the events and categories tables.
const (
	maxTitleLen        = 255
	maxTimeLen         = 8
	maxCategoryNameLen = 100
)

// Payload is a decoded JSON object request body. Values keep their JSON
// types: string, float64, bool, nil, []any, map[string]any.
type Payload map[string]any

// DecodePayload parses a request body. An empty body is an empty object.
func DecodePayload(body []byte) (Payload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Payload{}, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, invalid("", "invalid JSON body")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, invalid("", "request body must be a JSON object")
	}
	return Payload(obj), nil
}

// CategoryRef names the category an event write asks for. ID wins over Name;
// both empty means uncategorized.
type CategoryRef struct {
	ID   *uint
	Name string
}

func (c CategoryRef) IsZero() bool {
	return c.ID == nil && c.Name == ""
}

// EventDraft is a validated create payload.
type EventDraft struct {
	Title    string
	Date     string
	Time     *string
	Priority model.Priority
	Notes    *string
	Category CategoryRef
}

// MergePolicy decides how keys outside the recognized set are treated by a
// partial update.
type MergePolicy int

const (
	// PermissiveFieldMerge ignores unrecognized keys and only rejects a
	// payload carrying no recognized key at all.
	PermissiveFieldMerge MergePolicy = iota
	// StrictFieldMerge additionally rejects any unrecognized key.
	StrictFieldMerge
)

// patchFields lists the keys a partial update recognizes, in validation order.
var patchFields = []string{"title", "date", "time", "priority", "notes", "done", "category", "category_id"}

// EventPatch is a validated partial update. Columns holds only fields present
// in the payload; Category is non-nil when category or category_id was present.
type EventPatch struct {
	Columns  map[string]any
	Category *CategoryRef
}

// CategoryDraft is a validated category create or replace payload.
type CategoryDraft struct {
	Name        string
	Description *string
}

// ParseEventDraft validates a create payload. Unknown keys and done are ignored.
func ParseEventDraft(p Payload) (EventDraft, error) {
	var d EventDraft

	title, ok := nonEmptyString(p["title"])
	if !ok {
		return d, invalid("title", "title is required")
	}
	if tooLong(title, maxTitleLen) {
		return d, invalid("title", "title must be at most 255 characters")
	}
	d.Title = title

	date, ok := nonEmptyString(p["date"])
	if !ok {
		return d, invalid("date", "date is required (YYYY-MM-DD)")
	}
	if !validation.IsDate(date) {
		return d, invalid("date", "date must be a valid calendar date (YYYY-MM-DD)")
	}
	d.Date = date

	if s, ok := p["time"].(string); ok && strings.TrimSpace(s) != "" {
		if tooLong(s, maxTimeLen) {
			return d, invalid("time", "time must be at most 8 characters (HH:MM)")
		}
		d.Time = &s
	}

	d.Priority = model.PriorityMedium
	if raw, present := p["priority"]; present {
		prio, err := parsePriority(raw)
		if err != nil {
			return d, err
		}
		d.Priority = prio
	}

	notes, err := parseNotes(p["notes"])
	if err != nil {
		return d, err
	}
	d.Notes = notes

	ref, err := parseCategoryRef(p)
	if err != nil {
		return d, err
	}
	d.Category = ref
	return d, nil
}

// ParseEventPatch validates the fields literally present in p.
func ParseEventPatch(p Payload, policy MergePolicy) (EventPatch, error) {
	patch := EventPatch{Columns: map[string]any{}}

	recognized := 0
	for _, key := range patchFields {
		if _, present := p[key]; present {
			recognized++
		}
	}
	if policy == StrictFieldMerge {
		for key := range p {
			if !isPatchField(key) {
				return patch, invalid(key, fmt.Sprintf("unknown field %q", key))
			}
		}
	}
	if recognized == 0 {
		return patch, invalid("", "No valid fields to update")
	}

	for _, key := range patchFields {
		raw, present := p[key]
		if !present {
			continue
		}
		switch key {
		case "title":
			title, ok := nonEmptyString(raw)
			if !ok {
				return patch, invalid(key, "title must be a non-empty string")
			}
			if tooLong(title, maxTitleLen) {
				return patch, invalid(key, "title must be at most 255 characters")
			}
			patch.Columns["title"] = title
		case "date":
			date, ok := nonEmptyString(raw)
			if !ok {
				return patch, invalid(key, "date must be a non-empty string (YYYY-MM-DD)")
			}
			if !validation.IsDate(date) {
				return patch, invalid(key, "date must be a valid calendar date (YYYY-MM-DD)")
			}
			patch.Columns["date"] = date
		case "time":
			switch t := raw.(type) {
			case nil:
				patch.Columns["time"] = nil
			case string:
				if t == "" {
					patch.Columns["time"] = nil
				} else if tooLong(t, maxTimeLen) {
					return patch, invalid(key, "time must be at most 8 characters (HH:MM)")
				} else if strings.TrimSpace(t) != "" {
					patch.Columns["time"] = t
				} else {
					return patch, invalid(key, "time must be a string (HH:MM) or null")
				}
			default:
				return patch, invalid(key, "time must be a string (HH:MM) or null")
			}
		case "priority":
			prio, err := parsePriority(raw)
			if err != nil {
				return patch, err
			}
			patch.Columns["priority"] = prio
		case "notes":
			notes, err := parseNotes(raw)
			if err != nil {
				return patch, err
			}
			if notes == nil {
				patch.Columns["notes"] = nil
			} else {
				patch.Columns["notes"] = *notes
			}
		case "done":
			done, err := ParseDone(raw)
			if err != nil {
				return patch, err
			}
			patch.Columns["done"] = done
		case "category", "category_id":
			if patch.Category != nil {
				continue
			}
			ref, err := parseCategoryRef(p)
			if err != nil {
				return patch, err
			}
			patch.Category = &ref
		}
	}
	return patch, nil
}

// ParseDone accepts 0, 1, "0", "1", true and false.
func ParseDone(v any) (bool, error) {
	switch d := v.(type) {
	case bool:
		return d, nil
	case float64:
		switch d {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	case string:
		switch d {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
	}
	return false, invalid("done", "done must be 0/1 or true/false")
}

// ParseCategoryDraft validates a category create or replace payload.
func ParseCategoryDraft(p Payload) (CategoryDraft, error) {
	var d CategoryDraft
	name, ok := nonEmptyString(p["name"])
	if !ok {
		return d, invalid("name", "name is required")
	}
	if tooLong(name, maxCategoryNameLen) {
		return d, invalid("name", "name must be at most 100 characters")
	}
	d.Name = name

	switch desc := p["description"].(type) {
	case nil:
	case string:
		d.Description = &desc
	default:
		return d, invalid("description", "description must be a string or null")
	}
	return d, nil
}

// parseCategoryRef reads category_id, falling back to category. A category_id
// that is numeric but cannot be a row id (fractional, zero, negative) resolves
// to id 0, which never matches.
func parseCategoryRef(p Payload) (CategoryRef, error) {
	var ref CategoryRef

	if raw := p["category_id"]; raw != nil && raw != "" {
		var n float64
		switch v := raw.(type) {
		case float64:
			n = v
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return ref, invalid("category_id", "category_id must be a number")
			}
			n = f
		default:
			return ref, invalid("category_id", "category_id must be a number")
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return ref, invalid("category_id", "category_id must be a number")
		}
		var id uint
		if n >= 1 && n <= math.MaxUint32 && n == math.Trunc(n) {
			id = uint(n)
		}
		ref.ID = &id
		return ref, nil
	}

	if name, ok := nonEmptyString(p["category"]); ok {
		if tooLong(name, maxCategoryNameLen) {
			return ref, invalid("category", "category must be at most 100 characters")
		}
		ref.Name = name
	}
	return ref, nil
}

func parsePriority(v any) (model.Priority, error) {
	s, _ := v.(string)
	prio := model.Priority(s)
	if !prio.Valid() {
		return "", invalid("priority", "priority must be Low, Medium, or High")
	}
	return prio, nil
}

// parseNotes maps null and "" to nil.
func parseNotes(v any) (*string, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case string:
		if n == "" {
			return nil, nil
		}
		return &n, nil
	default:
		return nil, invalid("notes", "notes must be a string or null")
	}
}

// nonEmptyString returns the trimmed string when v is a string with content.
func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// tooLong counts characters, as VARCHAR widths do.
func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

func isPatchField(key string) bool {
	for _, f := range patchFields {
		if f == key {
			return true
		}
	}
	return false
}
