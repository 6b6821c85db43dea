package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stemsi/student-dashboard/internal/model"
)

// fieldAliases lists every wire spelling accepted for a record field.
var fieldAliases = map[string][]string{
	"id":                  {"id", "_id"},
	"name":                {"name"},
	"registration_number": {"registration_number", "registrationNumber"},
	"department":          {"department"},
	"blood_group":         {"blood_group", "bloodGroup"},
	"year":                {"year"},
	"average_marks":       {"average_marks", "averageMarks"},
	"created_at":          {"created_at", "createdAt"},
}

// Normalize turns one wire object into a record. Both snake_case and
// camelCase keys are accepted; numbers may arrive as JSON numbers or as
// numeric strings. Missing text fields stay empty.
func Normalize(raw map[string]json.RawMessage) (model.Student, error) {
	var s model.Student
	var err error

	if s.ID, err = textField(raw, "id"); err != nil {
		return s, err
	}
	if s.Name, err = textField(raw, "name"); err != nil {
		return s, err
	}
	if s.RegistrationNumber, err = textField(raw, "registration_number"); err != nil {
		return s, err
	}
	if s.Department, err = textField(raw, "department"); err != nil {
		return s, err
	}
	if s.BloodGroup, err = textField(raw, "blood_group"); err != nil {
		return s, err
	}

	year, err := numberField(raw, "year")
	if err != nil {
		return s, err
	}
	s.Year = int(year)

	if s.AverageMarks, err = numberField(raw, "average_marks"); err != nil {
		return s, err
	}

	created, err := textField(raw, "created_at")
	if err != nil {
		return s, err
	}
	if created != "" {
		if s.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return s, fmt.Errorf("created_at: %w", err)
		}
	}
	return s, nil
}

// NormalizeList decodes a JSON array of wire objects.
func NormalizeList(data []byte) ([]model.Student, error) {
	var raws []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode student list: %w", err)
	}
	out := make([]model.Student, 0, len(raws))
	for i, raw := range raws {
		s, err := Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("student %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func lookup(raw map[string]json.RawMessage, field string) (json.RawMessage, bool) {
	for _, key := range fieldAliases[field] {
		if v, ok := raw[key]; ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || string(bytes.TrimSpace(v)) == "null"
}

func textField(raw map[string]json.RawMessage, field string) (string, error) {
	v, ok := lookup(raw, field)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	// Numeric ids are kept as their literal text.
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("%s: expected text, got %s", field, string(v))
}

func numberField(raw map[string]json.RawMessage, field string) (float64, error) {
	v, ok := lookup(raw, field)
	if !ok {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, fmt.Errorf("%s: expected number, got %s", field, string(v))
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return f, nil
}
