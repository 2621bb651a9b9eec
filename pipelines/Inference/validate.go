package inference

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Request carries the raw form fields of one prediction request. All
// values arrive as strings; validation parses and range-checks them.
type Request struct {
	Location     string
	Date         string
	MinTemp      string
	MaxTemp      string
	Humidity3pm  string
	WindSpeed3pm string
	Rainfall     string // optional; empty means no rain recorded today
}

// Range is a closed numeric interval a field must fall in
type Range struct {
	Min float64
	Max float64
}

// Ranges documents the accepted interval per numeric field. The serving
// form and the validator share this table.
var Ranges = map[string]Range{
	"MinTemp":      {Min: -10, Max: 45},
	"MaxTemp":      {Min: -10, Max: 50},
	"Rainfall":     {Min: 0, Max: 200},
	"WindSpeed3pm": {Min: 0, Max: 100},
	"Humidity3pm":  {Min: 0, Max: 100},
}

const dateLayout = "2006-01-02"

// FieldError describes one invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of validating a request. Expected bad
// input is not an error condition: handlers branch on Valid() instead of
// unwrapping error values.
type ValidationResult struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// Valid reports whether the request passed validation
func (vr *ValidationResult) Valid() bool {
	return len(vr.Errors) == 0
}

// Message renders the field errors as a single user-facing line
func (vr *ValidationResult) Message() string {
	if vr.Valid() {
		return ""
	}
	parts := make([]string, len(vr.Errors))
	for i, fe := range vr.Errors {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return strings.Join(parts, "; ")
}

func (vr *ValidationResult) add(field, message string) {
	vr.Errors = append(vr.Errors, FieldError{Field: field, Message: message})
}

// Input is a validated, typed request ready for feature derivation
type Input struct {
	Location     string
	Date         time.Time
	MinTemp      float64
	MaxTemp      float64
	Humidity3pm  float64 // whole percent
	WindSpeed3pm float64 // whole km/h
	Rainfall     float64 // mm
}

// Validate parses and range-checks a raw request. knownLocation reports
// whether a location is part of the trained category mapping; a location
// outside it has no defined code, so it is rejected here rather than
// failing deep in encoding.
func Validate(req Request, knownLocation func(string) bool) (Input, ValidationResult) {
	var input Input
	var result ValidationResult

	if req.Location == "" {
		result.add("Location", "value is required")
	} else if !knownLocation(req.Location) {
		result.add("Location", fmt.Sprintf("unknown location %q", req.Location))
	} else {
		input.Location = req.Location
	}

	if req.Date == "" {
		result.add("Date", "value is required")
	} else if parsed, err := time.Parse(dateLayout, req.Date); err != nil {
		result.add("Date", "invalid format (expected YYYY-MM-DD)")
	} else {
		input.Date = parsed
	}

	input.MinTemp = parseInRange("MinTemp", req.MinTemp, true, &result)
	input.MaxTemp = parseInRange("MaxTemp", req.MaxTemp, true, &result)
	input.Humidity3pm = math.Round(parseInRange("Humidity3pm", req.Humidity3pm, true, &result))
	input.WindSpeed3pm = math.Round(parseInRange("WindSpeed3pm", req.WindSpeed3pm, true, &result))

	// Rainfall is the one optional numeric field
	if req.Rainfall == "" {
		input.Rainfall = 0
	} else {
		input.Rainfall = parseInRange("Rainfall", req.Rainfall, false, &result)
	}

	if result.Valid() && input.MinTemp > input.MaxTemp {
		result.add("MinTemp", fmt.Sprintf("%g exceeds MaxTemp %g", input.MinTemp, input.MaxTemp))
	}

	return input, result
}

// parseInRange parses one numeric field and checks it against Ranges
func parseInRange(field, raw string, required bool, result *ValidationResult) float64 {
	if raw == "" {
		if required {
			result.add(field, "value is required")
		}
		return 0
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		result.add(field, "value must be numeric")
		return 0
	}
	r := Ranges[field]
	if val < r.Min || val > r.Max {
		result.add(field, fmt.Sprintf("%g out of range [%g, %g]", val, r.Min, r.Max))
		return 0
	}
	return val
}
