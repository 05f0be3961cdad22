package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ajo/internal/core"
)

const maxBodyBytes = 1 << 20

// badRequestError is a malformed request body or parameter that never reached
// domain validation.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
// and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is required")
		case errors.As(err, &maxErr):
			return badRequest("request body too large")
		default:
			return badRequest("invalid JSON body: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// amountField accepts an amount as a JSON number or a decimal string.
type amountField struct {
	raw string
	set bool
}

func (a *amountField) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	a.set = true
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	a.raw = s
	return nil
}

func (a amountField) money() (core.Money, error) {
	minor, err := core.ParseDecimalToMinor(a.raw)
	return core.Money{Minor: minor}, err
}

// dateField tells an absent date apart from an explicit null or empty string.
type dateField struct {
	raw string
	set bool
}

func (d *dateField) UnmarshalJSON(b []byte) error {
	d.set = true
	if strings.TrimSpace(string(b)) == "null" {
		return nil
	}
	return json.Unmarshal(b, &d.raw)
}

// parseDateField parses an optional YYYY-MM-DD value, recording failures on verr.
func parseDateField(verr *core.ValidationError, field, value string) *core.Date {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := core.ParseDate(value)
	if err != nil {
		verr.Add(field, "Date must be formatted as YYYY-MM-DD")
		return nil
	}
	return &d
}

// asOf reads the asOf query parameter, defaulting to today.
func (s *Server) asOf(r *http.Request) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get("asOf"))
	if v == "" {
		return s.groups.Today(), nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.FieldError("asOf", "Date must be formatted as YYYY-MM-DD")
	}
	return d, nil
}

// period reads the report period query parameter, defaulting to all cycles.
func period(r *http.Request) (core.ReportPeriod, error) {
	p, err := core.ParseReportPeriod(r.URL.Query().Get("period"))
	if err != nil {
		return "", core.FieldError("period", "Period must be one of all, last-6, last-3, current")
	}
	return p, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, core.FieldError(name, "Must be a whole number")
	}
	return n, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.FieldError(name, "Must be a whole number")
	}
	return n, nil
}

// sanitizeInput trims whitespace and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
