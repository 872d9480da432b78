// Package metadata extracts and validates the structured block that drivers
// embed in their video descriptions.
//
// A description carries at most one block of interest, delimited by a pair of
// "===" markers:
//
//	===
//	track: Buttonwillow
//	configuration: CW13
//	date: 06/03/2025
//	car: Hyperion
//	tag: v3
//	time: 1:12.123
//	driver: jonathan.lo@teamspiralracing.com
//	===
package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// delimiter opens and closes the metadata block inside a video description.
const delimiter = "==="

// dateLayout is the calendar format drivers use in the block (MM/DD/YYYY).
const dateLayout = "01/02/2006"

// proofURLFormat builds the canonical watch URL that keys a track time record.
const proofURLFormat = "https://www.youtube.com/watch?v=%s"

// Extract returns the key/value pairs of the first delimited block in text.
// Lines without a colon are ignored; keys and values are trimmed. When a key
// repeats, the last occurrence wins. A missing block yields an empty map, not
// an error: callers treat that as "nothing to ingest".
func Extract(text string) map[string]string {
	meta := map[string]string{}

	start := strings.Index(text, delimiter)
	if start < 0 {
		return meta
	}
	rest := text[start+len(delimiter):]
	end := strings.Index(rest, delimiter)
	if end < 0 {
		return meta
	}

	for _, line := range strings.Split(rest[:end], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return meta
}

// ParseLapTime converts a lap time string into seconds. Both "M:SS.fff" and
// bare "SS.fff" forms are accepted.
func ParseLapTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if minutes, seconds, ok := strings.Cut(s, ":"); ok {
		m, err := strconv.Atoi(strings.TrimSpace(minutes))
		if err != nil {
			return 0, fmt.Errorf("parse lap time %q: bad minutes: %w", s, err)
		}
		sec, err := strconv.ParseFloat(strings.TrimSpace(seconds), 64)
		if err != nil {
			return 0, fmt.Errorf("parse lap time %q: bad seconds: %w", s, err)
		}
		return float64(m)*60 + sec, nil
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse lap time %q: %w", s, err)
	}
	return sec, nil
}

// Submission is a fully validated lap time submission, ready to be stored.
type Submission struct {
	Track         string
	Configuration string
	Date          time.Time
	Car           string
	Tag           string
	Seconds       float64
	Proof         string
	DriverEmail   string
}

// FieldError reports which metadata field failed validation. Callers use it
// to skip a single submission without aborting the rest of a batch.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("metadata field %q: %s", e.Field, e.Reason)
}

// ParseSubmission validates a raw metadata map into a Submission. It returns
// a *FieldError naming the first failing field; either the whole submission
// is valid or nothing is stored.
//
// Required fields: track, date, car, time, driver. Optional: configuration,
// tag. The proof URL is derived from videoID and uniquely keys the record.
func ParseSubmission(meta map[string]string, videoID string) (Submission, error) {
	for _, field := range []string{"track", "date", "car", "time", "driver"} {
		if strings.TrimSpace(meta[field]) == "" {
			return Submission{}, &FieldError{Field: field, Reason: "required field missing"}
		}
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(meta["date"]))
	if err != nil {
		return Submission{}, &FieldError{Field: "date", Reason: fmt.Sprintf("want MM/DD/YYYY, got %q", meta["date"])}
	}

	seconds, err := ParseLapTime(meta["time"])
	if err != nil {
		return Submission{}, &FieldError{Field: "time", Reason: err.Error()}
	}
	if seconds < 0 {
		return Submission{}, &FieldError{Field: "time", Reason: "lap time must not be negative"}
	}

	track := strings.ToLower(strings.TrimSpace(meta["track"]))
	track = strings.ReplaceAll(track, " ", "-")

	return Submission{
		Track:         track,
		Configuration: strings.TrimSpace(meta["configuration"]),
		Date:          date,
		Car:           strings.TrimSpace(meta["car"]),
		Tag:           strings.TrimSpace(meta["tag"]),
		Seconds:       seconds,
		Proof:         fmt.Sprintf(proofURLFormat, videoID),
		DriverEmail:   strings.ToLower(strings.TrimSpace(meta["driver"])),
	}, nil
}
