package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CalvesAtFoot is the structured form of the legacy free-text record
// "Calves at Foot: <head> head, <age> months[, <weight> kg]" embedded in a
// herd's notes. It is an interim interchange shape: the lifecycle manager
// converts it into first-class offspring records and strips the substring.
type CalvesAtFoot struct {
	Head        int
	AgeMonths   float64
	AvgWeightKg float64
	HasWeight   bool
}

var (
	calvesMarkerRe = regexp.MustCompile(`(?i)calves\s+at\s+foot\s*:`)
	calvesNoteRe   = regexp.MustCompile(`(?i)calves\s+at\s+foot\s*:\s*(\d+)\s*head\s*,\s*(\d+(?:\.\d+)?)\s*months?(?:\s*,\s*(\d+(?:\.\d+)?)\s*kg)?`)
)

// ParseCalvesAtFoot scans a notes field for the legacy calves-at-foot
// substring. It returns (nil, nil) when no marker is present, the parsed
// record when the substring is well formed, and an error wrapping
// ErrMalformedNote when the marker exists but the record is unparsable.
func ParseCalvesAtFoot(notes string) (*CalvesAtFoot, error) {
	if !calvesMarkerRe.MatchString(notes) {
		return nil, nil
	}

	match := calvesNoteRe.FindStringSubmatch(notes)
	if match == nil {
		return nil, fmt.Errorf("unparsable calves-at-foot record in notes: %w", ErrMalformedNote)
	}

	head, err := strconv.Atoi(match[1])
	if err != nil || head < 1 {
		return nil, fmt.Errorf("calves-at-foot head count %q: %w", match[1], ErrMalformedNote)
	}

	age, err := strconv.ParseFloat(match[2], 64)
	if err != nil || age <= 0 {
		return nil, fmt.Errorf("calves-at-foot age %q: %w", match[2], ErrMalformedNote)
	}

	record := &CalvesAtFoot{Head: head, AgeMonths: age}
	if match[3] != "" {
		weight, err := strconv.ParseFloat(match[3], 64)
		if err != nil || weight <= 0 {
			return nil, fmt.Errorf("calves-at-foot weight %q: %w", match[3], ErrMalformedNote)
		}
		record.AvgWeightKg = weight
		record.HasWeight = true
	}

	return record, nil
}

// StripCalvesAtFoot removes the calves-at-foot substring from a notes field,
// leaving any other free text intact. Stripping an already-stripped note is
// a no-op, which is what makes the conversion pass idempotent.
func StripCalvesAtFoot(notes string) string {
	stripped := calvesNoteRe.ReplaceAllString(notes, "")
	stripped = strings.ReplaceAll(stripped, "  ", " ")
	return strings.TrimSpace(strings.Trim(stripped, " ,;\n\t"))
}
