package ictest

import (
	"encoding/binary"
	"regexp"
	"strconv"
	"strings"
)

// AnalogReading is the outcome of the NE555 timer test.
type AnalogReading struct {
	FrequencyHz  float64
	HasFrequency bool
	Passed       bool
	HasStatus    bool
	// Binary is true when the reading came from a fixed reply frame rather
	// than the device's text report.
	Binary bool
}

var (
	frequencyPattern = regexp.MustCompile(`([\d.]+)\s*Hz`)
	statusPattern    = regexp.MustCompile(`(?i)Status:\s*(PASS|FAIL)`)
)

// DecodeAnalog extracts the NE555 reading from a reply buffer. A fixed
// [55][freq hi][freq lo][status][FF] frame takes precedence; otherwise the
// text report ("<n> Hz", "Status: PASS|FAIL") is parsed. ErrNotFound is
// returned when neither is present.
func DecodeAnalog(buf []byte) (AnalogReading, error) {
	if f, err := ScanFixed(buf, AnalogShape.Fixed); err == nil {
		return AnalogReading{
			FrequencyHz:  float64(binary.BigEndian.Uint16(f.Payload[0:2])),
			HasFrequency: true,
			Passed:       f.Payload[2] == ResultPass,
			HasStatus:    true,
			Binary:       true,
		}, nil
	}

	text := string(buf)
	var r AnalogReading
	if m := frequencyPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			r.FrequencyHz = v
			r.HasFrequency = true
		}
	}
	if m := statusPattern.FindStringSubmatch(text); m != nil {
		r.HasStatus = true
		r.Passed = strings.EqualFold(m[1], "PASS")
	}
	if !r.HasFrequency && !r.HasStatus {
		return AnalogReading{}, ErrNotFound
	}
	return r, nil
}

// AnalogComplete reports whether a text report is fully received, i.e. the
// status line has arrived.
func AnalogComplete(buf []byte) bool {
	if _, err := ScanFixed(buf, AnalogShape.Fixed); err == nil {
		return true
	}
	return statusPattern.Match(buf)
}
