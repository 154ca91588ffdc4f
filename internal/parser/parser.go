// Package parser turns the provider's booking notification email into a
// ParsedCandidate. The body is read line by line by a small state machine;
// every state names the kind of line it expects next, so a failure reports
// exactly which line broke the grammar.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jwalitptl/salon-ingest/internal/model"
	apperrors "github.com/jwalitptl/salon-ingest/pkg/errors"
)

type lineKind int

const (
	expectClientName lineKind = iota
	expectPhone
	expectEmailOrSeparator
	expectSeparator
	expectServiceName
	expectPrice
	expectSchedule
	expectStaffMarker
	expectStaffName
	parsed
)

var lineKindNames = [...]string{
	expectClientName:       "client name",
	expectPhone:            "phone number",
	expectEmailOrSeparator: "email or blank separator",
	expectSeparator:        "blank separator",
	expectServiceName:      "service name",
	expectPrice:            "price",
	expectSchedule:         "date and time range",
	expectStaffMarker:      "\"" + staffMarker + "\" marker",
	expectStaffName:        "staff first name",
	parsed:                 "end of notification",
}

func (k lineKind) String() string {
	if int(k) < len(lineKindNames) {
		return lineKindNames[k]
	}
	return "unknown"
}

const staffMarker = "Pracownik:"

var (
	phonePattern    = regexp.MustCompile(`^\+?\d{9,15}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	pricePattern    = regexp.MustCompile(`^(\d{1,3}(?:[ \x{00A0}]\d{3})+|\d+),(\d{2})\s*zł$`)
	schedulePattern = regexp.MustCompile(`^(\d{1,2})\s+(\p{L}+)\s+(\d{4}),\s*(\d{1,2}:\d{2})\s*[-–—]\s*(\d{1,2}:\d{2})$`)
	phoneNoise      = strings.NewReplacer(" ", "", "\u00a0", "", "-", "")
	priceNoise      = strings.NewReplacer(" ", "", "\u00a0", "")
)

// Parse extracts a candidate from one notification. Any line that fails its
// pattern, or a body that ends early, yields MALFORMED_NOTIFICATION. The
// subject carries no booking data, so a blank one is accepted.
func Parse(subject, body string) (*model.ParsedCandidate, error) {
	m := &machine{state: expectClientName}
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	for i, raw := range lines {
		if m.state == parsed {
			// trailing footer
			break
		}
		if err := m.feed(i+1, strings.TrimSpace(raw)); err != nil {
			return nil, err
		}
	}
	if m.state != parsed {
		return nil, apperrors.MalformedNotification("unexpected end of notification: expected %s", m.state)
	}

	cand := m.cand
	return &cand, nil
}

type machine struct {
	state lineKind
	cand  model.ParsedCandidate
}

func (m *machine) feed(lineNo int, line string) error {
	if line == "" {
		switch m.state {
		case expectEmailOrSeparator, expectSeparator:
			m.state = expectServiceName
		}
		// blank lines carry no data anywhere else
		return nil
	}

	switch m.state {
	case expectClientName:
		m.cand.ClientName = line
		m.state = expectPhone

	case expectPhone:
		phone := phoneNoise.Replace(line)
		if !phonePattern.MatchString(phone) {
			return m.reject(lineNo, line)
		}
		m.cand.Phone = phone
		m.state = expectEmailOrSeparator

	case expectEmailOrSeparator:
		if emailPattern.MatchString(line) {
			m.cand.Email = line
			m.state = expectSeparator
			return nil
		}
		// No email: this line already opens the service block.
		m.cand.ServiceName = line
		m.state = expectPrice

	case expectSeparator:
		return m.reject(lineNo, line)

	case expectServiceName:
		m.cand.ServiceName = line
		m.state = expectPrice

	case expectPrice:
		cents, ok := parsePrice(line)
		if !ok {
			return m.reject(lineNo, line)
		}
		m.cand.PriceCents = cents
		m.state = expectSchedule

	case expectSchedule:
		date, start, end, ok := parseSchedule(line)
		if !ok {
			return m.reject(lineNo, line)
		}
		m.cand.Date, m.cand.StartTime, m.cand.EndTime = date, start, end
		m.state = expectStaffMarker

	case expectStaffMarker:
		if len(line) < len(staffMarker) || !strings.EqualFold(line[:len(staffMarker)], staffMarker) {
			return m.reject(lineNo, line)
		}
		// "Pracownik: Anna" on a single line is accepted too.
		if rest := strings.TrimSpace(line[len(staffMarker):]); rest != "" {
			m.cand.EmployeeFirstName = strings.Fields(rest)[0]
			m.state = parsed
			return nil
		}
		m.state = expectStaffName

	case expectStaffName:
		m.cand.EmployeeFirstName = strings.Fields(line)[0]
		m.state = parsed
	}
	return nil
}

func (m *machine) reject(lineNo int, line string) error {
	return apperrors.MalformedNotification("line %d: expected %s, got %q", lineNo, m.state, line)
}

// parsePrice converts "1 250,00 zł" to minor units.
func parsePrice(line string) (int64, bool) {
	match := pricePattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	whole, err := strconv.ParseInt(priceNoise.Replace(match[1]), 10, 64)
	if err != nil || whole > (1<<62)/100 {
		return 0, false
	}
	frac, _ := strconv.ParseInt(match[2], 10, 64)
	return whole*100 + frac, true
}

// parseSchedule reads "27 października 2024, 16:00 — 17:00".
func parseSchedule(line string) (time.Time, string, string, bool) {
	match := schedulePattern.FindStringSubmatch(line)
	if match == nil {
		return time.Time{}, "", "", false
	}
	month, ok := lookupMonth(match[2])
	if !ok {
		return time.Time{}, "", "", false
	}
	day, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[3])
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != month {
		return time.Time{}, "", "", false
	}

	start, ok := normalizeClock(match[4])
	if !ok {
		return time.Time{}, "", "", false
	}
	end, ok := normalizeClock(match[5])
	if !ok {
		return time.Time{}, "", "", false
	}
	return date, start, end, true
}

func normalizeClock(s string) (string, bool) {
	minutes, err := ClockMinutes(s)
	if err != nil {
		return "", false
	}
	return FormatClock(minutes), true
}
