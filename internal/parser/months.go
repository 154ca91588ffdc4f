package parser

import (
	"strings"
	"time"
)

// Month names as they appear in dates ("27 października 2024"): genitive case.
var polishMonths = map[string]time.Month{
	"stycznia":     time.January,
	"lutego":       time.February,
	"marca":        time.March,
	"kwietnia":     time.April,
	"maja":         time.May,
	"czerwca":      time.June,
	"lipca":        time.July,
	"sierpnia":     time.August,
	"września":     time.September,
	"października": time.October,
	"listopada":    time.November,
	"grudnia":      time.December,
}

func lookupMonth(name string) (time.Month, bool) {
	m, ok := polishMonths[strings.ToLower(name)]
	return m, ok
}
