package presence

import (
	"strconv"
	"strings"
)

const (
	secondsPerDay    = 86400
	secondsPerHour   = 3600
	secondsPerMinute = 60
)

// ParseDeclaration splits an AFK declaration into a declared duration
// and a free-text reason. The grammar is an optional leading run of
// (integer, unit) tokens with units d, h, m, each appearing at most
// once and in that order, written with no separator ("1d2h30m").
// The first token that breaks the grammar (unknown unit, duplicate,
// out of order) terminates it: that token and everything after it
// becomes the reason. No tokens at all means duration 0 and the whole
// input as reason.
func ParseDeclaration(input string) (int64, string) {
	trimmed := strings.TrimSpace(input)
	var total int64
	pos := 0
	lastRank := -1
	for pos < len(trimmed) {
		digitsStart := pos
		for pos < len(trimmed) && trimmed[pos] >= '0' && trimmed[pos] <= '9' {
			pos++
		}
		if pos == digitsStart || pos == len(trimmed) {
			pos = digitsStart
			break
		}
		rank, multiplier, ok := unitOf(trimmed[pos])
		if !ok || rank <= lastRank {
			pos = digitsStart
			break
		}
		value, err := strconv.ParseInt(trimmed[digitsStart:pos], 10, 64)
		if err != nil {
			pos = digitsStart
			break
		}
		total += value * multiplier
		lastRank = rank
		pos++
	}
	return total, strings.TrimSpace(trimmed[pos:])
}

func unitOf(c byte) (rank int, multiplier int64, ok bool) {
	switch c {
	case 'd':
		return 0, secondsPerDay, true
	case 'h':
		return 1, secondsPerHour, true
	case 'm':
		return 2, secondsPerMinute, true
	default:
		return 0, 0, false
	}
}

// FormatDuration renders seconds as space-joined day/hour/minute parts
// by successive integer division, omitting zero units and pluralizing.
// Anything under a minute renders as "few seconds".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	days := seconds / secondsPerDay
	hours := (seconds % secondsPerDay) / secondsPerHour
	minutes := (seconds % secondsPerHour) / secondsPerMinute

	var parts []string
	for _, unit := range []struct {
		count int64
		name  string
	}{
		{days, "day"},
		{hours, "hour"},
		{minutes, "minute"},
	} {
		if unit.count == 0 {
			continue
		}
		label := unit.name
		if unit.count > 1 {
			label += "s"
		}
		parts = append(parts, strconv.FormatInt(unit.count, 10)+" "+label)
	}
	if len(parts) == 0 {
		return "few seconds"
	}
	return strings.Join(parts, " ")
}
