package util

import "strconv"

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParseDays parses a ?days= query value, clamping to [1, maxDays] and
// falling back to defaultValue on garbage.
func ParseDays(s string, defaultValue, maxDays int) int {
	days := ParseInt(s, defaultValue)
	if days < 1 {
		return defaultValue
	}
	if days > maxDays {
		return maxDays
	}
	return days
}
