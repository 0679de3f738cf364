package entity

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var onValues = map[string]struct{}{
	"charging": {}, "connected": {}, "detected": {}, "enabled": {}, "home": {},
	"hot": {}, "light": {}, "locked": {}, "locking": {}, "motion": {},
	"moving": {}, "occupied": {}, "on": {}, "open": {}, "plugged": {},
	"power": {}, "problem": {}, "running": {}, "smoke": {}, "sound": {},
	"tampering": {}, "true": {}, "unsafe": {}, "update available": {},
	"vibration": {}, "wet": {}, "yes": {},
}

var offValues = map[string]struct{}{
	"away": {}, "clear": {}, "closed": {}, "disabled": {}, "disconnected": {},
	"dry": {}, "false": {}, "no": {}, "no light": {}, "no motion": {},
	"no power": {}, "no problem": {}, "no smoke": {}, "no sound": {},
	"no tampering": {}, "no vibration": {}, "normal": {}, "not charging": {},
	"not occupied": {}, "not running": {}, "off": {}, "safe": {},
	"stopped": {}, "unlocked": {}, "unlocking": {}, "unplugged": {},
	"up-to-date": {},
}

var whitespace = regexp.MustCompile(`\s+`)

// StringToBoolean interprets appliance state strings such as "LOCKED" or
// "not_running" as booleans. Unrecognised input yields the original string
// when fallback is set, otherwise false.
func StringToBoolean(value string, fallback bool) any {
	normalized := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(value, "_", " ")))
	normalized = whitespace.ReplaceAllString(normalized, " ")

	if _, ok := onValues[normalized]; ok {
		return true
	}
	if _, ok := offValues[normalized]; ok {
		return false
	}
	if fallback {
		return value
	}
	return false
}

// SecondsToMinutes converts a duration in seconds to whole minutes, rounding
// up. -1 means "not set" and passes through.
func SecondsToMinutes(seconds float64) float64 {
	if seconds == -1 {
		return -1
	}
	return math.Ceil(math.Trunc(seconds) / 60)
}

// MinutesToSeconds converts whole minutes to seconds. -1 passes through.
func MinutesToSeconds(minutes float64) float64 {
	if minutes == -1 {
		return -1
	}
	return math.Trunc(minutes) * 60
}

// Title upper-cases the first letter of every word and lower-cases the rest.
// Any non-letter starts a new word, so "0 RPM" becomes "0 Rpm".
func Title(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// ToFloat converts JSON numbers and numeric strings to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// ToBool converts command input to a boolean.
func ToBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		if parsed, ok := StringToBoolean(b, false).(bool); ok {
			if parsed || isOffWord(b) {
				return parsed, nil
			}
		}
	case float64:
		return b != 0, nil
	case int:
		return b != 0, nil
	}
	return false, fmt.Errorf("%w: %v is not a boolean", ErrInvalidValue, v)
}

func isOffWord(s string) bool {
	_, ok := offValues[strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "_", " ")))]
	return ok
}

// truthy reports whether v counts as set: nil, false, zero, "" and empty
// collections do not.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case map[string]any:
		return len(val) > 0
	case []any:
		return len(val) > 0
	}
	if f, ok := ToFloat(v); ok {
		return f != 0
	}
	return true
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
