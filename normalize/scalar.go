package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/units"

	"github.com/eugenenazirov/castenv/value"
)

var (
	nullWords  = map[string]struct{}{"null": {}, "none": {}, "nil": {}, "undefined": {}}
	trueWords  = map[string]struct{}{"true": {}, "yes": {}, "y": {}, "on": {}, "1": {}}
	falseWords = map[string]struct{}{"false": {}, "no": {}, "n": {}, "off": {}, "0": {}}
)

var (
	decimalInt   = regexp.MustCompile(`^[+-]?\d+$`)
	decimalFloat = regexp.MustCompile(`^[+-]?(?:\d+\.\d*|\.\d+|\d+)(?:[eE][+-]?\d+)?$`)
	durationText = regexp.MustCompile(`^(?:\d+(?:\.\d+)?(?:ns|us|µs|μs|ms|s|m|h|d|w))+$`)
	durationPart = regexp.MustCompile(`(\d+(?:\.\d+)?)(ns|us|µs|μs|ms|s|m|h|d|w)`)
	byteSizeText = regexp.MustCompile(`^([+-]?\d+(?:\.\d+)?)\s*([A-Za-z]+)$`)
)

// siUnits are matched case-sensitively; everything else is binary.
var siUnits = map[string]int64{
	"KB": int64(units.KB),
	"MB": int64(units.MB),
	"GB": int64(units.GB),
	"TB": int64(units.TB),
}

var binaryUnits = map[string]int64{
	"b":   1,
	"k":   int64(units.KiB),
	"kb":  int64(units.KiB),
	"kib": int64(units.KiB),
	"m":   int64(units.MiB),
	"mb":  int64(units.MiB),
	"mib": int64(units.MiB),
	"g":   int64(units.GiB),
	"gb":  int64(units.GiB),
	"gib": int64(units.GiB),
	"t":   int64(units.TiB),
	"tb":  int64(units.TiB),
	"tib": int64(units.TiB),
}

func isNullWord(lower string) bool {
	_, ok := nullWords[lower]
	return ok
}

func parseBool(lower string) (bool, bool) {
	if _, ok := trueWords[lower]; ok {
		return true, true
	}
	if _, ok := falseWords[lower]; ok {
		return false, true
	}
	return false, false
}

// parseNumber accepts prefixed integers (0x, 0b, 0o), decimal integers and
// decimal or scientific floats. Decimal integers that overflow int64 become floats.
func parseNumber(s string) (value.Value, bool) {
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
		if base != 0 {
			digits := s[2:]
			if digits[0] == '+' || digits[0] == '-' || digits[0] == '_' {
				return value.None(), false
			}
			n, err := strconv.ParseInt(digits, base, 64)
			if err != nil {
				return value.None(), false
			}
			return value.Int(n), true
		}
	}
	if decimalInt.MatchString(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return value.Int(n), true
		}
	}
	if decimalFloat.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return value.Float(f), true
		}
	}
	return value.None(), false
}

// Sub-second units divide so that "1.5ns" is the float nearest 1.5e-9.
var (
	durationDivisors = map[string]float64{"ns": 1e9, "us": 1e6, "µs": 1e6, "μs": 1e6, "ms": 1e3}
	durationFactors  = map[string]float64{"s": 1, "m": 60, "h": 3600, "d": 86400, "w": 604800}
)

// parseDuration returns the duration in seconds for strings such as "1h30m"
// or "1.5d". The sum is kept in float seconds, so it is neither truncated to
// nanoseconds nor bounded by time.Duration.
func parseDuration(s string) (float64, bool) {
	if !durationText.MatchString(s) {
		return 0, false
	}
	var total float64
	for _, m := range durationPart.FindAllStringSubmatch(s, -1) {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		if div, ok := durationDivisors[m[2]]; ok {
			total += n / div
			continue
		}
		total += n * durationFactors[m[2]]
	}
	return total, true
}

// parseByteSize returns the byte count for strings such as "10KB" or "1.5 GiB".
func parseByteSize(s string) (int64, bool) {
	m := byteSizeText.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	factor, ok := siUnits[m[2]]
	if !ok {
		factor, ok = binaryUnits[strings.ToLower(m[2])]
	}
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	bytes := n * float64(factor)
	if bytes >= math.MaxInt64 || bytes <= math.MinInt64 {
		return 0, false
	}
	return int64(bytes), true
}

// parsePercent returns the number before a trailing "%".
func parsePercent(s string) (float64, bool) {
	num, ok := strings.CutSuffix(s, "%")
	if !ok {
		return 0, false
	}
	v, ok := parseNumber(strings.TrimSpace(num))
	if !ok {
		return 0, false
	}
	if i, isInt := v.AsInt(); isInt {
		return float64(i), true
	}
	f, _ := v.AsFloat()
	return f, true
}

// ParseBool reports whether s is one of the recognised boolean words.
func ParseBool(s string) (b, ok bool) {
	return parseBool(strings.ToLower(strings.TrimSpace(s)))
}
