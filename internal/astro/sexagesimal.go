package astro

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"
)

// ErrBadSexagesimal is returned when a coordinate string cannot be parsed.
var ErrBadSexagesimal = errors.New("malformed sexagesimal coordinate")

// ParseRA parses a right ascension given either as sexagesimal hours
// ("05:35:17.3", "5 35 17.3") or as decimal degrees ("83.82"). Returns
// degrees in 0-360.
func ParseRA(s string) (float64, error) {
	fields, neg, err := splitSexagesimal(s)
	if err != nil {
		return 0, err
	}
	if neg {
		return 0, fmt.Errorf("%w: negative right ascension %q", ErrBadSexagesimal, s)
	}
	if len(fields) == 1 {
		deg, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadSexagesimal, s)
		}
		if deg < 0 || deg >= 360 {
			return 0, fmt.Errorf("%w: right ascension %v out of range", ErrBadSexagesimal, deg)
		}
		return deg, nil
	}

	h, m, sec, err := hms(fields)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadSexagesimal, s)
	}
	if h >= 24 {
		return 0, fmt.Errorf("%w: right ascension hour %d out of range", ErrBadSexagesimal, h)
	}
	ra := unit.NewRA(h, m, sec)
	return normalizeAngle360(unit.Angle(ra).Deg()), nil
}

// ParseDec parses a declination given as sexagesimal degrees ("-05:23:28",
// "+41 16 09") or as decimal degrees. Returns degrees in -90..+90.
func ParseDec(s string) (float64, error) {
	fields, neg, err := splitSexagesimal(s)
	if err != nil {
		return 0, err
	}

	var deg float64
	if len(fields) == 1 {
		deg, err = strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadSexagesimal, s)
		}
		if neg {
			deg = -deg
		}
	} else {
		d, m, sec, err := hms(fields)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadSexagesimal, s)
		}
		sign := byte('+')
		if neg {
			sign = '-'
		}
		deg = unit.NewAngle(sign, d, m, sec).Deg()
	}

	if deg < -90 || deg > 90 {
		return 0, fmt.Errorf("%w: declination %v out of range", ErrBadSexagesimal, deg)
	}
	return deg, nil
}

// FormatRA renders a right ascension in degrees as sexagesimal hours.
func FormatRA(raDeg float64) string {
	return fmt.Sprintf("%.1s", sexa.FmtRA(unit.RAFromDeg(raDeg)))
}

// FormatDec renders a declination in degrees as sexagesimal degrees.
func FormatDec(decDeg float64) string {
	return fmt.Sprintf("%.0s", sexa.FmtAngle(unit.AngleFromDeg(decDeg)))
}

// splitSexagesimal strips a leading sign and splits on colons or spaces.
func splitSexagesimal(s string) ([]string, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false, fmt.Errorf("%w: empty value", ErrBadSexagesimal)
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ':' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 || len(fields) > 3 {
		return nil, false, fmt.Errorf("%w: %q", ErrBadSexagesimal, s)
	}
	return fields, neg, nil
}

// hms parses two or three sexagesimal fields; a missing seconds field is zero.
func hms(fields []string) (int, int, float64, error) {
	a, err := strconv.Atoi(fields[0])
	if err != nil || a < 0 {
		return 0, 0, 0, ErrBadSexagesimal
	}
	b, err := strconv.Atoi(fields[1])
	if err != nil || b < 0 || b >= 60 {
		return 0, 0, 0, ErrBadSexagesimal
	}
	var c float64
	if len(fields) == 3 {
		c, err = strconv.ParseFloat(fields[2], 64)
		if err != nil || c < 0 || c >= 60 {
			return 0, 0, 0, ErrBadSexagesimal
		}
	}
	return a, b, c, nil
}
