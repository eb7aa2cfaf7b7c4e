package visibility

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidSemester is returned by ParseSemester.
var ErrInvalidSemester = errors.New("invalid semester")

var semesterPattern = regexp.MustCompile(`^[12][0-9]{3}[AB]$`)

// Semester is a half-year observing period: A runs February through July,
// B runs August through the following January.
type Semester struct {
	Year int
	Half byte // 'A' or 'B'
}

// ParseSemester parses identifiers such as "2024A".
func ParseSemester(s string) (Semester, error) {
	if !semesterPattern.MatchString(s) {
		return Semester{}, fmt.Errorf("%w: %q", ErrInvalidSemester, s)
	}
	year, _ := strconv.Atoi(s[:4])
	return Semester{Year: year, Half: s[4]}, nil
}

// SemesterOf returns the semester containing t.
func SemesterOf(t time.Time) Semester {
	switch m := t.Month(); {
	case m == time.January:
		return Semester{Year: t.Year() - 1, Half: 'B'}
	case m <= time.July:
		return Semester{Year: t.Year(), Half: 'A'}
	default:
		return Semester{Year: t.Year(), Half: 'B'}
	}
}

func (s Semester) String() string {
	return fmt.Sprintf("%04d%c", s.Year, s.Half)
}

// Start is the first night of the semester.
func (s Semester) Start() time.Time {
	if s.Half == 'B' {
		return time.Date(s.Year, time.August, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(s.Year, time.February, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last night of the semester, inclusive.
func (s Semester) End() time.Time {
	if s.Half == 'B' {
		return time.Date(s.Year+1, time.January, 31, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(s.Year, time.July, 31, 0, 0, 0, 0, time.UTC)
}

// Dates returns one date per night, Start through End inclusive.
func (s Semester) Dates() []time.Time {
	var dates []time.Time
	end := s.End()
	for d := s.Start(); !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
