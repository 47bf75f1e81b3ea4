package tk

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Offset is a UTC offset in minutes east of Greenwich, as stored in .tk2 and
// .tk3 headers.
type Offset int

// MaxOffset bounds offsets to +/-23:59.
const MaxOffset Offset = 23*60 + 59

func (o Offset) Valid() bool { return o >= -MaxOffset && o <= MaxOffset }

// String renders the offset as +hh:mm.
func (o Offset) String() string {
	sign := '+'
	m := int(o)
	if m < 0 {
		sign = '-'
		m = -m
	}
	return fmt.Sprintf("%c%02d:%02d", sign, m/60, m%60)
}

// Location returns a fixed time zone for display purposes.
func (o Offset) Location() *time.Location {
	return time.FixedZone(o.String(), int(o)*60)
}

// ParseOffset accepts "+hh:mm", "-hh:mm", "+hhmm" and "Z".
func ParseOffset(s string) (Offset, error) {
	s = strings.TrimSpace(s)
	if s == "Z" || s == "z" {
		return 0, nil
	}
	if len(s) < 2 || (s[0] != '+' && s[0] != '-') {
		return 0, fmt.Errorf("timezone %q doesn't match pattern +hh:mm", s)
	}
	body := strings.Replace(s[1:], ":", "", 1)
	if len(body) != 4 {
		return 0, fmt.Errorf("timezone %q doesn't match pattern +hh:mm", s)
	}
	hh, err1 := strconv.Atoi(body[:2])
	mm, err2 := strconv.Atoi(body[2:])
	if err1 != nil || err2 != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("timezone %q doesn't match pattern +hh:mm", s)
	}
	o := Offset(hh*60 + mm)
	if s[0] == '-' {
		o = -o
	}
	return o, nil
}
