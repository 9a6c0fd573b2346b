// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtime provides simulated time durations and frequencies.
//
// The native time unit of simulation kernels is the picosecond.
//
package simtime

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Duration is an amount of simulated time in picoseconds.
//
type Duration int64

// Common durations.
//
const (
	Picosecond  Duration = 1
	Nanosecond           = 1000 * Picosecond
	Microsecond          = 1000 * Nanosecond
	Millisecond          = 1000 * Microsecond
	Second               = 1000 * Millisecond
)

var units = []struct {
	name string
	d    Duration
}{
	{"s", Second},
	{"ms", Millisecond},
	{"us", Microsecond},
	{"ns", Nanosecond},
	{"ps", Picosecond},
}

// String returns d in the largest unit that represents it exactly, e.g. "15ns".
//
func (d Duration) String() string {
	if d == 0 {
		return "0ps"
	}
	for _, u := range units {
		if d%u.d == 0 {
			return strconv.FormatInt(int64(d/u.d), 10) + u.name
		}
	}
	panic("unreachable")
}

// ParseDuration parses a duration string made of an integer and an optional
// unit suffix (ps, ns, us, ms, s). A number without unit is in picoseconds.
//
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	i := len(s)
	for i > 0 && (s[i-1] < '0' || s[i-1] > '9') {
		i--
	}
	num, unit := s[:i], strings.TrimSpace(s[i:])
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid duration %q", s)
	}
	if unit == "" {
		return Duration(n), nil
	}
	for _, u := range units {
		if u.name == unit {
			return Duration(n) * u.d, nil
		}
	}
	return 0, errors.Errorf("unknown unit %q in duration %q", unit, s)
}

// Period returns d. It makes Duration a Periodic.
//
func (d Duration) Period() Duration { return d }

// A Frequency in Hertz.
//
type Frequency float64

// Hz returns a frequency of f Hertz.
//
func Hz(f float64) Frequency { return Frequency(f) }

// KHz returns a frequency of f kilohertz.
//
func KHz(f float64) Frequency { return Frequency(f * 1e3) }

// MHz returns a frequency of f megahertz.
//
func MHz(f float64) Frequency { return Frequency(f * 1e6) }

// GHz returns a frequency of f gigahertz.
//
func GHz(f float64) Frequency { return Frequency(f * 1e9) }

// Period returns the period of f, rounded to the nearest picosecond. A zero
// or negative frequency has a zero period.
//
func (f Frequency) Period() Duration {
	if f <= 0 {
		return 0
	}
	return Duration(1e12/float64(f) + 0.5)
}

// Periodic is implemented by anything with a period: durations, frequencies
// and clock descriptors.
//
type Periodic interface {
	Period() Duration
}
