// Package jalali normalizes scraped Persian date strings into absolute instants.
//
// Course pages print deadlines as "<day> <month-name>" in the Jalali calendar
// with no year, so the year has to be inferred from the current Jalali date:
// if the candidate date already passed, the deadline belongs to next year.
package jalali

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"

	"github.com/erfnzdeh/edusync/internal/errs"
)

// months maps Persian month names to their Jalali ordinal.
var months = map[string]ptime.Month{
	"فروردین":  ptime.Farvardin,
	"اردیبهشت": ptime.Ordibehesht,
	"خرداد":    ptime.Khordad,
	"تیر":      ptime.Tir,
	"مرداد":    ptime.Mordad,
	"شهریور":   ptime.Shahrivar,
	"مهر":      ptime.Mehr,
	"آبان":     ptime.Aban,
	"آذر":      ptime.Azar,
	"دی":       ptime.Dey,
	"بهمن":     ptime.Bahman,
	"اسفند":    ptime.Esfand,
}

// Tehran returns the fixed reference timezone for all normalized instants.
func Tehran() *time.Location { return ptime.Iran() }

// Normalize converts a scraped date string (e.g. "۲۵ اردیبهشت") into the
// deadline instant: 23:59:59 of that Jalali day in the Tehran timezone.
// Day digits may be Persian, Arabic-Indic, or Western. The Jalali year is
// inferred from now and rolled forward by one when the candidate date is
// already in the past relative to now.
func Normalize(raw string, now time.Time) (time.Time, error) {
	parts := strings.Fields(westernDigits(raw))
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("%w: %q", errs.ErrInvalidDateFormat, raw)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: bad day %q", errs.ErrInvalidDateFormat, parts[0])
	}

	month, ok := months[parts[1]]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", errs.ErrInvalidMonth, parts[1])
	}

	tz := Tehran()
	localNow := now.In(tz)
	year := ptime.New(localNow).Year()

	due, ok := endOfJalaliDay(year, month, day, tz)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: no day %d in %s", errs.ErrInvalidDateFormat, day, parts[1])
	}
	if due.Before(localNow) {
		// The day may not exist next year either: 30 Esfand only exists
		// in leap years.
		due, ok = endOfJalaliDay(year+1, month, day, tz)
		if !ok {
			return time.Time{}, fmt.Errorf("%w: no day %d in %s", errs.ErrInvalidDateFormat, day, parts[1])
		}
	}
	return due, nil
}

// endOfJalaliDay returns 23:59:59 of the given Jalali date, or false when
// the day does not exist in that month. ptime.Date silently normalizes an
// overflowing day into the next month, so the result is round-tripped.
func endOfJalaliDay(year int, month ptime.Month, day int, tz *time.Location) (time.Time, bool) {
	t := ptime.Date(year, month, day, 23, 59, 59, 0, tz)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t.Time(), true
}

// StartOfDay returns midnight of t's calendar day in the Tehran timezone.
func StartOfDay(t time.Time) time.Time {
	local := t.In(Tehran())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Tehran())
}

// westernDigits translates Persian and Arabic-Indic numerals to ASCII digits.
func westernDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '۰' && r <= '۹': // U+06F0..U+06F9
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩': // U+0660..U+0669
			return '0' + (r - '٠')
		}
		return r
	}, s)
}
