package fatinspect

import (
	"time"
)

// ParseDate decodes a FAT date stamp:
//  Bits 0–4: day of month, 1–31
//  Bits 5–8: month of year, 1–12
//  Bits 9–15: years since 1980, 0–127
// The result is always at 00:00:00 UTC.
//
// A day or month of 0 is invalid, time.Time{} is returned in that case so that
// time.Time.IsZero() can be used. A month above 12 rolls over into the next year.
func ParseDate(input uint16) time.Time {
	dayOfMonth := input & 0x1F
	monthOfYear := input & 0x1E0 >> 5
	yearSince1980 := input & 0xFE00 >> 9

	if dayOfMonth == 0 || monthOfYear == 0 {
		return time.Time{}
	}

	return time.Date(1980+int(yearSince1980), time.Month(monthOfYear), int(dayOfMonth), 0, 0, 0, 0, time.UTC)
}

// ParseTime decodes a FAT time stamp with a granularity of 2 seconds:
//  Bits 0–4: 2-second count, 0–29
//  Bits 5–10: minutes, 0–59
//  Bits 11–15: hours, 0–23
// The result is always on January 1, year 1.
// Out of range values are capped at 23:59:59.
func ParseTime(input uint16) time.Time {
	seconds := int(input&0x1F) * 2
	minutes := input & 0x7E0 >> 5
	hours := input & 0xF800 >> 11

	result := time.Date(1, 1, 1, int(hours), int(minutes), seconds, 0, time.UTC)

	if result.Day() > 1 {
		return time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)
	}

	return result
}

// timestamp combines a FAT date and time. An invalid date results in time.Time{}.
func timestamp(date, clock uint16) time.Time {
	d := ParseDate(date)
	if d.IsZero() {
		return time.Time{}
	}

	t := ParseTime(clock)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
