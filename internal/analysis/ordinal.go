package analysis

import "time"

// unixEpochOrdinal is the proleptic-Gregorian day number of 1970-01-01,
// counting 0001-01-01 as day 1. Working in ordinals keeps date averaging a
// plain integer mean.
const unixEpochOrdinal = 719163

func dateOrdinal(t time.Time) int {
	return int(floorDiv(t.Unix(), 86400)) + unixEpochOrdinal
}

func dateFromOrdinal(ordinal int) time.Time {
	return time.Unix(int64(ordinal-unixEpochOrdinal)*86400, 0).UTC()
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
