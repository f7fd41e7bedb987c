package utils

import "time"

// DateOnly обнуляет время суток, сравниваем только календарные даты.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsPastDate: сегодня — можно, строго раньше сегодняшнего дня — нельзя.
func IsPastDate(t time.Time, now time.Time) bool {
	return DateOnly(t).Before(DateOnly(now))
}
