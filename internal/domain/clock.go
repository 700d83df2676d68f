package domain

import "time"

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// SystemClock returns the wall clock used outside of tests.
func SystemClock() Clock {
	return systemClock{}
}
