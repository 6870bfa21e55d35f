package cache

import "time"

var timeNow = time.Now

// SetTimeNowFn swaps the clock, for tests that advance simulated time.
func SetTimeNowFn(f func() time.Time) {
	timeNow = f
}

func RestoreTimeNow() {
	timeNow = time.Now
}
