package clock

import (
	"time"

	"github.com/eel3/sntpsend/base/timebase"
)

type SystemClock struct{}

var _ timebase.LocalClock = (*SystemClock)(nil)

func (c *SystemClock) Now() time.Time {
	return time.Now().UTC()
}
