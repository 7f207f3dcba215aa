package timebase

import (
	"time"
)

type LocalClock interface {
	Now() time.Time
}
