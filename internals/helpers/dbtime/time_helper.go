package dbtime

import (
	"log"
	"sync"
	"time"

	"hoa_backend/internals/configs"
)

// DefaultTimezone is where billing periods are counted.
const DefaultTimezone = "Asia/Manila"

var (
	locOnce sync.Once
	loc     *time.Location
)

// Location returns the association's timezone (HOA_TIMEZONE), falling back to
// Asia/Manila and finally UTC.
func Location() *time.Location {
	locOnce.Do(func() {
		name := configs.GetEnv("HOA_TIMEZONE", DefaultTimezone)
		l, err := time.LoadLocation(name)
		if err != nil {
			log.Printf("[WARN] timezone %q unavailable, using UTC: %v", name, err)
			l = time.UTC
		}
		loc = l
	})
	return loc
}

func Now() time.Time {
	return time.Now().In(Location())
}

// CurrentPeriod is the (year, month) billing period for now.
func CurrentPeriod() (int, int) {
	n := Now()
	return n.Year(), int(n.Month())
}

// ToLocal converts a stored (UTC) time for display. Zero stays zero.
func ToLocal(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(Location())
}

func ToLocalPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := ToLocal(*t)
	return &v
}
