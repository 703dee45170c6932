package dbtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCurrentPeriodMatchesNow(t *testing.T) {
	y, m := CurrentPeriod()
	n := Now()
	require.Equal(t, n.Year(), y)
	require.Equal(t, int(n.Month()), m)
}

func TestToLocalKeepsZero(t *testing.T) {
	require.True(t, ToLocal(time.Time{}).IsZero())
	require.Nil(t, ToLocalPtr(nil))

	ts := time.Date(2025, 3, 31, 20, 0, 0, 0, time.UTC)
	got := ToLocal(ts)
	require.True(t, got.Equal(ts))
	require.Equal(t, Location(), got.Location())
}
