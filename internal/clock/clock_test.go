package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToday_UsesLocation(t *testing.T) {
	// 23:30 UTC on the 1st is already the 2nd in Lagos (UTC+1).
	c := FixedClock{At: time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)}
	lagos := time.FixedZone("WAT", 3600)

	assert.Equal(t, "2026-03-01", Today(c, nil))
	assert.Equal(t, "2026-03-02", Today(c, lagos))
}

func TestPreviousDay(t *testing.T) {
	prev, err := PreviousDay("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", prev)

	prev, err = PreviousDay("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", prev)

	_, err = PreviousDay("01/03/2026")
	assert.Error(t, err)
}
