package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tempus/pkg/domain-errors"
)

func TestDateOf(t *testing.T) {
	t.Run("truncates to midnight UTC", func(t *testing.T) {
		in := time.Date(2026, time.March, 14, 15, 9, 26, 535, time.UTC)
		assert.Equal(t, Date(2026, time.March, 14), DateOf(in))
	})

	t.Run("keeps the caller's wall date", func(t *testing.T) {
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)
		// 2026-03-15 01:00 in Tokyo is still March 15 as a civil date,
		// even though it is March 14 in UTC.
		in := time.Date(2026, time.March, 15, 1, 0, 0, 0, tokyo)
		assert.Equal(t, Date(2026, time.March, 15), DateOf(in))
	})
}

func TestParseDate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := ParseDate("2026-02-28")
		require.NoError(t, err)
		assert.Equal(t, Date(2026, time.February, 28), d)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, s := range []string{"", "2026/02/28", "28-02-2026", "2026-13-01", "not-a-date"} {
			_, err := ParseDate(s)
			require.Error(t, err, s)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), s)
		}
	})

	t.Run("round-trips through FormatDate", func(t *testing.T) {
		d, err := ParseDate("2026-08-01")
		require.NoError(t, err)
		assert.Equal(t, "2026-08-01", FormatDate(d))
	})
}

func TestWithinRange(t *testing.T) {
	from := Date(2026, time.August, 1)
	to := Date(2026, time.August, 31)

	assert.True(t, WithinRange(Date(2026, time.August, 1), from, to), "inclusive start")
	assert.True(t, WithinRange(Date(2026, time.August, 31), from, to), "inclusive end")
	assert.True(t, WithinRange(Date(2026, time.August, 15), from, to))
	assert.False(t, WithinRange(Date(2026, time.July, 31), from, to))
	assert.False(t, WithinRange(Date(2026, time.September, 1), from, to))

	t.Run("normalizes timestamps before comparing", func(t *testing.T) {
		lateOnLastDay := time.Date(2026, time.August, 31, 23, 59, 59, 0, time.UTC)
		assert.True(t, WithinRange(lateOnLastDay, from, to))
	})
}
