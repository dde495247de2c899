package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFiscalMonthOf(t *testing.T) {
	t.Run("calendar months with start day 1", func(t *testing.T) {
		m := FiscalMonthOf(Date(2026, time.August, 15), 1)
		assert.Equal(t, Date(2026, time.August, 1), m.Start)
		assert.Equal(t, Date(2026, time.August, 31), m.End)
	})

	t.Run("mid-month start day, date after the start", func(t *testing.T) {
		m := FiscalMonthOf(Date(2026, time.January, 25), 21)
		assert.Equal(t, Date(2026, time.January, 21), m.Start)
		assert.Equal(t, Date(2026, time.February, 20), m.End)
	})

	t.Run("mid-month start day, date before the start", func(t *testing.T) {
		m := FiscalMonthOf(Date(2026, time.February, 10), 21)
		assert.Equal(t, Date(2026, time.January, 21), m.Start)
		assert.Equal(t, Date(2026, time.February, 20), m.End)
	})

	t.Run("crosses a year boundary", func(t *testing.T) {
		m := FiscalMonthOf(Date(2026, time.January, 5), 21)
		assert.Equal(t, Date(2025, time.December, 21), m.Start)
		assert.Equal(t, Date(2026, time.January, 20), m.End)
	})

	t.Run("february with start day 1", func(t *testing.T) {
		m := FiscalMonthOf(Date(2026, time.February, 14), 1)
		assert.Equal(t, Date(2026, time.February, 28), m.End)
	})

	t.Run("leap february", func(t *testing.T) {
		m := FiscalMonthOf(Date(2028, time.February, 14), 1)
		assert.Equal(t, Date(2028, time.February, 29), m.End)
	})

	t.Run("out-of-range start day falls back to 1", func(t *testing.T) {
		m := FiscalMonthOf(Date(2026, time.August, 15), 31)
		assert.Equal(t, Date(2026, time.August, 1), m.Start)
	})

	t.Run("windows tile without gap or overlap", func(t *testing.T) {
		prev := FiscalMonthOf(Date(2026, time.March, 10), 21)
		next := FiscalMonthOf(Date(2026, time.March, 25), 21)
		assert.Equal(t, prev.End.AddDate(0, 0, 1), next.Start)
	})
}

func TestFiscalMonthContains(t *testing.T) {
	m := FiscalMonthOf(Date(2026, time.January, 25), 21)

	assert.True(t, m.Contains(Date(2026, time.January, 21)), "inclusive start")
	assert.True(t, m.Contains(Date(2026, time.February, 20)), "inclusive end")
	assert.False(t, m.Contains(Date(2026, time.January, 20)))
	assert.False(t, m.Contains(Date(2026, time.February, 21)))
	assert.True(t, m.Contains(time.Date(2026, time.February, 20, 18, 30, 0, 0, time.UTC)), "timestamps normalized")
}
