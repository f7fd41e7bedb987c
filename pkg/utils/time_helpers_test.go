package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsPastDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	t.Run("вчера — в прошлом", func(t *testing.T) {
		assert.True(t, IsPastDate(now.AddDate(0, 0, -1), now))
	})

	t.Run("сегодня — не в прошлом, даже раньше по времени суток", func(t *testing.T) {
		morning := time.Date(2025, 6, 15, 0, 1, 0, 0, time.UTC)
		assert.False(t, IsPastDate(morning, now))
	})

	t.Run("завтра — не в прошлом", func(t *testing.T) {
		assert.False(t, IsPastDate(now.AddDate(0, 0, 1), now))
	})
}

func TestDateOnly(t *testing.T) {
	ts := time.Date(2025, 6, 15, 23, 59, 59, 999, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), DateOnly(ts))
}
