package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	c := NewFakeClock(start)

	assert.Equal(t, time.UTC, c.Now().Location())
	assert.True(t, c.Now().Equal(start))

	c.Advance(90 * time.Minute)
	assert.True(t, c.Now().Equal(start.Add(90*time.Minute)))
}

func TestSystemClockIsUTC(t *testing.T) {
	var c Clock = SystemClock{}
	assert.Equal(t, time.UTC, c.Now().Location())
}
