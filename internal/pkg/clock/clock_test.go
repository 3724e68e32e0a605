package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeClocker_Now(t *testing.T) {
	before := time.Now().UTC()
	got := New().Now()
	after := time.Now().UTC()

	assert.Equal(t, time.UTC, got.Location())
	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}

func TestFrozen(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := NewFrozen(start)

	assert.Equal(t, start, f.Now())

	f.Advance(30 * time.Second)
	assert.Equal(t, start.Add(30*time.Second), f.Now())

	f.Advance(-time.Minute)
	assert.Equal(t, start.Add(-30*time.Second), f.Now())

	f.Set(start)
	assert.Equal(t, start, f.Now())
}
