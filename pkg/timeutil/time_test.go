package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow_AlwaysUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Now().Location())
}

func TestOrNow(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*60*60)
	shipped := time.Date(2026, 4, 1, 11, 0, 0, 0, riyadh)

	got := OrNow(shipped)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(shipped))
	assert.Equal(t, 8, got.Hour())

	before := time.Now()
	got = OrNow(time.Time{})
	assert.Equal(t, time.UTC, got.Location())
	assert.False(t, got.Before(before.Add(-time.Second)))
}

func TestRFC3339(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*60*60)
	assert.Equal(t, "2026-04-01T08:00:00Z", RFC3339(time.Date(2026, 4, 1, 11, 0, 0, 0, riyadh)))
}
