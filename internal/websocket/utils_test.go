package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRemainingSeconds(t *testing.T) {
	expires := time.Date(2026, 1, 1, 0, 30, 0, 0, time.UTC)

	assert.Equal(t, 1800, RemainingSeconds(expires.Add(-30*time.Minute), expires))
	assert.Equal(t, 1, RemainingSeconds(expires.Add(-time.Millisecond), expires))
	assert.Equal(t, 0, RemainingSeconds(expires, expires))
	assert.Equal(t, 0, RemainingSeconds(expires.Add(time.Hour), expires))
}
