package fairuse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor_Boundaries(t *testing.T) {
	const limit = 200

	tests := []struct {
		count int
		want  Tier
	}{
		{0, TierNormal},
		{100, TierNormal},
		{159, TierNormal},
		{160, TierPreCap}, // exactly 0.8*L
		{199, TierPreCap},
		{200, TierCapped}, // exactly L
		{500, TierCapped},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.count, limit), "count=%d", tt.count)
	}
}

func TestTierFor_ZeroLimitFallsBackToDefault(t *testing.T) {
	assert.Equal(t, TierNormal, TierFor(100, 0))
	assert.Equal(t, TierCapped, TierFor(DefaultDailyLimit, 0))
}

func TestIncrement_FirstCrossingFiresOnce(t *testing.T) {
	const limit = 200
	c := Counter{Count: 158}

	c, tier, banner := c.Increment(limit)
	assert.Equal(t, TierNormal, tier)
	assert.False(t, banner)

	// 160th query crosses into pre-cap: exactly one banner.
	c, tier, banner = c.Increment(limit)
	assert.Equal(t, TierPreCap, tier)
	assert.True(t, banner)

	c, tier, banner = c.Increment(limit)
	assert.Equal(t, TierPreCap, tier)
	assert.False(t, banner, "pre-cap banner must not re-fire the same day")
}

func TestIncrement_CapBannerIndependentOfPreCap(t *testing.T) {
	const limit = 200
	c := Counter{Count: 199, BannersShown: map[Tier]bool{TierPreCap: true}}

	c, tier, banner := c.Increment(limit)
	assert.Equal(t, TierCapped, tier)
	assert.True(t, banner, "cap crossing fires its own banner")
	assert.Equal(t, 200, c.Count)

	_, _, banner = c.Increment(limit)
	assert.False(t, banner)
}

func TestIncrement_DoesNotMutateReceiver(t *testing.T) {
	c := Counter{Count: 159}
	updated, _, _ := c.Increment(200)

	assert.Equal(t, 159, c.Count)
	assert.Nil(t, c.BannersShown)
	assert.Equal(t, 160, updated.Count)
}

func TestStateFor(t *testing.T) {
	state := StateFor(Counter{Count: 42}, 200)

	assert.Equal(t, 42, state.Count)
	assert.Equal(t, 200, state.Limit)
	assert.Equal(t, TierNormal, state.Tier)

	state = StateFor(Counter{Count: 250}, 0)
	assert.Equal(t, DefaultDailyLimit, state.Limit)
	assert.Equal(t, TierCapped, state.Tier)
}
