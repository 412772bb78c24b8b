package engine

import (
	"testing"

	"escrow_go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovernorRoles(t *testing.T) {
	gov := NewGovernor("0xadmin", "0xagg", nil)

	assert.NoError(t, gov.RequireAdmin("0xadmin"))
	assert.ErrorIs(t, gov.RequireAdmin("0xagg"), domain.ErrUnauthorized)
	assert.ErrorIs(t, gov.RequireAdmin(""), domain.ErrUnauthorized)

	assert.NoError(t, gov.RequireAggregator("0xagg"))
	assert.ErrorIs(t, gov.RequireAggregator("0xadmin"), domain.ErrUnauthorized)
}

func TestGovernorPause(t *testing.T) {
	rec := &recorder{}
	gov := NewGovernor("0xadmin", "0xagg", rec)

	assert.ErrorIs(t, gov.Pause("0xagg"), domain.ErrUnauthorized)
	assert.False(t, gov.Paused())

	require.NoError(t, gov.Pause("0xadmin"))
	assert.True(t, gov.Paused())
	assert.ErrorIs(t, gov.RequireActive(), domain.ErrPaused)

	// Pausing twice emits only one change.
	require.NoError(t, gov.Pause("0xadmin"))
	assert.Len(t, rec.byName("PauseStateChanged"), 1)

	require.NoError(t, gov.Unpause("0xadmin"))
	assert.False(t, gov.Paused())
	assert.NoError(t, gov.RequireActive())
	assert.Len(t, rec.byName("PauseStateChanged"), 2)
}

func TestGovernorSetAggregator(t *testing.T) {
	rec := &recorder{}
	gov := NewGovernor("0xadmin", "0xagg", rec)

	assert.ErrorIs(t, gov.SetAggregator("0xagg", "0xnew"), domain.ErrUnauthorized)
	assert.ErrorIs(t, gov.SetAggregator("0xadmin", ""), domain.ErrInvalidInput)

	require.NoError(t, gov.SetAggregator("0xadmin", "0xnew"))
	assert.Equal(t, "0xnew", gov.Aggregator())
	assert.NoError(t, gov.RequireAggregator("0xnew"))
	assert.ErrorIs(t, gov.RequireAggregator("0xagg"), domain.ErrUnauthorized)

	events := rec.byName("AggregatorUpdated")
	if assert.Len(t, events, 1) {
		assert.Equal(t, "0xnew", events[0].(domain.AggregatorUpdated).Address)
	}
}
