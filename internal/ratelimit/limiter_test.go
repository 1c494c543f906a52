package ratelimit_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LimeChain/rpcmux/internal/ratelimit"
)

func TestAllowPermitsUpToBudget(t *testing.T) {
	l := ratelimit.New(2)
	require.NoError(t, l.Allow("conn-1"))
	require.NoError(t, l.Allow("conn-1"))

	err := l.Allow("conn-1")
	require.True(t, errors.Is(err, ratelimit.ErrRateLimited))
}

func TestAllowTracksIdentitiesIndependently(t *testing.T) {
	l := ratelimit.New(1)
	require.NoError(t, l.Allow("conn-1"))
	require.NoError(t, l.Allow("conn-2"))
}

func TestZeroOrNegativeBudgetDisablesLimiting(t *testing.T) {
	l := ratelimit.New(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Allow("conn-1"))
	}
}

func TestForgetResetsIdentity(t *testing.T) {
	l := ratelimit.New(1)
	require.NoError(t, l.Allow("conn-1"))
	require.Error(t, l.Allow("conn-1"))

	l.Forget("conn-1")
	assert.NoError(t, l.Allow("conn-1"))
}
