package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.SinglePerProject)
	assert.Equal(t, 5*time.Second, cfg.DependencyTimeout)
	assert.Len(t, cfg.FeeTiers, 3)
}

func TestLoadRejectsBrokenFeeTiers(t *testing.T) {
	// A table with a gap between 100 and 200 must stop the process.
	t.Setenv("FEE_TIERS", `[
		{"name":"a","min_amount":"0","max_amount":"100","fee_percentage":"20"},
		{"name":"b","min_amount":"200","max_amount":null,"fee_percentage":"10"}
	]`)
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadCustomTiers(t *testing.T) {
	t.Setenv("FEE_TIERS", `[
		{"name":"flat","min_amount":"0","max_amount":null,"fee_percentage":"10"}
	]`)
	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.FeeTiers, 1)
	assert.Equal(t, "flat", cfg.FeeTiers[0].Name)
}

func TestLoadRejectsBadPlatformAccount(t *testing.T) {
	t.Setenv("PLATFORM_ACCOUNT_ID", "not-a-uuid")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadPolicyToggle(t *testing.T) {
	t.Setenv("SINGLE_COLLABORATION_PER_PROJECT", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.SinglePerProject)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("DEPENDENCY_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}
