package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig(t *testing.T) {
	t.Run("requires secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := NewJWTConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("defaults expiration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("JWT_EXPIRATION_HOURS", "")
		cfg, err := NewJWTConfig()
		require.NoError(t, err)
		assert.Equal(t, 24, cfg.ExpirationHours)
	})

	t.Run("rejects bad expiration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("JWT_EXPIRATION_HOURS", "zero")
		_, err := NewJWTConfig()
		assert.Error(t, err)

		t.Setenv("JWT_EXPIRATION_HOURS", "0")
		_, err = NewJWTConfig()
		assert.Error(t, err)
	})
}

func TestPasswordConfig_RoundTrip(t *testing.T) {
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("PASSWORD_PEPPER", "")
	cfg, err := NewPasswordConfig()
	require.NoError(t, err)

	hash, err := cfg.HashPassword("hunter2!")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2!", hash)

	assert.True(t, cfg.VerifyPassword("hunter2!", hash))
	assert.False(t, cfg.VerifyPassword("wrong", hash))
}

func TestPasswordConfig_PepperChangesVerification(t *testing.T) {
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("PASSWORD_PEPPER", "pepper-a")
	withPepper, err := NewPasswordConfig()
	require.NoError(t, err)

	hash, err := withPepper.HashPassword("hunter2!")
	require.NoError(t, err)

	t.Setenv("PASSWORD_PEPPER", "pepper-b")
	otherPepper, err := NewPasswordConfig()
	require.NoError(t, err)

	assert.True(t, withPepper.VerifyPassword("hunter2!", hash))
	assert.False(t, otherPepper.VerifyPassword("hunter2!", hash))
}

func TestNewPasswordConfig_CostRange(t *testing.T) {
	t.Setenv("BCRYPT_COST", "9")
	_, err := NewPasswordConfig()
	assert.Error(t, err)

	t.Setenv("BCRYPT_COST", "15")
	_, err = NewPasswordConfig()
	assert.Error(t, err)
}
