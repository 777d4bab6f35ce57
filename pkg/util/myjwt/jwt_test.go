package myjwt

import (
	"testing"

	"MediVision/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	jc := config.JwtConfig{Key: "test-signing-key", ExpireHours: 1, Issuer: "MediVision"}

	token, err := GenerateToken(jc, "ops", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(jc, token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "MediVision", claims.Issuer)
}

func TestParseTokenWrongKey(t *testing.T) {
	token, err := GenerateToken(config.JwtConfig{Key: "key-one"}, "ops", "admin")
	require.NoError(t, err)

	_, err = ParseToken(config.JwtConfig{Key: "key-two"}, token)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken(config.JwtConfig{Key: "test-signing-key"}, "not.a.token")
	assert.Error(t, err)
}

func TestEmptyKeyRejected(t *testing.T) {
	_, err := GenerateToken(config.JwtConfig{}, "ops", "admin")
	assert.Error(t, err)

	_, err = ParseToken(config.JwtConfig{}, "whatever")
	assert.Error(t, err)
}
