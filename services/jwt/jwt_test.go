package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndValidateTokenPair(t *testing.T) {
	access, refresh, err := GenerateTokenPair("crew@example.com", testSecret, 42, "User")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims, err := ValidateAndGetClaims(access, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "crew@example.com", claims["sub"])
	assert.Equal(t, float64(42), claims["id"])
	assert.Equal(t, "User", claims["role"])
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	access, _, err := GenerateTokenPair("crew@example.com", testSecret, 42, "User")
	require.NoError(t, err)

	_, err = ValidateAndGetClaims(access, "another-secret")
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := ValidateAndGetClaims("not-a-token", testSecret)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken("crew@example.com", testSecret, 42, "User", -1)
	require.NoError(t, err)

	_, err = ValidateAndGetClaims(token, testSecret)
	assert.Error(t, err)
}
