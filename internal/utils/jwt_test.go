package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neosure-anc-server/internal/config"
	"neosure-anc-server/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:                 "access-secret",
		JWTRefreshSecret:          "refresh-secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 24,
	}
}

func TestGenerateAndValidateTokens(t *testing.T) {
	cfg := testConfig()
	user := &models.User{BaseModel: models.BaseModel{ID: "u-1"}, Role: models.RoleANM}

	access, refresh, err := GenerateTokens(user, cfg)
	require.NoError(t, err)

	claims, err := ValidateToken(access, cfg.JWTSecret, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleANM, claims.Role)

	claims, err = ValidateToken(refresh, cfg.JWTRefreshSecret, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
}

func TestValidateToken_Rejects(t *testing.T) {
	cfg := testConfig()
	user := &models.User{BaseModel: models.BaseModel{ID: "u-1"}, Role: models.RoleDoctor}
	access, _, err := GenerateTokens(user, cfg)
	require.NoError(t, err)

	_, err = ValidateToken(access, "other-secret", AccessToken)
	assert.Error(t, err)

	_, err = ValidateToken(access, cfg.JWTSecret, RefreshToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	// a refresh token signed with the access secret still cannot authenticate requests
	cfg.JWTRefreshSecret = cfg.JWTSecret
	_, refresh, err := GenerateTokens(user, cfg)
	require.NoError(t, err)
	_, err = ValidateToken(refresh, cfg.JWTSecret, AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = ValidateToken("not-a-jwt", cfg.JWTSecret, AccessToken)
	assert.Error(t, err)
}

func TestFormatValidationError(t *testing.T) {
	type payload struct {
		Status string `validate:"required,oneof=a b"`
		Age    int    `validate:"gte=10"`
	}
	err := Validate(payload{Age: 3})
	require.Error(t, err)
	assert.Equal(t, "Status must satisfy required, Age must satisfy gte=10", FormatValidationError(err))
}
