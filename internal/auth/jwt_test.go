package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/straye-as/insight-api/internal/auth"
	"github.com/straye-as/insight-api/internal/config"
	"github.com/straye-as/insight-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret: "test-signing-secret",
		JWTIssuer: "insight-api-test",
		TokenTTL:  3600,
	}
}

func testUser() *domain.User {
	return &domain.User{
		ID:    "user-1",
		Email: "kari@example.com",
		Name:  "Kari Nordmann",
		Role:  domain.RoleManager,
		Team:  "Sales",
	}
}

func TestJWTRoundTrip(t *testing.T) {
	cfg := testAuthConfig()
	validator := auth.NewJWTValidator(cfg)

	token, err := auth.GenerateToken(cfg, testUser())
	require.NoError(t, err)

	userCtx, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userCtx.UserID)
	assert.Equal(t, "Kari Nordmann", userCtx.DisplayName)
	assert.Equal(t, "kari@example.com", userCtx.Email)
	assert.Equal(t, domain.RoleManager, userCtx.Role)
	assert.Equal(t, "Sales", userCtx.Team)
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	token, err := auth.GenerateToken(testAuthConfig(), testUser())
	require.NoError(t, err)

	other := testAuthConfig()
	other.JWTSecret = "a-different-secret"
	_, err = auth.NewJWTValidator(other).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_RejectsWrongIssuer(t *testing.T) {
	token, err := auth.GenerateToken(testAuthConfig(), testUser())
	require.NoError(t, err)

	other := testAuthConfig()
	other.JWTIssuer = "someone-else"
	_, err = auth.NewJWTValidator(other).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	cfg := testAuthConfig()
	now := time.Now().Add(-2 * time.Hour)
	claims := &auth.Claims{
		Name: "Kari Nordmann",
		Role: "rep",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    cfg.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	_, err = auth.NewJWTValidator(cfg).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_RequiresExpiry(t *testing.T) {
	cfg := testAuthConfig()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "user-1",
			Issuer:  cfg.JWTIssuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	_, err = auth.NewJWTValidator(cfg).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_RequiresSubject(t *testing.T) {
	cfg := testAuthConfig()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWTIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	_, err = auth.NewJWTValidator(cfg).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_UnknownRoleDefaultsToRep(t *testing.T) {
	cfg := testAuthConfig()
	user := testUser()
	user.Role = domain.UserRoleType("superuser")

	token, err := auth.GenerateToken(cfg, user)
	require.NoError(t, err)

	userCtx, err := auth.NewJWTValidator(cfg).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleRep, userCtx.Role)
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	_, err := auth.NewJWTValidator(testAuthConfig()).ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestUserContext_AccessScope(t *testing.T) {
	userCtx := &auth.UserContext{UserID: "user-1", Role: domain.RoleRep}
	scope := userCtx.AccessScope()
	assert.Equal(t, "user-1", scope.OwnerID)
	assert.Equal(t, domain.RoleRep, scope.Role)
	assert.False(t, userCtx.IsAdmin())

	admin := &auth.UserContext{UserID: "admin-1", Role: domain.RoleAdmin}
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.HasAnyRole(domain.RoleAdmin, domain.RoleManager))
	assert.False(t, userCtx.HasAnyRole(domain.RoleAdmin))
}
