package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)

	token, issued, err := manager.Issue(42, "Ana Souza", RoleDoctor, "clinica-bemestar")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, issued.ID)

	claims, err := manager.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "Ana Souza", claims.Name)
	assert.Equal(t, RoleDoctor, claims.Role)
	assert.Equal(t, "clinica-bemestar", claims.ClinicSlug)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestTokenExpiry(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)
	current := time.Now()
	manager.now = func() time.Time { return current }

	token, _, err := manager.Issue(1, "Ana", RoleAdmin, "clinica")
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	_, err = manager.Parse(token)
	assert.Error(t, err)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	other := NewTokenManager("secret-b", time.Hour)

	token, _, err := issuer.Issue(1, "Ana", RoleAdmin, "clinica")
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestIssueWithoutSecret(t *testing.T) {
	manager := NewTokenManager("", time.Hour)
	_, _, err := manager.Issue(1, "Ana", RoleAdmin, "clinica")
	assert.Error(t, err)
}

func TestUniqueTokenIDs(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)
	_, first, err := manager.Issue(1, "Ana", RoleAdmin, "clinica")
	require.NoError(t, err)
	_, second, err := manager.Issue(1, "Ana", RoleAdmin, "clinica")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}
