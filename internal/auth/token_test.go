package auth

import (
	"strings"
	"testing"
	"time"

	"anoa.com/jobapp/internal/entity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestTokenService(t *testing.T, mode ClaimMode) *TokenService {
	t.Helper()
	svc, err := NewTokenService(TokenConfig{Secret: testSecret, TTL: time.Hour, Claims: mode})
	require.NoError(t, err)
	return svc
}

func testUser() *entity.User {
	first := "Ada"
	return &entity.User{
		ID:        uuid.New(),
		Username:  "ada",
		Email:     "ada@example.com",
		Role:      entity.RoleStudent,
		FirstName: &first,
	}
}

func TestNewTokenService(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		_, err := NewTokenService(TokenConfig{Secret: []byte("short"), TTL: time.Hour})
		assert.ErrorIs(t, err, ErrSecretTooShort)
	})

	t.Run("rejects non positive ttl", func(t *testing.T) {
		_, err := NewTokenService(TokenConfig{Secret: testSecret})
		assert.Error(t, err)
	})

	t.Run("rejects unknown claims mode", func(t *testing.T) {
		_, err := NewTokenService(TokenConfig{Secret: testSecret, TTL: time.Hour, Claims: "everything"})
		assert.Error(t, err)
	})

	t.Run("defaults to minimal claims", func(t *testing.T) {
		svc, err := NewTokenService(TokenConfig{Secret: testSecret, TTL: time.Hour})
		require.NoError(t, err)
		assert.Equal(t, ClaimsMinimal, svc.mode)
	})
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestTokenService(t, ClaimsMinimal)
	user := testUser()

	token, expiresAt, err := svc.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	subject, ok := svc.Subject(token)
	require.True(t, ok)
	assert.Equal(t, "ada", subject)

	assert.True(t, svc.IsValid(token, "ada"))
	assert.False(t, svc.IsValid(token, "bob"))
}

func TestClaimModes(t *testing.T) {
	user := testUser()

	t.Run("minimal", func(t *testing.T) {
		svc := newTestTokenService(t, ClaimsMinimal)
		token, _, err := svc.Issue(user)
		require.NoError(t, err)

		claims, err := svc.parse(token)
		require.NoError(t, err)
		assert.Equal(t, "STUDENT", claims.Role)
		assert.Empty(t, claims.Email)
		assert.Empty(t, claims.UserID)
	})

	t.Run("full", func(t *testing.T) {
		svc := newTestTokenService(t, ClaimsFull)
		token, _, err := svc.Issue(user)
		require.NoError(t, err)

		claims, err := svc.parse(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)
		assert.Equal(t, "ada@example.com", claims.Email)
		assert.Equal(t, "Ada", claims.FirstName)
	})
}

func TestExpiredToken(t *testing.T) {
	svc := newTestTokenService(t, ClaimsMinimal)
	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }

	token, _, err := svc.Issue(testUser())
	require.NoError(t, err)

	svc.now = time.Now

	_, ok := svc.Subject(token)
	assert.False(t, ok)
	assert.False(t, svc.IsValid(token, "ada"))
	assert.True(t, svc.isExpired(token))
}

func TestRejectsForeignTokens(t *testing.T) {
	svc := newTestTokenService(t, ClaimsMinimal)

	t.Run("garbage", func(t *testing.T) {
		for _, token := range []string{"", "abc", "a.b.c", strings.Repeat("x", 300)} {
			_, ok := svc.Subject(token)
			assert.False(t, ok, token)
			assert.False(t, svc.IsValid(token, "ada"), token)
		}
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewTokenService(TokenConfig{Secret: []byte("ffffffffffffffffffffffffffffffff"), TTL: time.Hour})
		require.NoError(t, err)
		token, _, err := other.Issue(testUser())
		require.NoError(t, err)

		_, ok := svc.Subject(token)
		assert.False(t, ok)
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, _, err := svc.Issue(testUser())
		require.NoError(t, err)
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)

		forged, _, err := svc.Issue(&entity.User{Username: "mallory", Role: entity.RoleAdmin})
		require.NoError(t, err)
		parts[1] = strings.Split(forged, ".")[1]

		_, ok := svc.Subject(strings.Join(parts, "."))
		assert.False(t, ok)
	})

	t.Run("alg none", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "ada",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, ok := svc.Subject(token)
		assert.False(t, ok)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := jwt.RegisteredClaims{Subject: "ada"}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)

		_, ok := svc.Subject(token)
		assert.False(t, ok)
	})
}
