package auth

import (
	"strings"
	"testing"

	"anoa.com/jobapp/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, hasher.Verify("s3cret-pass", hash))
	assert.False(t, hasher.Verify("wrong", hash))
	assert.False(t, hasher.Verify("", hash))
	assert.False(t, hasher.Verify("s3cret-pass", ""))
	assert.False(t, hasher.Verify("s3cret-pass", "not-a-bcrypt-hash"))
}

func TestBcryptHasherSalts(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same")
	require.NoError(t, err)
	second, err := hasher.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBcryptHasherRejectsEmpty(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost).Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestBcryptHasherLengthCountsBytes(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	// 40 characters, 80 bytes
	_, err := hasher.Hash(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = hasher.Hash(strings.Repeat("é", 36))
	assert.NoError(t, err)
}

func TestBcryptHasherCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).(*bcryptHasher).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).(*bcryptHasher).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).(*bcryptHasher).cost)
}
