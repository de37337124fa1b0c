package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vietanh2810/coffeeshop-api/internal/config"
)

func TestAuthService_Login(t *testing.T) {
	svc := NewAuthService(&config.AdminConfig{
		Username: "admin",
		Password: "admin123",
		TokenTTL: time.Hour,
	}, "signing-key")

	token, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	username, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)

	_, err = svc.Login("admin", "nope")
	assert.ErrorIs(t, err, ErrWrongCredentials)

	_, err = svc.Login("root", "admin123")
	assert.ErrorIs(t, err, ErrWrongCredentials)

	_, err = svc.Verify(token + "x")
	assert.Error(t, err)
}

func TestAuthService_LoginWithHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewAuthService(&config.AdminConfig{
		Username:     "barista",
		Password:     "ignored",
		PasswordHash: string(hash),
		TokenTTL:     time.Hour,
	}, "signing-key")

	_, err = svc.Login("barista", "s3cret")
	require.NoError(t, err)

	_, err = svc.Login("barista", "ignored")
	assert.ErrorIs(t, err, ErrWrongCredentials)
}
