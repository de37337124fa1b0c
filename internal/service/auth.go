package service

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/vietanh2810/coffeeshop-api/internal/config"
	"github.com/vietanh2810/coffeeshop-api/internal/pkg/jwthelper"
)

var ErrWrongCredentials = errors.New("wrong username or password")

type AuthService struct {
	admin      *config.AdminConfig
	signingKey []byte
}

func NewAuthService(admin *config.AdminConfig, signingKey string) *AuthService {
	return &AuthService{
		admin:      admin,
		signingKey: []byte(signingKey),
	}
}

// Login checks the configured admin credentials and returns a session token.
// A bcrypt hash takes precedence over a plain password.
func (s *AuthService) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.admin.Username)) == 1

	var passOK bool
	if s.admin.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(s.admin.Password)) == 1
	}

	if !userOK || !passOK {
		return "", ErrWrongCredentials
	}

	token, err := jwthelper.GenerateToken(s.signingKey, s.admin.Username, s.admin.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("jwthelper.GenerateToken -> %w", err)
	}

	return token, nil
}

// Verify returns the admin username carried by a valid token.
func (s *AuthService) Verify(token string) (string, error) {
	claims, err := jwthelper.ParseToken(s.signingKey, token)
	if err != nil {
		return "", err
	}

	return claims.Username, nil
}
