package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/auth/v2/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/krishkalaria12/snap-swap/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	Audience   = "snap-swap-app"
	CookieName = "JWT"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Service issues and verifies HS256 session tokens.
type Service struct {
	tokens *token.Service
	issuer string
	ttl    time.Duration
}

func NewService(secret, issuer string, ttl time.Duration) *Service {
	tokens := token.NewService(token.Opts{
		SecretReader: token.SecretFunc(func(aud string) (string, error) {
			return secret, nil
		}),
		TokenDuration:  ttl,
		CookieDuration: ttl,
		Issuer:         issuer,
		JWTCookieName:  CookieName,
		DisableXSRF:    true,
	})

	return &Service{tokens: tokens, issuer: issuer, ttl: ttl}
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue returns a signed token for user and its expiry.
func (s *Service) Issue(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(s.ttl)

	claims := token.Claims{
		User: &token.User{
			ID:   user.ID,
			Name: user.Username,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  []string{Audience},
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenStr, err := s.tokens.Token(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token: %v", err)
	}
	return tokenStr, expires, nil
}

// Parse verifies the signature and expiry and returns the token's user.
func (s *Service) Parse(tokenStr string) (*token.User, error) {
	claims, err := s.tokens.Parse(tokenStr)
	if err != nil {
		return nil, ErrInvalidToken
	}
	// expiry is enforced here whatever the parser options are
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidToken
	}
	if claims.User == nil || claims.User.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims.User, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
