package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hachiran/ramensite/internal/config"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxPasswordLength = 72 // bcrypt limit
	audience          = "ramensite-admin"
)

// Service authenticates the site administrator and issues access tokens.
type Service struct {
	cfg          config.AuthConfig
	passwordHash []byte
	nowFunc      func() time.Time
	idIssuer     string
	parser       *jwt.Parser
}

// NewService hashes the configured admin password; the plain text is not retained.
func NewService(cfg config.AuthConfig) (*Service, error) {
	if strings.TrimSpace(cfg.AdminPassword) == "" {
		return nil, errors.New("admin password must be set")
	}
	if strings.TrimSpace(cfg.AccessTokenSecret) == "" {
		return nil, errors.New("access token secret must be set")
	}

	hash, err := hashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	cfg.AdminPassword = ""

	return &Service{
		cfg:          cfg,
		passwordHash: hash,
		nowFunc:      time.Now,
		idIssuer:     "ramensite",
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithAudience(audience),
		),
	}, nil
}

// LoginInput carries login credentials.
type LoginInput struct {
	Password string
}

// Login checks the admin password and issues an access token.
func (s *Service) Login(ctx context.Context, input LoginInput) (AccessToken, error) {
	if strings.TrimSpace(input.Password) == "" || len(input.Password) > maxPasswordLength {
		return AccessToken{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(input.Password)); err != nil {
		return AccessToken{}, ErrInvalidCredentials
	}

	token, err := s.generateAccessToken(s.nowFunc())
	if err != nil {
		return AccessToken{}, fmt.Errorf("generate access token: %w", err)
	}
	return token, nil
}

// ValidateAccessToken verifies the token signature and extracts claims.
func (s *Service) ValidateAccessToken(tokenString string) (Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrUnauthorized
	}

	parsed, err := s.parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.AccessTokenSecret), nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrUnauthorized
	}

	sub, _ := claims["sub"].(string)
	if sub != AdminSubject {
		return Claims{}, ErrUnauthorized
	}

	expFloat, okExp := claims["exp"].(float64)
	if !okExp {
		return Claims{}, ErrUnauthorized
	}
	exp := time.Unix(int64(expFloat), 0)

	iat := time.Time{}
	if iatFloat, ok := claims["iat"].(float64); ok {
		iat = time.Unix(int64(iatFloat), 0)
	}

	if exp.Before(s.nowFunc()) {
		return Claims{}, ErrUnauthorized
	}

	return Claims{Subject: sub, ExpiresAt: exp, IssuedAt: iat}, nil
}

func (s *Service) generateAccessToken(now time.Time) (AccessToken, error) {
	expiresAt := now.Add(s.cfg.AccessTokenTTL)
	claims := jwt.MapClaims{
		"sub": AdminSubject,
		"iss": s.idIssuer,
		"aud": audience,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessTokenSecret))
	if err != nil {
		return AccessToken{}, err
	}

	return AccessToken{Token: signed, ExpiresAt: expiresAt}, nil
}

func hashPassword(password string, cost int) ([]byte, error) {
	if len(password) > maxPasswordLength {
		return nil, fmt.Errorf("password exceeds maximum length of %d characters", maxPasswordLength)
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}
