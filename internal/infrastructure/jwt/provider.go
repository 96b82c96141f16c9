package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/notespace-api/internal/config"
)

const magicLinkPurpose = "magic-link"

// Claims holds the access-token payload.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// MagicLinkClaims holds the signed developer-channel payload. The embedded
// code feeds back into the normal OTP verification path, so single-use and
// attempt-limit semantics still apply to magic-link logins.
type MagicLinkClaims struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs with a shared server secret.
type Provider struct {
	secret       []byte
	accessExpiry time.Duration
	magicExpiry  time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return &Provider{
		secret:       []byte(cfg.JWTSecret),
		accessExpiry: cfg.AccessTokenTTL,
		magicExpiry:  cfg.OTPTTL,
	}, nil
}

// Sign mints a short-lived access token for the given user.
func (p *Provider) Sign(userID, email string) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// Verify validates an access token by signature and expiry.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, p.keyFunc)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// SignMagicLink mints a short-lived token carrying an issued OTP code. Only
// used outside production as an alternative delivery channel to email.
func (p *Provider) SignMagicLink(email, code string) (string, error) {
	claims := MagicLinkClaims{
		Email:   email,
		Code:    code,
		Purpose: magicLinkPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.magicExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// VerifyMagicLink validates a magic-link token and recovers its email and
// code. Tokens minted for any other purpose are rejected.
func (p *Provider) VerifyMagicLink(tokenStr string) (*MagicLinkClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &MagicLinkClaims{}, p.keyFunc)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*MagicLinkClaims)
	if !ok || !token.Valid || claims.Purpose != magicLinkPurpose {
		return nil, errors.New("invalid magic link token")
	}
	return claims, nil
}

func (p *Provider) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return p.secret, nil
}
