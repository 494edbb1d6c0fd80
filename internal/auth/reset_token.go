package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const PurposePasswordReset = "password_reset"

type ResetClaims struct {
	UserID      int    `json:"user_id"`
	Purpose     string `json:"purpose"`
	Fingerprint string `json:"fingerprint"`
	jwt.RegisteredClaims
}

// PasswordFingerprint ties a reset token to the hash it was issued against,
// so the token stops working once the password changes.
func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:])[:16]
}

// GenerateResetToken signs a password reset token for userID.
func GenerateResetToken(userID int, passwordHash string, ttl time.Duration, secret string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := ResetClaims{
		UserID:      userID,
		Purpose:     PurposePasswordReset,
		Fingerprint: PasswordFingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateResetToken parses tokenString and checks signature, expiry and purpose.
func ValidateResetToken(tokenString string, secret string) (*ResetClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ResetClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*ResetClaims)
	if !ok || !token.Valid || claims.Purpose != PurposePasswordReset {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
