package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret string

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = time.Hour * 168
)

type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

func InitJWTSecret() error {
	jwtSecret = os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	return nil
}

func generateToken(userID uint, email string, tokenType string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"type":    tokenType,
		"exp":     time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// GenerateTokenPair issues a short-lived access token and a long-lived
// refresh token for the user. Every successful auth event produces both.
func GenerateTokenPair(userID uint, email string) (TokenPair, error) {
	refresh, err := generateToken(userID, email, TokenTypeRefresh, refreshTokenTTL)

	if err != nil {
		return TokenPair{}, err
	}

	access, err := generateToken(userID, email, TokenTypeAccess, accessTokenTTL)

	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Refresh: refresh, Access: access}, nil
}

func GenerateAccessToken(userID uint, email string) (string, error) {
	return generateToken(userID, email, TokenTypeAccess, accessTokenTTL)
}

func VerifyJWT(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("Invalid or expired token")
	}

	return token, nil
}

// ParseToken verifies the signature and expiry, checks the token carries the
// expected type claim and returns the subject user ID.
func ParseToken(tokenString string, wantType string) (uint, error) {
	token, err := VerifyJWT(tokenString)

	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return 0, fmt.Errorf("Invalid token claims")
	}

	if tokenType, _ := claims["type"].(string); tokenType != wantType {
		return 0, fmt.Errorf("Token has wrong type")
	}

	userIDFloat, ok := claims["user_id"].(float64)

	if !ok {
		return 0, fmt.Errorf("Invalid user ID in token claims")
	}

	return uint(userIDFloat), nil
}
