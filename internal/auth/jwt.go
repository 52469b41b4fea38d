package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

type Claims struct {
	EditorID string `json:"editor_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func checkSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("JWT secret is required but not set")
	}
	if len(secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters long")
	}
	return nil
}

func GenerateJWT(secret, editorID, role string, ttl time.Duration) (string, error) {
	if err := checkSecret(secret); err != nil {
		return "", fmt.Errorf("cannot generate JWT: %w", err)
	}

	now := time.Now()
	claims := Claims{
		EditorID: editorID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   fmt.Sprintf("editor_%s", editorID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateJWT(secret, tokenString string) (*Claims, error) {
	if err := checkSecret(secret); err != nil {
		return nil, fmt.Errorf("cannot validate JWT: %w", err)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
