package myjwt

import (
	"errors"
	"time"

	"MediVision/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 admin token. The jwt section is passed in
// explicitly so tokens can be minted and verified in tests without global
// config state.
func GenerateToken(jc config.JwtConfig, subject string, role string) (string, error) {
	key := jc.Key
	if key == "" {
		return "", errors.New("jwt key is empty")
	}

	expireHours := jc.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}

	issuer := jc.Issuer
	if issuer == "" {
		issuer = "MediVision"
	}

	claims := CustomClaims{
		Subject: subject,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(key))
}

func ParseToken(jc config.JwtConfig, tokenString string) (*CustomClaims, error) {
	key := jc.Key
	if key == "" {
		return nil, errors.New("jwt key is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
