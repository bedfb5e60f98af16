package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/schoolyard/schoolyard/application/port/outbound"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// JWTService signs and verifies HS256 access tokens carrying the user's
// identity and tenant scope.
type JWTService struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewJWTService(secret string, tokenTTL time.Duration) (*JWTService, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is required")
	}
	return &JWTService{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}, nil
}

func (s *JWTService) GenerateAccessToken(claims outbound.TokenClaims) (string, error) {
	now := time.Now()
	tokenClaims := jwt.MapClaims{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"role":    claims.Role,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
		"type":    "access",
	}
	if claims.TenantID != "" {
		tokenClaims["tenant_id"] = claims.TenantID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*outbound.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, s.handleValidationError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "access" {
		return nil, ErrInvalidToken
	}

	result := &outbound.TokenClaims{UserID: userID}
	if email, ok := claims["email"].(string); ok {
		result.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		result.Role = role
	}
	if tenantID, ok := claims["tenant_id"].(string); ok {
		result.TenantID = tenantID
	}

	return result, nil
}

func (s *JWTService) handleValidationError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrInvalidToken
}
