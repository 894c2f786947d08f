package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// RoleDeveloper marks tokens allowed to use developer-mode endpoints
const RoleDeveloper = "developer"

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// UserClaims represents the JWT claims of an authenticated user. The layout
// follows Supabase access tokens: the user id travels in "sub".
type UserClaims struct {
	Email    string `json:"email"`
	TenantID string `json:"tenant_id,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token
func (c *UserClaims) UserID() string {
	return c.Subject
}

// IsDeveloper reports whether the token carries the developer role
func (c *UserClaims) IsDeveloper() bool {
	return c.Role == RoleDeveloper
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *JWTConfig
	now    func() time.Time
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *JWTConfig) *JWTUtil {
	return &JWTUtil{
		config: config,
		now:    time.Now,
	}
}

// GenerateToken creates a signed token for a user
func (j *JWTUtil) GenerateToken(userID, email, tenantID, role string) (string, error) {
	if j.config == nil || j.config.SigningKey == "" {
		return "", errors.New("JWT configuration not provided")
	}

	now := j.now()
	claims := UserClaims{
		Email:    email,
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(j.config.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateToken validates and parses the JWT token
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	if j.config == nil || j.config.SigningKey == "" {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" && claims.Email == "" {
		return nil, errors.New("token has neither subject nor email")
	}
	return claims, nil
}
