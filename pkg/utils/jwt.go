package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"senac-reservas-backend/pkg/models"
)

const accessTokenType = "access"

// JWTService JWT服务
type JWTService struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewJWTService 创建JWT服务
func NewJWTService(secretKey string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &JWTService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}
}

// GenerateAccessToken 为协作者生成访问令牌
func (j *JWTService) GenerateAccessToken(c models.Collaborator) (string, int64, error) {
	if c.Status == models.CollaboratorInactive {
		return "", 0, fmt.Errorf("collaborator %d is inactive", c.ID)
	}

	now := j.now()
	expiry := now.Add(j.ttl)

	claims := &models.TokenClaims{
		CollaboratorID: c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Role:           c.Role,
		Type:           accessTokenType,
		ID:             uuid.NewString(),
		Exp:            expiry.Unix(),
		Iat:            now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate access token: %w", err)
	}

	return tokenString, expiry.Unix(), nil
}

// ValidateToken 验证令牌
func (j *JWTService) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名方法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithTimeFunc(j.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired")
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.Type != accessTokenType {
		return nil, fmt.Errorf("invalid token type: %s", claims.Type)
	}

	return claims, nil
}
