package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CurrentUser is the operator the front end acts as
type CurrentUser struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// TokenRequest is the body used to mint an access token for a collaborator
type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenResponse carries a freshly signed token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenClaims represents the JWT token claims
type TokenClaims struct {
	CollaboratorID int    `json:"collaborator_id"`
	Name           string `json:"name,omitempty"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	Type           string `json:"type"` // "access"
	ID             string `json:"jti"`
	Exp            int64  `json:"exp"`
	Iat            int64  `json:"iat"`
}

// User turns the claims into the identity handlers act on.
func (c *TokenClaims) User() CurrentUser {
	return CurrentUser{
		ID:    c.CollaboratorID,
		Name:  c.Name,
		Email: c.Email,
		Role:  c.Role,
	}
}

// GetExpirationTime implements jwt.Claims interface
func (c *TokenClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}

// GetIssuedAt implements jwt.Claims interface
func (c *TokenClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Iat, 0)), nil
}

// GetNotBefore implements jwt.Claims interface
func (c *TokenClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return nil, nil
}

// GetIssuer implements jwt.Claims interface
func (c *TokenClaims) GetIssuer() (string, error) {
	return "senac-reservas", nil
}

// GetSubject implements jwt.Claims interface
func (c *TokenClaims) GetSubject() (string, error) {
	return c.Email, nil
}

// GetAudience implements jwt.Claims interface
func (c *TokenClaims) GetAudience() (jwt.ClaimStrings, error) {
	return nil, nil
}
