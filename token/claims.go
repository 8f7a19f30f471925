package token

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/jrsteele09/jobboard-auth/roles"
)

// Subject tags record which flow minted a token.
const (
	SubjectLogin   = "token login"
	SubjectRefresh = "token refresh"
)

// Claims is the payload of both access and refresh tokens. Permissions are never
// embedded; they are resolved from the role on every request.
type Claims struct {
	UserID string    `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Role   roles.Ref `json:"role"`
	jwt.RegisteredClaims
}
