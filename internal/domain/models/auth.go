package models

import "github.com/golang-jwt/jwt/v5"

// Claims are the JWT claims issued by the external magic-link auth
// provider. Subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Actor is the authenticated identity attached to a request. It is used
// only to stamp created_by_user_id on folders, never for access control.
type Actor struct {
	ID    string
	Email string
}
