package auth

import "github.com/golang-jwt/jwt/v5"

// anonRole is carried by the auth provider's public anon key, which is a valid
// signed token but identifies nobody.
const anonRole = "anon"

// Claims is the access token shape issued by the auth provider.
type Claims struct {
	jwt.RegisteredClaims

	Email        string       `json:"email"`
	Role         string       `json:"role"`
	UserMetadata UserMetadata `json:"user_metadata"`
}

type UserMetadata struct {
	FullName string `json:"full_name"`
}

// Identity is the authenticated caller as seen by handlers and services.
type Identity struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func (c Claims) Identity() Identity {
	return Identity{UserID: c.Subject, Email: c.Email, FullName: c.UserMetadata.FullName}
}
