package session

import "github.com/golang-jwt/jwt/v5"

// Claims is the signed session payload. There is no exp: a session lives
// until it is removed from the user's token list.
type Claims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}
