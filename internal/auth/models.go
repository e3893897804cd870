package auth

import "time"

// AdminSubject is the single principal allowed to manage menu images.
const AdminSubject = "admin"

// AccessToken is a signed bearer token and its expiry.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// Claims describes the validated identity extracted from an access token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}
