package models

// Claims are the identity fields read from a verified bearer token
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Iss   string `json:"iss"`
	Exp   int64  `json:"exp"`
}
