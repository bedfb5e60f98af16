package outbound

// TokenClaims is the verified identity carried by an access token.
type TokenClaims struct {
	UserID   string
	TenantID string
	Email    string
	Role     string
}

type TokenService interface {
	GenerateAccessToken(claims TokenClaims) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
}
