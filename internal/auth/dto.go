// AngelaMos | 2026
// dto.go

package auth

type TokenResponse struct {
	AuthToken string `json:"auth_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}
