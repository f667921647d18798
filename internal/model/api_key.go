package model

import "time"

// APIKey represents a user's exchange API key. The secret is encrypted at
// rest and never leaves the server after creation.
type APIKey struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Label           string    `json:"label"`
	PublicKey       string    `json:"api_key_public"`
	EncryptedSecret string    `json:"encrypted_secret,omitempty"`
	IsValid         bool      `json:"is_valid"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// APIKeyRequest represents API key creation request
type APIKeyRequest struct {
	Label     string `json:"label" binding:"required,min=1,max=100"`
	PublicKey string `json:"api_key_public" binding:"required"`
	SecretKey string `json:"api_key_secret" binding:"required"`
}

// APIKeyResponse represents an API key in API responses (secret excluded)
type APIKeyResponse struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	PublicKey string    `json:"api_key_public"`
	IsValid   bool      `json:"is_valid"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts APIKey to APIKeyResponse
func (k *APIKey) ToResponse() *APIKeyResponse {
	return &APIKeyResponse{
		ID:        k.ID,
		Label:     k.Label,
		PublicKey: k.PublicKey,
		IsValid:   k.IsValid,
		CreatedAt: k.CreatedAt,
	}
}

// DecryptedAPIKey holds decrypted API credentials (in-memory only)
type DecryptedAPIKey struct {
	Key    string
	Secret string
}
