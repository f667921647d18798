package service

import (
	"context"
	"strings"
	"time"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/repository"
	"botdeck/backend/internal/util"
	"botdeck/backend/pkg/binance"
	"botdeck/backend/pkg/crypto"
	"botdeck/backend/pkg/logger"
)

// APIKeyService handles exchange API key operations
type APIKeyService struct {
	apiKeyRepo    *repository.APIKeyRepository
	userRepo      *repository.UserRepository
	binanceClient *binance.Client
	encryptionKey string
}

// NewAPIKeyService creates a new API key service
func NewAPIKeyService(
	apiKeyRepo *repository.APIKeyRepository,
	userRepo *repository.UserRepository,
	binanceClient *binance.Client,
	encryptionKey string,
) *APIKeyService {
	return &APIKeyService{
		apiKeyRepo:    apiKeyRepo,
		userRepo:      userRepo,
		binanceClient: binanceClient,
		encryptionKey: encryptionKey,
	}
}

func maskKey(s string) string {
	if len(s) == 0 {
		return "<empty>"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}

// Create validates a new API key against the exchange, encrypts the secret
// and stores it under the given label
func (s *APIKeyService) Create(ctx context.Context, userID string, req *model.APIKeyRequest) (*model.APIKeyResponse, error) {
	// Trim whitespace (common issue from copy-paste)
	publicKey := strings.TrimSpace(req.PublicKey)
	secretKey := strings.TrimSpace(req.SecretKey)

	if publicKey == "" {
		return nil, util.NewAppError(400, util.ErrCodeValidation, "API key cannot be empty")
	}
	if secretKey == "" {
		return nil, util.NewAppError(400, util.ErrCodeValidation, "API secret cannot be empty")
	}

	log := logger.GetLogger()
	log.Infof("Validating API key for user %s: key=%s", userID, maskKey(publicKey))

	isValid, err := s.binanceClient.ValidateCredentials(ctx, binance.Credentials{
		Key:    publicKey,
		Secret: secretKey,
	})
	if err != nil {
		log.Errorf("API key validation failed for user %s: %v", userID, err)
		return nil, util.NewAppErrorWithDetails(400, util.ErrCodeExchangeAPI,
			"Failed to validate API key", err.Error())
	}
	if !isValid {
		return nil, util.NewAppError(400, util.ErrCodeAPIKeyInvalid,
			"Invalid API key or secret. Please check your exchange credentials.")
	}

	encryptedSecret, err := crypto.Encrypt(secretKey, s.encryptionKey)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to encrypt API secret")
	}

	apiKey := &model.APIKey{
		UserID:          userID,
		Label:           req.Label,
		PublicKey:       publicKey,
		EncryptedSecret: encryptedSecret,
		IsValid:         true,
	}

	if err := s.apiKeyRepo.Create(ctx, apiKey); err != nil {
		return nil, util.ErrInternalServer("Failed to save API key")
	}

	if err := s.userRepo.UpdateAPIKeyStatus(ctx, userID, true); err != nil {
		log.Warnf("Failed to update API key status for user %s: %v", userID, err)
	}

	return apiKey.ToResponse(), nil
}

// List returns the user's API keys without the encrypted secrets
func (s *APIKeyService) List(ctx context.Context, userID string) ([]*model.APIKeyResponse, error) {
	keys, err := s.apiKeyRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to list API keys")
	}

	responses := make([]*model.APIKeyResponse, len(keys))
	for i, k := range keys {
		responses[i] = k.ToResponse()
	}
	return responses, nil
}

// GetDecrypted returns decrypted credentials for a key, for internal use
// by the order and bot services only
func (s *APIKeyService) GetDecrypted(ctx context.Context, userID, keyID string) (*model.DecryptedAPIKey, error) {
	var apiKey *model.APIKey
	var err error
	if keyID == "" {
		apiKey, err = s.apiKeyRepo.GetFirstByUser(ctx, userID)
	} else {
		apiKey, err = s.apiKeyRepo.GetByID(ctx, keyID)
	}
	if err != nil {
		return nil, err
	}
	if apiKey.UserID != userID {
		return nil, util.ErrForbidden("API key belongs to another user")
	}
	if !apiKey.IsValid {
		return nil, util.NewAppError(400, util.ErrCodeAPIKeyInvalid, "API key is invalid")
	}

	secret, err := crypto.Decrypt(apiKey.EncryptedSecret, s.encryptionKey)
	if err != nil {
		logger.GetLogger().Errorf("Failed to decrypt API secret for user %s: %v", userID, err)
		return nil, util.NewAppErrorWithDetails(500, util.ErrCodeInternal,
			"Failed to decrypt API secret",
			"The encryption key may have changed since this API key was saved. Delete and recreate the key.")
	}

	return &model.DecryptedAPIKey{
		Key:    apiKey.PublicKey,
		Secret: secret,
	}, nil
}

// Delete removes one of the user's API keys
func (s *APIKeyService) Delete(ctx context.Context, userID, keyID string) error {
	apiKey, err := s.apiKeyRepo.GetByID(ctx, keyID)
	if err != nil {
		return err
	}
	if apiKey.UserID != userID {
		return util.ErrForbidden("API key belongs to another user")
	}

	if err := s.apiKeyRepo.Delete(ctx, keyID); err != nil {
		return util.ErrInternalServer("Failed to delete API key")
	}

	hasKeys, err := s.apiKeyRepo.Exists(ctx, userID)
	if err == nil && !hasKeys {
		if err := s.userRepo.UpdateAPIKeyStatus(ctx, userID, false); err != nil {
			logger.GetLogger().Warnf("Failed to update API key status for user %s: %v", userID, err)
		}
	}

	return nil
}

// ValidateAndUpdate re-validates a stored key against the exchange and
// updates its validity flag
func (s *APIKeyService) ValidateAndUpdate(ctx context.Context, userID, keyID string) (*model.APIKeyResponse, error) {
	apiKey, err := s.apiKeyRepo.GetByID(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if apiKey.UserID != userID {
		return nil, util.ErrForbidden("API key belongs to another user")
	}

	secret, err := crypto.Decrypt(apiKey.EncryptedSecret, s.encryptionKey)
	if err != nil {
		return nil, util.NewAppErrorWithDetails(500, util.ErrCodeInternal,
			"Failed to decrypt API secret",
			"The encryption key may have changed since this API key was saved. Delete and recreate the key.")
	}

	isValid, err := s.binanceClient.ValidateCredentials(ctx, binance.Credentials{
		Key:    apiKey.PublicKey,
		Secret: secret,
	})
	if err != nil {
		return nil, util.NewAppErrorWithDetails(400, util.ErrCodeExchangeAPI,
			"Failed to validate API key", err.Error())
	}

	apiKey.IsValid = isValid
	apiKey.UpdatedAt = time.Now()
	if err := s.apiKeyRepo.Update(ctx, apiKey); err != nil {
		return nil, util.ErrInternalServer("Failed to update API key status")
	}

	return apiKey.ToResponse(), nil
}

// GetAccountInfo fetches the exchange account for the user's first valid key
func (s *APIKeyService) GetAccountInfo(ctx context.Context, userID string) (*binance.AccountInfo, error) {
	creds, err := s.GetDecrypted(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	info, err := s.binanceClient.GetAccount(ctx, binance.Credentials{Key: creds.Key, Secret: creds.Secret})
	if err != nil {
		return nil, util.NewAppErrorWithDetails(400, util.ErrCodeExchangeAPI,
			"Failed to get account info", err.Error())
	}

	// drop zero balances from the response
	balances := make([]binance.AccountBalance, 0, len(info.Balances))
	for _, b := range info.Balances {
		if b.Free != "0.00000000" || b.Locked != "0.00000000" {
			balances = append(balances, b)
		}
	}
	info.Balances = balances

	return info, nil
}
