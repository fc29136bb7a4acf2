package llmcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dexmac221/AgentsTeam/internal/llmtypes"
)

// CacheKeyRequestFrom extracts the key-relevant fields from a request.
// Message order is preserved because it is significant to the model.
func CacheKeyRequestFrom(req llmtypes.CompletionRequest) CacheKeyRequest {
	keyReq := CacheKeyRequest{
		Model:        req.Model,
		SystemPrompt: strings.TrimSpace(req.SystemPrompt),
		Temperature:  req.Temperature,
		CodeOnly:     req.CodeOnly,
	}

	for _, msg := range req.Messages {
		keyReq.Messages = append(keyReq.Messages, CacheKeyMessage{
			Role:    msg.Role,
			Content: strings.TrimSpace(msg.Content),
		})
	}

	return keyReq
}

// GenerateCacheKey generates a unique cache key from a CompletionRequest
func GenerateCacheKey(req llmtypes.CompletionRequest) (string, error) {
	keyReq := CacheKeyRequestFrom(req)

	data, err := json.Marshal(keyReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache key request: %w", err)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
