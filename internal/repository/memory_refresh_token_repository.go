package repository

import (
	"context"
	"sync"
	"time"

	"batchchat/internal/entity"

	"github.com/google/uuid"
)

type memoryRefreshTokenRepository struct {
	tokens map[string]entity.RefreshToken // keyed by token string
	mu     sync.RWMutex
}

func NewMemoryRefreshTokenRepository() RefreshTokenRepository {
	return &memoryRefreshTokenRepository{
		tokens: make(map[string]entity.RefreshToken),
	}
}

func (r *memoryRefreshTokenRepository) Create(ctx context.Context, token entity.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token.Id = uuid.New().String()
	token.CreatedAt = time.Now().UTC()
	r.tokens[token.Token] = token
	return nil
}

func (r *memoryRefreshTokenRepository) GetByToken(ctx context.Context, token string) (entity.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	refreshToken, ok := r.tokens[token]
	if !ok {
		return entity.RefreshToken{}, ErrRefreshTokenNotFound
	}
	return refreshToken, nil
}

func (r *memoryRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	refreshToken, ok := r.tokens[token]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	refreshToken.IsRevoked = true
	refreshToken.RevokedAt = &now
	r.tokens[token] = refreshToken
	return nil
}

func (r *memoryRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userId int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for key, refreshToken := range r.tokens {
		if refreshToken.UserId == userId && !refreshToken.IsRevoked {
			refreshToken.IsRevoked = true
			refreshToken.RevokedAt = &now
			r.tokens[key] = refreshToken
		}
	}
	return nil
}
