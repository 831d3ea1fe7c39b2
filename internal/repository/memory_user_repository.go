package repository

import (
	"context"
	"sync"

	"batchchat/internal/entity"
)

type memoryUserRepository struct {
	users map[int64]entity.User
	seq   int64
	mu    sync.RWMutex
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		users: make(map[int64]entity.User),
	}
}

func (r *memoryUserRepository) Get(ctx context.Context, userId int64) (entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userId]
	if !ok {
		return entity.User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return entity.User{}, ErrUserNotFound
}

func (r *memoryUserRepository) Create(ctx context.Context, user entity.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	user.Id = r.seq
	r.users[user.Id] = user
	return user.Id, nil
}

func (r *memoryUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}
