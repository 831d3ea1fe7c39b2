package usecase

import (
	"context"
	"fmt"
	"time"

	"batchchat/infrastructure/cache"
	"batchchat/internal/entity"
	"batchchat/internal/repository"
)

const userCacheTTL = 5 * time.Minute

type UserUsecase interface {
	Get(ctx context.Context, userId int64) (entity.User, error)
}

type userUsecase struct {
	userRepo repository.UserRepository
	cache    *cache.MemCache
}

func NewUserUsecase(userRepo repository.UserRepository, memCache *cache.MemCache) UserUsecase {
	return &userUsecase{
		userRepo: userRepo,
		cache:    memCache,
	}
}

// Get resolves a user, serving repeat lookups from the cache. Every send
// resolves its sender (and recipient), so this sits on the hot path.
func (u *userUsecase) Get(ctx context.Context, userId int64) (entity.User, error) {
	key := fmt.Sprintf("user:%d", userId)
	if cached, ok := u.cache.Get(key); ok {
		if user, ok := cached.(entity.User); ok {
			return user, nil
		}
	}

	user, err := u.userRepo.Get(ctx, userId)
	if err != nil {
		return entity.User{}, err
	}

	u.cache.Set(key, user, userCacheTTL)
	return user, nil
}
