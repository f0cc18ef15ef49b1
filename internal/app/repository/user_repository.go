package repository

import (
	"errors"

	"github.com/onebite/onebite-backend/internal/app/model"
	"github.com/onebite/onebite-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByProviderIdentity(provider model.AuthProvider, providerID string) (*model.User, error)
	// FindOrCreate looks up a user by (provider, providerID) and creates one on
	// first login. The second return value reports whether a new row was created.
	FindOrCreate(user *model.User) (*model.User, bool, error)
	BulkCreate(users []model.User, batchSize int) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"provider": user.Provider,
		"nickname": user.Nickname,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"provider": user.Provider,
			"nickname": user.Nickname,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id":  user.ID,
		"provider": user.Provider,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	logger.Debug("Finding user by ID", map[string]interface{}{
		"user_id": id,
	})

	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find user", err, map[string]interface{}{
				"user_id": id,
			})
		}
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByProviderIdentity(provider model.AuthProvider, providerID string) (*model.User, error) {
	logger.Debug("Finding user by provider identity", map[string]interface{}{
		"provider": provider,
	})

	var user model.User
	err := r.db.Where("provider = ? AND provider_id = ?", provider, providerID).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find user by provider identity", err, map[string]interface{}{
				"provider": provider,
			})
		}
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindOrCreate(user *model.User) (*model.User, bool, error) {
	existing, err := r.FindByProviderIdentity(user.Provider, user.ProviderID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if err := r.Create(user); err != nil {
		// 동시에 같은 계정으로 첫 로그인이 두 번 들어오면 unique 인덱스가 한쪽을
		// 막는다. 그 경우 먼저 생성된 행을 다시 조회해서 돌려준다.
		existing, findErr := r.FindByProviderIdentity(user.Provider, user.ProviderID)
		if findErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}

	logger.Info("New user registered", map[string]interface{}{
		"user_id":  user.ID,
		"provider": user.Provider,
		"nickname": user.Nickname,
	})
	return user, true, nil
}

// BulkCreate inserts users in batches (seed 전용)
func (r *userRepository) BulkCreate(users []model.User, batchSize int) error {
	logger.Info("Bulk creating users", map[string]interface{}{
		"count":      len(users),
		"batch_size": batchSize,
	})

	if err := r.db.CreateInBatches(users, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create users", err, map[string]interface{}{
			"count": len(users),
		})
		return err
	}
	return nil
}
