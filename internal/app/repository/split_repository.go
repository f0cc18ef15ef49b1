package repository

import (
	"errors"

	"github.com/onebite/onebite-backend/internal/app/model"
	"github.com/onebite/onebite-backend/pkg/logger"
	"gorm.io/gorm"
)

type SplitRepository interface {
	Create(split *model.SplitRequest) error
	Update(split *model.SplitRequest) error
	FindAll() ([]model.SplitRequest, error)
	FindByStatus(status model.SplitStatus) ([]model.SplitRequest, error)
	FindByAuthorID(authorID uint) ([]model.SplitRequest, error)
	FindByID(id uint) (*model.SplitRequest, error)
	BulkCreate(splits []model.SplitRequest, batchSize int) error
}

type splitRepository struct {
	db *gorm.DB
}

func NewSplitRepository(db *gorm.DB) SplitRepository {
	return &splitRepository{db: db}
}

// withAssociations preloads the author and the participant list (with users)
func (r *splitRepository) withAssociations() *gorm.DB {
	return r.db.Model(&model.SplitRequest{}).
		Preload("Author").
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Participants.User")
}

func (r *splitRepository) Create(split *model.SplitRequest) error {
	logger.Debug("Creating split request in database", map[string]interface{}{
		"author_id":    split.AuthorID,
		"product_name": split.ProductName,
		"split_count":  split.SplitCount,
	})

	if err := r.db.Create(split).Error; err != nil {
		logger.Error("Failed to create split request in database", err, map[string]interface{}{
			"author_id":    split.AuthorID,
			"product_name": split.ProductName,
		})
		return err
	}

	logger.Debug("Split request created in database", map[string]interface{}{
		"split_id":  split.ID,
		"author_id": split.AuthorID,
	})
	return nil
}

func (r *splitRepository) Update(split *model.SplitRequest) error {
	logger.Debug("Updating split request in database", map[string]interface{}{
		"split_id": split.ID,
		"status":   split.Status,
	})

	if err := r.db.Save(split).Error; err != nil {
		logger.Error("Failed to update split request in database", err, map[string]interface{}{
			"split_id": split.ID,
		})
		return err
	}

	return nil
}

func (r *splitRepository) FindAll() ([]model.SplitRequest, error) {
	logger.Debug("Finding all split requests")

	var splits []model.SplitRequest
	if err := r.withAssociations().Order("created_at DESC").Find(&splits).Error; err != nil {
		logger.Error("Failed to find split requests", err, nil)
		return nil, err
	}

	logger.Debug("Split requests found", map[string]interface{}{
		"count": len(splits),
	})
	return splits, nil
}

func (r *splitRepository) FindByStatus(status model.SplitStatus) ([]model.SplitRequest, error) {
	logger.Debug("Finding split requests by status", map[string]interface{}{
		"status": status,
	})

	var splits []model.SplitRequest
	err := r.withAssociations().
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&splits).Error
	if err != nil {
		logger.Error("Failed to find split requests by status", err, map[string]interface{}{
			"status": status,
		})
		return nil, err
	}

	return splits, nil
}

func (r *splitRepository) FindByAuthorID(authorID uint) ([]model.SplitRequest, error) {
	logger.Debug("Finding split requests by author", map[string]interface{}{
		"author_id": authorID,
	})

	var splits []model.SplitRequest
	err := r.withAssociations().
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&splits).Error
	if err != nil {
		logger.Error("Failed to find split requests by author", err, map[string]interface{}{
			"author_id": authorID,
		})
		return nil, err
	}

	return splits, nil
}

func (r *splitRepository) FindByID(id uint) (*model.SplitRequest, error) {
	logger.Debug("Finding split request by ID", map[string]interface{}{
		"split_id": id,
	})

	var split model.SplitRequest
	if err := r.withAssociations().First(&split, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find split request", err, map[string]interface{}{
				"split_id": id,
			})
		}
		return nil, err
	}

	return &split, nil
}

// BulkCreate inserts split requests in batches (seed 전용)
func (r *splitRepository) BulkCreate(splits []model.SplitRequest, batchSize int) error {
	logger.Info("Bulk creating split requests", map[string]interface{}{
		"count":      len(splits),
		"batch_size": batchSize,
	})

	if err := r.db.CreateInBatches(splits, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create split requests", err, map[string]interface{}{
			"count": len(splits),
		})
		return err
	}
	return nil
}
