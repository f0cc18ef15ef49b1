package repository

import (
	"github.com/onebite/onebite-backend/internal/app/model"
	"github.com/onebite/onebite-backend/pkg/logger"
	"gorm.io/gorm"
)

type SplitParticipantRepository interface {
	Create(participant *model.SplitParticipant) error
	ExistsBySplitRequestIDAndUserID(splitRequestID, userID uint) (bool, error)
}

type splitParticipantRepository struct {
	db *gorm.DB
}

func NewSplitParticipantRepository(db *gorm.DB) SplitParticipantRepository {
	return &splitParticipantRepository{db: db}
}

func (r *splitParticipantRepository) Create(participant *model.SplitParticipant) error {
	logger.Debug("Creating split participant in database", map[string]interface{}{
		"split_id": participant.SplitRequestID,
		"user_id":  participant.UserID,
	})

	if err := r.db.Create(participant).Error; err != nil {
		logger.Error("Failed to create split participant in database", err, map[string]interface{}{
			"split_id": participant.SplitRequestID,
			"user_id":  participant.UserID,
		})
		return err
	}

	return nil
}

func (r *splitParticipantRepository) ExistsBySplitRequestIDAndUserID(splitRequestID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.SplitParticipant{}).
		Where("split_request_id = ? AND user_id = ?", splitRequestID, userID).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to check split participation", err, map[string]interface{}{
			"split_id": splitRequestID,
			"user_id":  userID,
		})
		return false, err
	}

	return count > 0, nil
}
