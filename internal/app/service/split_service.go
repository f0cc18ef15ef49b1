package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/onebite/onebite-backend/internal/app/model"
	"github.com/onebite/onebite-backend/internal/app/repository"
	"github.com/onebite/onebite-backend/pkg/logger"
	"github.com/onebite/onebite-backend/pkg/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSplitNotFound     = errors.New("split request not found")
	ErrNotJoinable       = errors.New("only waiting splits can be joined")
	ErrSelfJoin          = errors.New("author cannot join own split")
	ErrAlreadyJoined     = errors.New("already joined this split")
	ErrNotAuthor         = errors.New("only the author can cancel")
	ErrNotCancellable    = errors.New("only waiting splits can be cancelled")
	ErrBlankProductName  = errors.New("product name must not be blank")
	ErrInvalidPrice      = errors.New("total price must be at least 1")
	ErrInvalidQty        = errors.New("total quantity must be at least 1")
	ErrInvalidSplitCount = errors.New("split count must be at least 2")
)

// CreateSplitInput 나눠사기 등록 입력값
type CreateSplitInput struct {
	ProductName string
	TotalPrice  int
	TotalQty    int
	SplitCount  int
	ImageURL    string
	Latitude    float64
	Longitude   float64
	Address     string
}

type SplitService interface {
	Create(authorID uint, input CreateSplitInput) (*model.SplitRequest, error)
	GetAll() ([]model.SplitRequest, error)
	GetByStatus(status model.SplitStatus) ([]model.SplitRequest, error)
	GetByAuthorID(authorID uint) ([]model.SplitRequest, error)
	GetByID(id uint) (*model.SplitRequest, error)
	FindNearby(lat, lng, radiusKm float64) ([]model.SplitRequest, error)
	Join(splitID, userID uint) (*model.SplitRequest, error)
	Cancel(splitID, userID uint) (*model.SplitRequest, error)
	ExpireStale(olderThan time.Duration) (int64, error)
}

type splitService struct {
	splitRepo       repository.SplitRepository
	participantRepo repository.SplitParticipantRepository
	userRepo        repository.UserRepository
	db              *gorm.DB
}

func NewSplitService(
	splitRepo repository.SplitRepository,
	participantRepo repository.SplitParticipantRepository,
	userRepo repository.UserRepository,
	db *gorm.DB,
) SplitService {
	return &splitService{
		splitRepo:       splitRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		db:              db,
	}
}

func (s *splitService) Create(authorID uint, input CreateSplitInput) (*model.SplitRequest, error) {
	logger.Info("Creating split request", map[string]interface{}{
		"author_id":    authorID,
		"product_name": input.ProductName,
		"split_count":  input.SplitCount,
	})

	if strings.TrimSpace(input.ProductName) == "" {
		return nil, ErrBlankProductName
	}
	if input.TotalPrice < 1 {
		return nil, ErrInvalidPrice
	}
	if input.TotalQty < 1 {
		return nil, ErrInvalidQty
	}
	if input.SplitCount < 2 {
		return nil, ErrInvalidSplitCount
	}

	if _, err := s.userRepo.FindByID(authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Split creation failed: author not found", map[string]interface{}{
				"author_id": authorID,
			})
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	split := &model.SplitRequest{
		AuthorID:    authorID,
		ProductName: input.ProductName,
		TotalPrice:  input.TotalPrice,
		TotalQty:    input.TotalQty,
		SplitCount:  input.SplitCount,
		ImageURL:    input.ImageURL,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Address:     input.Address,
		Status:      model.SplitWaiting,
	}

	if err := s.splitRepo.Create(split); err != nil {
		return nil, err
	}

	logger.Info("Split request created", map[string]interface{}{
		"split_id":  split.ID,
		"author_id": authorID,
	})

	// 작성자/참여자 정보를 포함해서 반환
	return s.splitRepo.FindByID(split.ID)
}

func (s *splitService) GetAll() ([]model.SplitRequest, error) {
	return s.splitRepo.FindAll()
}

func (s *splitService) GetByStatus(status model.SplitStatus) ([]model.SplitRequest, error) {
	return s.splitRepo.FindByStatus(status)
}

func (s *splitService) GetByAuthorID(authorID uint) ([]model.SplitRequest, error) {
	return s.splitRepo.FindByAuthorID(authorID)
}

func (s *splitService) GetByID(id uint) (*model.SplitRequest, error) {
	split, err := s.splitRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSplitNotFound
		}
		return nil, err
	}
	return split, nil
}

// FindNearby returns WAITING splits within radiusKm of (lat, lng), nearest
// first. The boundary is inclusive. Sorting uses the unrounded distance; the
// response layer rounds the same value for display so the order shown can
// never contradict the distances shown.
func (s *splitService) FindNearby(lat, lng, radiusKm float64) ([]model.SplitRequest, error) {
	logger.Debug("Finding nearby split requests", map[string]interface{}{
		"lat":       lat,
		"lng":       lng,
		"radius_km": radiusKm,
	})

	waiting, err := s.splitRepo.FindByStatus(model.SplitWaiting)
	if err != nil {
		return nil, err
	}

	nearby := make([]model.SplitRequest, 0, len(waiting))
	for _, split := range waiting {
		distance := util.HaversineKm(lat, lng, split.Latitude, split.Longitude)
		if distance <= radiusKm {
			split.DistanceKm = &distance
			nearby = append(nearby, split)
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		return *nearby[i].DistanceKm < *nearby[j].DistanceKm
	})

	logger.Debug("Nearby split requests found", map[string]interface{}{
		"count": len(nearby),
	})
	return nearby, nil
}

// Join adds the user as a participant and transitions the split to MATCHED
// once total membership (author included) reaches SplitCount. The split row is
// locked for the whole transaction so concurrent joins on the same split
// serialize; joins on different splits do not block each other.
func (s *splitService) Join(splitID, userID uint) (*model.SplitRequest, error) {
	logger.Info("Joining split request", map[string]interface{}{
		"split_id": splitID,
		"user_id":  userID,
	})

	// 선행 조건 검사 (존재 → WAITING → 작성자 아님 → 미참여 → 사용자 존재)
	split, err := s.splitRepo.FindByID(splitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Join failed: split not found", map[string]interface{}{
				"split_id": splitID,
			})
			return nil, ErrSplitNotFound
		}
		return nil, err
	}

	if split.Status != model.SplitWaiting {
		logger.Warn("Join failed: split is not waiting", map[string]interface{}{
			"split_id": splitID,
			"status":   split.Status,
		})
		return nil, ErrNotJoinable
	}

	if split.AuthorID == userID {
		logger.Warn("Join failed: author cannot join own split", map[string]interface{}{
			"split_id": splitID,
			"user_id":  userID,
		})
		return nil, ErrSelfJoin
	}

	alreadyJoined, err := s.participantRepo.ExistsBySplitRequestIDAndUserID(splitID, userID)
	if err != nil {
		return nil, err
	}
	if alreadyJoined {
		logger.Warn("Join failed: user already joined", map[string]interface{}{
			"split_id": splitID,
			"user_id":  userID,
		})
		return nil, ErrAlreadyJoined
	}

	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Join failed: user not found", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during split join, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"split_id": splitID,
				"user_id":  userID,
			})
		}
	}()

	// 행 잠금 후 상태 재검증. 동시에 들어온 참여 요청은 여기서 직렬화된다.
	var locked model.SplitRequest
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&locked, splitID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSplitNotFound
		}
		return nil, err
	}

	if locked.Status != model.SplitWaiting {
		tx.Rollback()
		logger.Warn("Join failed: split matched or cancelled concurrently", map[string]interface{}{
			"split_id": splitID,
			"status":   locked.Status,
		})
		return nil, ErrNotJoinable
	}

	participant := model.SplitParticipant{
		SplitRequestID: splitID,
		UserID:         userID,
	}
	if err := tx.Create(&participant).Error; err != nil {
		tx.Rollback()
		// (split_request_id, user_id) unique 인덱스가 동시 중복 참여의 최후 방어선
		if isUniqueViolation(err) {
			logger.Warn("Join failed: concurrent duplicate join blocked by unique index", map[string]interface{}{
				"split_id": splitID,
				"user_id":  userID,
			})
			return nil, ErrAlreadyJoined
		}
		logger.Error("Failed to create split participant", err, map[string]interface{}{
			"split_id": splitID,
			"user_id":  userID,
		})
		return nil, err
	}

	var participantCount int64
	if err := tx.Model(&model.SplitParticipant{}).
		Where("split_request_id = ?", splitID).
		Count(&participantCount).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// 작성자 몫 1명을 더해 정원이 차면 매칭 확정
	if participantCount >= int64(locked.SplitCount-1) {
		if err := tx.Model(&locked).Update("status", model.SplitMatched).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		logger.Info("Split request matched", map[string]interface{}{
			"split_id":     splitID,
			"split_count":  locked.SplitCount,
			"participants": participantCount,
		})
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.splitRepo.FindByID(splitID)
}

// Cancel transitions an author's own WAITING split to CANCELLED. Participant
// rows are kept as a historical record.
func (s *splitService) Cancel(splitID, userID uint) (*model.SplitRequest, error) {
	logger.Info("Cancelling split request", map[string]interface{}{
		"split_id": splitID,
		"user_id":  userID,
	})

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during split cancel, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"split_id": splitID,
			})
		}
	}()

	var split model.SplitRequest
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&split, splitID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSplitNotFound
		}
		return nil, err
	}

	if split.AuthorID != userID {
		tx.Rollback()
		logger.Warn("Cancel failed: requester is not the author", map[string]interface{}{
			"split_id":     splitID,
			"author_id":    split.AuthorID,
			"requester_id": userID,
		})
		return nil, ErrNotAuthor
	}

	if split.Status != model.SplitWaiting {
		tx.Rollback()
		logger.Warn("Cancel failed: split is not waiting", map[string]interface{}{
			"split_id": splitID,
			"status":   split.Status,
		})
		return nil, ErrNotCancellable
	}

	if err := tx.Model(&split).Update("status", model.SplitCancelled).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logger.Info("Split request cancelled", map[string]interface{}{
		"split_id": splitID,
	})

	return s.splitRepo.FindByID(splitID)
}

// ExpireStale cancels WAITING splits created more than olderThan ago.
// Called by the scheduler; returns how many rows were cancelled.
func (s *splitService) ExpireStale(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result := s.db.Model(&model.SplitRequest{}).
		Where("status = ? AND created_at < ?", model.SplitWaiting, cutoff).
		Update("status", model.SplitCancelled)
	if result.Error != nil {
		logger.Error("Failed to expire stale split requests", result.Error, map[string]interface{}{
			"cutoff": cutoff,
		})
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.Info("Expired stale split requests", map[string]interface{}{
			"count":  result.RowsAffected,
			"cutoff": cutoff,
		})
	}
	return result.RowsAffected, nil
}

// isUniqueViolation reports whether err is a storage-level unique constraint
// violation (Postgres SQLSTATE 23505, or SQLite's message in tests)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "unique constraint") || strings.Contains(errStr, "duplicate key")
}
